package repository

import (
	"context"
	"time"

	"github.com/route-freshness/internal/domain"
)

// CacheRepository - общий для процессов кэш снимков агрегатов и статистики
type CacheRepository interface {
	// GetAggregate получает снимок агрегата пользователя, nil при промахе
	GetAggregate(ctx context.Context, key string) (*domain.AggregateSnapshot, error)

	// SetAggregate сохраняет снимок агрегата
	SetAggregate(ctx context.Context, key string, snapshot *domain.AggregateSnapshot, ttl time.Duration) error

	// DeleteAggregate удаляет снимок агрегата
	DeleteAggregate(ctx context.Context, key string) error

	// GetStats получает статистику из кеша
	GetStats(ctx context.Context) (*domain.Statistics, error)

	// SetStats сохраняет статистику в кеше
	SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error
}
