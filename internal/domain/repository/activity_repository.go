package repository

import (
	"context"
	"time"

	"github.com/route-freshness/internal/domain"
)

// ActivityRepository - хранилище записанных активностей (треков)
type ActivityRepository interface {
	// ListRecent возвращает активности пользователя, начатые после since
	ListRecent(ctx context.Context, userID string, since time.Time) ([]domain.LoadedRoute, error)

	// Create сохраняет активность, CreatedAt - время старта
	Create(ctx context.Context, activity *domain.Route) error
}
