package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
)

// statsKey - единственная запись статистики сервиса
const statsKey = "stats:current"

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository - JSON-кэш снимков агрегатов и статистики в Redis
func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

// GetAggregate возвращает nil, nil при промахе
func (r *cacheRepository) GetAggregate(ctx context.Context, key string) (*domain.AggregateSnapshot, error) {
	return getJSON[domain.AggregateSnapshot](ctx, r, key)
}

func (r *cacheRepository) SetAggregate(ctx context.Context, key string, snapshot *domain.AggregateSnapshot, ttl time.Duration) error {
	r.logger.Debug("Caching aggregate",
		zap.String("key", key),
		zap.Uint64("version", snapshot.Version),
		zap.Int("cells", len(snapshot.Cells)))
	return setJSON(ctx, r, key, snapshot, ttl)
}

func (r *cacheRepository) DeleteAggregate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *cacheRepository) GetStats(ctx context.Context) (*domain.Statistics, error) {
	return getJSON[domain.Statistics](ctx, r, statsKey)
}

func (r *cacheRepository) SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error {
	return setJSON(ctx, r, statsKey, stats, ttl)
}

func getJSON[T any](ctx context.Context, r *cacheRepository, key string) (*T, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		// битая запись - промах, удаляем её
		r.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, nil
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return &v, nil
}

func setJSON(ctx context.Context, r *cacheRepository, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
