package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
)

const defaultStatsTTL = time.Hour

// StatsUseCase отдаёт счётчики маршрутов, активностей и пользователей.
// Подсчёт в БД тяжёлый (COUNT по таблицам), поэтому результат живёт в Redis
// ttl, а одновременные промахи кэша ходят в БД один раз.
type StatsUseCase struct {
	statsRepo repository.StatsRepository
	cacheRepo repository.CacheRepository
	ttl       time.Duration
	loads     singleflight.Group
	logger    *zap.Logger
}

func NewStatsUseCase(
	statsRepo repository.StatsRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *StatsUseCase {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsUseCase{
		statsRepo: statsRepo,
		cacheRepo: cacheRepo,
		ttl:       ttl,
		logger:    logger,
	}
}

// GetStatistics отдаёт статистику из кэша, при промахе считает заново.
// Недоступный Redis деградирует до запроса в БД.
func (uc *StatsUseCase) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	cached, err := uc.cacheRepo.GetStats(ctx)
	switch {
	case err != nil:
		uc.logger.Warn("Stats cache unavailable", zap.Error(err))
	case cached != nil:
		return cached, nil
	}

	return uc.load(ctx, "get")
}

// RefreshStatistics пересчитывает статистику в обход кэша и перезаписывает его
func (uc *StatsUseCase) RefreshStatistics(ctx context.Context) (*domain.Statistics, error) {
	uc.logger.Info("Refreshing statistics")
	return uc.load(ctx, "refresh")
}

func (uc *StatsUseCase) load(ctx context.Context, reason string) (*domain.Statistics, error) {
	v, err, shared := uc.loads.Do("stats", func() (interface{}, error) {
		started := time.Now()
		stats, err := uc.statsRepo.GetStatistics(ctx)
		if err != nil {
			return nil, err
		}

		if err := uc.cacheRepo.SetStats(ctx, stats, uc.ttl); err != nil {
			uc.logger.Warn("Failed to cache stats", zap.Error(err))
		}

		uc.logger.Debug("Statistics loaded from database",
			zap.String("reason", reason),
			zap.Duration("took", time.Since(started)))
		return stats, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s statistics: %w", reason, err)
	}
	if shared {
		uc.logger.Debug("Statistics load shared", zap.String("reason", reason))
	}
	return v.(*domain.Statistics), nil
}
