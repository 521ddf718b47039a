package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/usecase"
)

func TestStatsUseCase_GetStatistics(t *testing.T) {
	ctx := context.Background()

	t.Run("served from cache", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, time.Hour, zap.NewNop())

		cached := &domain.Statistics{Users: 4}
		cacheRepo.On("GetStats", ctx).Return(cached, nil)

		stats, err := uc.GetStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.Users)
		statsRepo.AssertNotCalled(t, "GetStatistics", ctx)
	})

	t.Run("cache miss loads from database and caches", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, 10*time.Minute, zap.NewNop())

		fresh := &domain.Statistics{Users: 9, Routes: domain.RouteStats{TotalRoutes: 12}}
		cacheRepo.On("GetStats", ctx).Return(nil, errors.New("redis down"))
		statsRepo.On("GetStatistics", ctx).Return(fresh, nil)
		cacheRepo.On("SetStats", ctx, fresh, 10*time.Minute).Return(nil)

		stats, err := uc.GetStatistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, stats.Routes.TotalRoutes)

		statsRepo.AssertExpectations(t)
		cacheRepo.AssertExpectations(t)
	})

	t.Run("database error", func(t *testing.T) {
		statsRepo := &MockStatsRepository{}
		cacheRepo := &MockCacheRepository{}
		uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, time.Hour, zap.NewNop())

		cacheRepo.On("GetStats", ctx).Return(nil, nil)
		statsRepo.On("GetStatistics", ctx).Return(nil, errors.New("db down"))

		stats, err := uc.GetStatistics(ctx)
		assert.Error(t, err)
		assert.Nil(t, stats)
	})
}

func TestStatsUseCase_RefreshStatistics(t *testing.T) {
	ctx := context.Background()
	statsRepo := &MockStatsRepository{}
	cacheRepo := &MockCacheRepository{}
	uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, 0, zap.NewNop())

	fresh := &domain.Statistics{Users: 2}
	statsRepo.On("GetStatistics", ctx).Return(fresh, nil)
	cacheRepo.On("SetStats", ctx, fresh, time.Hour).Return(errors.New("redis down"))

	stats, err := uc.RefreshStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Users)
	cacheRepo.AssertExpectations(t)
}

func TestStatsUseCase_ConcurrentMissesLoadOnce(t *testing.T) {
	ctx := context.Background()
	statsRepo := &MockStatsRepository{}
	cacheRepo := &MockCacheRepository{}
	uc := usecase.NewStatsUseCase(statsRepo, cacheRepo, time.Hour, zap.NewNop())

	fresh := &domain.Statistics{Users: 5}
	cacheRepo.On("GetStats", ctx).Return(nil, nil)
	statsRepo.On("GetStatistics", mock.Anything).After(50 * time.Millisecond).Return(fresh, nil)
	cacheRepo.On("SetStats", mock.Anything, fresh, time.Hour).Return(nil)

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := uc.GetStatistics(ctx)
			assert.NoError(t, err)
			assert.Same(t, fresh, stats)
		}()
	}
	wg.Wait()

	statsRepo.AssertNumberOfCalls(t, "GetStatistics", 1)
}
