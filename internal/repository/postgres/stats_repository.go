package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
)

type statsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewStatsRepository создает новый экземпляр stats repository
func NewStatsRepository(db *DB, logger *zap.Logger) repository.StatsRepository {
	return &statsRepository{
		db:     db,
		logger: logger,
	}
}

// GetStatistics возвращает агрегированную статистику по маршрутам и активностям
func (r *statsRepository) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		LastUpdated: time.Now(),
		DataVersion: "1.0",
	}

	routeStats, err := r.getRouteStats(ctx)
	if err != nil {
		r.logger.Error("failed to get route stats", zap.Error(err))
		return nil, fmt.Errorf("get route stats: %w", err)
	}
	stats.Routes = *routeStats

	activityStats, err := r.getActivityStats(ctx)
	if err != nil {
		r.logger.Error("failed to get activity stats", zap.Error(err))
		return nil, fmt.Errorf("get activity stats: %w", err)
	}
	stats.Activities = *activityStats

	query := `
		SELECT COUNT(*) FROM (
			SELECT user_id FROM saved_routes
			UNION
			SELECT user_id FROM activities
		) u`
	if err := r.db.GetContext(ctx, &stats.Users, query); err != nil {
		r.logger.Error("failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	return stats, nil
}

func (r *statsRepository) getRouteStats(ctx context.Context) (*domain.RouteStats, error) {
	stats := &domain.RouteStats{BySource: make(map[string]int)}

	query := `
		SELECT COUNT(*) AS total_routes, COALESCE(SUM(total_distance_m), 0) AS total_distance_m
		FROM saved_routes`
	if err := r.db.GetContext(ctx, stats, query); err != nil {
		return nil, err
	}

	var bySource []struct {
		Source string `db:"source"`
		Count  int    `db:"count"`
	}
	query = `SELECT source, COUNT(*) AS count FROM saved_routes GROUP BY source`
	if err := r.db.SelectContext(ctx, &bySource, query); err != nil {
		return nil, err
	}
	for _, s := range bySource {
		stats.BySource[s.Source] = s.Count
	}

	return stats, nil
}

func (r *statsRepository) getActivityStats(ctx context.Context) (*domain.ActivityStats, error) {
	stats := &domain.ActivityStats{}

	query := `
		SELECT COUNT(*) AS total_activities,
		       COALESCE(SUM(total_distance_m), 0) AS total_distance_m,
		       MAX(started_at) AS last_recorded_at
		FROM activities`
	if err := r.db.GetContext(ctx, stats, query); err != nil {
		return nil, err
	}
	return stats, nil
}
