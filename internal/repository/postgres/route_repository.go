package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
)

type routeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRouteRepository создает новый экземпляр route repository
func NewRouteRepository(db *DB) repository.RouteRepository {
	return &routeRepository{
		db:     db,
		logger: db.logger,
	}
}

const selectRouteColumns = `
	SELECT id, user_id, name, source, polyline, total_distance_m, created_at
	FROM saved_routes`

// ListByUser возвращает все маршруты пользователя, новые первыми
func (r *routeRepository) ListByUser(ctx context.Context, userID string) ([]domain.LoadedRoute, error) {
	var rows []routeRow
	query := selectRouteColumns + ` WHERE user_id = $1 ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		r.logger.Error("failed to list routes", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list routes: %w", err)
	}

	result := make([]domain.LoadedRoute, len(rows))
	for i, row := range rows {
		result[i] = row.toLoaded()
		if result[i].Err != nil {
			r.logger.Warn("saved route geometry is broken",
				zap.String("route_id", row.ID.String()),
				zap.Error(result[i].Err))
		}
	}

	r.logger.Debug("routes loaded", zap.String("user_id", userID), zap.Int("count", len(result)))
	return result, nil
}

// GetByID возвращает один маршрут пользователя
func (r *routeRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Route, error) {
	var row routeRow
	query := selectRouteColumns + ` WHERE user_id = $1 AND id = $2`

	if err := r.db.GetContext(ctx, &row, query, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRouteNotFound
		}
		r.logger.Error("failed to get route", zap.String("route_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("get route: %w", err)
	}

	loaded := row.toLoaded()
	if loaded.Err != nil {
		return nil, loaded.Err
	}
	return loaded.Route, nil
}

// Create сохраняет маршрут, геометрия хранится как encoded polyline
func (r *routeRepository) Create(ctx context.Context, route *domain.Route) error {
	if route.ID == uuid.Nil {
		route.ID = uuid.New()
	}
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}
	if route.Source == "" {
		route.Source = domain.RouteSourcePolyline
	}

	query := `
		INSERT INTO saved_routes (id, user_id, name, source, polyline, point_count, total_distance_m, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		route.ID,
		route.UserID,
		route.Name,
		string(route.Source),
		domain.EncodePolyline(route.Points),
		len(route.Points),
		route.TotalDistance,
		route.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create route", zap.String("user_id", route.UserID), zap.Error(err))
		return fmt.Errorf("create route: %w", err)
	}

	return nil
}
