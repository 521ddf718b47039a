package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/domain/repository"
)

type activityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityRepository создает новый экземпляр activity repository
func NewActivityRepository(db *DB) repository.ActivityRepository {
	return &activityRepository{
		db:     db,
		logger: db.logger,
	}
}

// ListRecent возвращает активности пользователя, начатые не раньше since
func (r *activityRepository) ListRecent(ctx context.Context, userID string, since time.Time) ([]domain.LoadedRoute, error) {
	var rows []routeRow
	query := `
		SELECT id, user_id, name, 'activity' AS source, polyline, total_distance_m, started_at AS created_at
		FROM activities
		WHERE user_id = $1 AND started_at >= $2
		ORDER BY started_at`

	if err := r.db.SelectContext(ctx, &rows, query, userID, since); err != nil {
		r.logger.Error("failed to list activities", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list activities: %w", err)
	}

	result := make([]domain.LoadedRoute, len(rows))
	for i, row := range rows {
		result[i] = row.toLoaded()
	}

	r.logger.Debug("activities loaded",
		zap.String("user_id", userID),
		zap.Time("since", since),
		zap.Int("count", len(result)))
	return result, nil
}

// Create сохраняет активность. CreatedAt трактуется как время старта.
func (r *activityRepository) Create(ctx context.Context, activity *domain.Route) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO activities (id, user_id, name, polyline, point_count, total_distance_m, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		activity.ID,
		activity.UserID,
		activity.Name,
		domain.EncodePolyline(activity.Points),
		len(activity.Points),
		activity.TotalDistance,
		activity.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create activity", zap.String("user_id", activity.UserID), zap.Error(err))
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}
