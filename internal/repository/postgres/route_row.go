package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/route-freshness/internal/domain"
)

// routeRow - общая строка для saved_routes и activities
type routeRow struct {
	ID            uuid.UUID `db:"id"`
	UserID        string    `db:"user_id"`
	Name          string    `db:"name"`
	Source        string    `db:"source"`
	Polyline      string    `db:"polyline"`
	TotalDistance float64   `db:"total_distance_m"`
	CreatedAt     time.Time `db:"created_at"`
}

// toLoaded декодирует геометрию. Ошибка декодирования не прерывает выборку,
// а попадает в LoadedRoute.Err.
func (row routeRow) toLoaded() domain.LoadedRoute {
	loaded := domain.LoadedRoute{ID: row.ID, Name: row.Name}

	points, err := domain.DecodePolyline(row.Polyline)
	if err != nil {
		loaded.Err = err
		return loaded
	}

	loaded.Route = &domain.Route{
		ID:            row.ID,
		UserID:        row.UserID,
		Name:          row.Name,
		Source:        domain.RouteSource(row.Source),
		Points:        points,
		TotalDistance: row.TotalDistance,
		CreatedAt:     row.CreatedAt,
	}
	return loaded
}
