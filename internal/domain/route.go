package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/route-freshness/internal/pkg/geo"
)

// RouteSource - откуда пришёл маршрут
type RouteSource string

const (
	RouteSourceGPX      RouteSource = "gpx"
	RouteSourcePolyline RouteSource = "polyline"
	RouteSourceRequest  RouteSource = "request"
	RouteSourceActivity RouteSource = "activity"
)

var (
	ErrRouteNotFound      = errors.New("route not found")
	ErrInvalidRoutePoint  = errors.New("route point has invalid coordinates")
	ErrRouteNotComputable = errors.New("route cannot be processed")
)

// RoutePoint - точка маршрута. DistanceFromPrev и Midpoint заполняются один раз
// в ComputeDerived и затем переиспользуются при обработке сегментов.
type RoutePoint struct {
	Lat              float64     `json:"lat"`
	Lon              float64     `json:"lon"`
	Elevation        *float64    `json:"elevation,omitempty"`
	DistanceFromPrev *float64    `json:"distance_from_prev,omitempty"`
	Midpoint         *geo.LatLon `json:"midpoint,omitempty"`
}

// Route - упорядоченная последовательность точек (сохранённый маршрут или активность)
type Route struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	UserID        string       `json:"user_id" db:"user_id"`
	Name          string       `json:"name" db:"name"`
	Source        RouteSource  `json:"source" db:"source"`
	Points        []RoutePoint `json:"points"`
	TotalDistance float64      `json:"total_distance_m" db:"total_distance_m"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// ComputeDerived заполняет дистанцию от предыдущей точки, середину сегмента
// и общую длину маршрута. Уже заполненные значения не пересчитываются.
func (r *Route) ComputeDerived() {
	var total float64
	for i := 1; i < len(r.Points); i++ {
		prev := r.Points[i-1]
		cur := &r.Points[i]

		if cur.DistanceFromPrev == nil {
			d := geo.Distance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
			cur.DistanceFromPrev = &d
		}
		if cur.Midpoint == nil {
			mid := geo.Midpoint(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
			cur.Midpoint = &mid
		}
		total += *cur.DistanceFromPrev
	}
	r.TotalDistance = total
}

// Validate проверяет, что все координаты конечны и лежат в допустимых диапазонах
func (r *Route) Validate() error {
	for i, p := range r.Points {
		if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) ||
			p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return fmt.Errorf("%w: point %d (%v, %v)", ErrInvalidRoutePoint, i, p.Lat, p.Lon)
		}
	}
	return nil
}

// LoadedRoute - результат загрузки маршрута: либо маршрут, либо ошибка загрузки
type LoadedRoute struct {
	Route *Route
	ID    uuid.UUID
	Name  string
	Err   error
}

// ExcludedRoute - маршрут, не допущенный к оценке
type ExcludedRoute struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name,omitempty"`
	Reason string    `json:"reason"`
}

// Partition - единственная точка фильтрации входных маршрутов.
// Маршруты с ошибкой загрузки или некорректными координатами исключаются,
// у остальных вычисляются производные поля.
func Partition(loaded []LoadedRoute) ([]*Route, []ExcludedRoute) {
	scoreable := make([]*Route, 0, len(loaded))
	var excluded []ExcludedRoute

	for _, l := range loaded {
		if l.Err != nil || l.Route == nil {
			reason := ErrRouteNotComputable.Error()
			if l.Err != nil {
				reason = l.Err.Error()
			}
			excluded = append(excluded, ExcludedRoute{ID: l.ID, Name: l.Name, Reason: reason})
			continue
		}
		if err := l.Route.Validate(); err != nil {
			excluded = append(excluded, ExcludedRoute{ID: l.Route.ID, Name: l.Route.Name, Reason: err.Error()})
			continue
		}
		l.Route.ComputeDerived()
		scoreable = append(scoreable, l.Route)
	}

	return scoreable, excluded
}

// Loaded оборачивает успешно загруженные маршруты
func Loaded(routes ...*Route) []LoadedRoute {
	out := make([]LoadedRoute, len(routes))
	for i, r := range routes {
		out[i] = LoadedRoute{Route: r, ID: r.ID, Name: r.Name}
	}
	return out
}
