package dto

import (
	"time"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/grid"
)

// RouteScore - оценка одного маршрута
type RouteScore struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	Score         float64 `json:"score"`
	Normalized    float64 `json:"normalized"`
	Scored        bool    `json:"scored"`
	Rank          int     `json:"rank,omitempty"`
	RouteDistance float64 `json:"route_distance_m"`
	CellCount     int     `json:"cell_count"`
}

// ExcludedRoute - маршрут, не допущенный к оценке
type ExcludedRoute struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// AggregateInfo - описание агрегата, использованного при оценке
type AggregateInfo struct {
	Version    uint64     `json:"version,omitempty"`
	BuiltAt    *time.Time `json:"built_at,omitempty"`
	RouteCount int        `json:"route_count"`
	Excluded   int        `json:"excluded,omitempty"`
	Stats      grid.Stats `json:"stats"`
}

// FreshnessResponse - ранжированные маршруты, самые "свежие" первыми
type FreshnessResponse struct {
	Routes    []RouteScore    `json:"routes"`
	Excluded  []ExcludedRoute `json:"excluded,omitempty"`
	Aggregate AggregateInfo   `json:"aggregate"`
	Policy    string          `json:"zero_coverage_policy"`
}

// HeatCell - ячейка тепловой карты
type HeatCell struct {
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Meters float64    `json:"meters"`
	Bounds [4]float64 `json:"bounds"` // min_lon, min_lat, max_lon, max_lat
}

// HeatmapResponse - тепловая карта агрегата пользователя
type HeatmapResponse struct {
	CellSizeKm float64       `json:"cell_size_km"`
	Cells      []HeatCell    `json:"cells"`
	Aggregate  AggregateInfo `json:"aggregate"`
}

// RouteHeatmapResponse - ячейки маршрута и их вклад в оценку
type RouteHeatmapResponse struct {
	Route     RouteScore         `json:"route"`
	Cells     []HeatCell         `json:"cells"`
	Breakdown []grid.CellOverlap `json:"breakdown"`
	Aggregate AggregateInfo      `json:"aggregate"`
}

// RouteSummary - краткое описание сохранённого маршрута
type RouteSummary struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Source        domain.RouteSource `json:"source"`
	PointCount    int                `json:"point_count"`
	TotalDistance float64            `json:"total_distance_m"`
	CreatedAt     time.Time          `json:"created_at"`
}

// RefreshResponse - результат пересборки агрегата
type RefreshResponse struct {
	Version       uint64    `json:"version"`
	RouteCount    int       `json:"route_count"`
	CellCount     int       `json:"cell_count"`
	TotalDistance float64   `json:"total_distance_m"`
	BuiltAt       time.Time `json:"built_at"`
}
