package domain

import "time"

// CellMeters - ячейка агрегата в сериализуемом виде
type CellMeters struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Meters float64 `json:"m"`
}

// AggregateSnapshot - состояние агрегата пользователя для общего кеша
type AggregateSnapshot struct {
	UserID     string       `json:"user_id"`
	Version    uint64       `json:"version"`
	CellSizeKm float64      `json:"cell_size_km"`
	RefLat     float64      `json:"ref_lat"`
	RefLon     float64      `json:"ref_lon"`
	RouteCount int          `json:"route_count"`
	BuiltAt    time.Time    `json:"built_at"`
	Cells      []CellMeters `json:"cells"`
}

// Statistics представляет общую статистику по данным сервиса
type Statistics struct {
	Routes      RouteStats    `json:"routes"`
	Activities  ActivityStats `json:"activities"`
	Users       int           `json:"users"`
	LastUpdated time.Time     `json:"last_updated"`
	DataVersion string        `json:"data_version"`
}

// RouteStats статистика по сохранённым маршрутам
type RouteStats struct {
	TotalRoutes    int            `json:"total_routes" db:"total_routes"`
	TotalDistanceM float64        `json:"total_distance_m" db:"total_distance_m"`
	BySource       map[string]int `json:"by_source"`
}

// ActivityStats статистика по активностям
type ActivityStats struct {
	TotalActivities int        `json:"total_activities" db:"total_activities"`
	TotalDistanceM  float64    `json:"total_distance_m" db:"total_distance_m"`
	LastRecordedAt  *time.Time `json:"last_recorded_at,omitempty" db:"last_recorded_at"`
}
