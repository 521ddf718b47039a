package dto

// GridParams - параметры сетки запроса. Незаполненные поля берутся из конфигурации сервиса.
type GridParams struct {
	CellSizeKm   float64  `json:"cell_size_km" validate:"omitempty,min=0.1,max=100"`
	ReferenceLat *float64 `json:"reference_lat,omitempty" validate:"omitempty,gt=-90,lt=90"`
	ReferenceLon *float64 `json:"reference_lon,omitempty" validate:"omitempty,min=-180,max=180"`
}

// Point - координаты точки
type Point struct {
	Lat       float64  `json:"lat" validate:"min=-90,max=90"`
	Lon       float64  `json:"lon" validate:"min=-180,max=180"`
	Elevation *float64 `json:"ele,omitempty"`
}

// RouteInput - маршрут в запросе: массив точек либо encoded polyline (ровно одно из двух)
type RouteInput struct {
	ID       string  `json:"id" validate:"omitempty,max=64"`
	Name     string  `json:"name" validate:"omitempty,max=200"`
	Points   []Point `json:"points,omitempty" validate:"max=50000,dive"`
	Polyline string  `json:"polyline,omitempty" validate:"max=1000000"`
}

// ScoreRoutesRequest - оценка кандидатов относительно переданной активности.
// Сервис ничего не сохраняет.
type ScoreRoutesRequest struct {
	Grid       *GridParams  `json:"grid,omitempty"`
	Activities []RouteInput `json:"activities" validate:"max=1000,dive"`
	Routes     []RouteInput `json:"routes" validate:"required,min=1,max=200,dive"`
}

// HeatmapRequest - параметры выгрузки тепловой карты
type HeatmapRequest struct {
	Format string `query:"format" validate:"omitempty,oneof=json geojson kml"`
}
