// Package grid реализует разреженную сетку плотности пройденной дистанции
// и оценку перекрытия маршрута с агрегированной активностью.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/route-freshness/internal/pkg/geo"
)

// KmPerDegree - приближение 1° ≈ 111 км для широты (и для долготы на экваторе)
const KmPerDegree = 111.0

var (
	// ErrInvalidConfig возвращается для нулевого/отрицательного размера ячейки или некорректной опорной точки
	ErrInvalidConfig = errors.New("grid: invalid config")

	// ErrIncompatibleGrids возвращается при сравнении индексов с разной конфигурацией
	ErrIncompatibleGrids = errors.New("grid: incompatible grid configs")
)

// Config - параметры сетки. Создаётся только через NewConfig.
type Config struct {
	CellSizeKm float64    `json:"cell_size_km"`
	Reference  geo.LatLon `json:"reference"`

	latStep float64
	lonStep float64
}

// NewConfig проверяет параметры и предвычисляет шаг сетки в градусах.
// Долготный шаг растягивается на 1/cos(referenceLat), поэтому опорная широта
// не может быть полюсом.
func NewConfig(cellSizeKm, refLat, refLon float64) (Config, error) {
	if !(cellSizeKm > 0) || math.IsInf(cellSizeKm, 0) {
		return Config{}, fmt.Errorf("%w: cell size must be positive, got %v", ErrInvalidConfig, cellSizeKm)
	}
	if !isFinite(refLat) || !isFinite(refLon) {
		return Config{}, fmt.Errorf("%w: reference point must be finite", ErrInvalidConfig)
	}
	if refLat <= -90 || refLat >= 90 {
		return Config{}, fmt.Errorf("%w: reference latitude %v out of range (-90, 90)", ErrInvalidConfig, refLat)
	}
	if refLon < -180 || refLon > 180 {
		return Config{}, fmt.Errorf("%w: reference longitude %v out of range [-180, 180]", ErrInvalidConfig, refLon)
	}

	latStep := cellSizeKm / KmPerDegree
	lonStep := cellSizeKm / (KmPerDegree * math.Cos(refLat*math.Pi/180))

	return Config{
		CellSizeKm: cellSizeKm,
		Reference:  geo.LatLon{Lat: refLat, Lon: refLon},
		latStep:    latStep,
		lonStep:    lonStep,
	}, nil
}

// Valid сообщает, был ли конфиг получен из NewConfig
func (c Config) Valid() bool {
	return c.latStep > 0 && c.lonStep > 0
}

// Equal сравнивает параметры сетки
func (c Config) Equal(other Config) bool {
	return c.CellSizeKm == other.CellSizeKm && c.Reference == other.Reference
}

// LatStep - высота ячейки в градусах широты
func (c Config) LatStep() float64 { return c.latStep }

// LonStep - ширина ячейки в градусах долготы
func (c Config) LonStep() float64 { return c.lonStep }

// Cell - координаты ячейки. X идёт по долготе, Y по широте; обе оси не ограничены и могут быть отрицательными.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("%d:%d", c.X, c.Y)
}

// CellOf отображает точку в ячейку: floor((coord - ref) / step).
func (c Config) CellOf(lat, lon float64) Cell {
	return Cell{
		X: int(math.Floor((lon - c.Reference.Lon) / c.lonStep)),
		Y: int(math.Floor((lat - c.Reference.Lat) / c.latStep)),
	}
}

// CellBounds - обратное отображение ячейки в прямоугольник lon/lat
func (c Config) CellBounds(cell Cell) orb.Bound {
	minLon := c.Reference.Lon + float64(cell.X)*c.lonStep
	minLat := c.Reference.Lat + float64(cell.Y)*c.latStep
	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{minLon + c.lonStep, minLat + c.latStep},
	}
}

// CellCenter - центр ячейки
func (c Config) CellCenter(cell Cell) geo.LatLon {
	center := c.CellBounds(cell).Center()
	return geo.LatLon{Lat: center.Lat(), Lon: center.Lon()}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
