package grid

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// CellDistance - накопленная дистанция в одной ячейке
type CellDistance struct {
	Cell           Cell    `json:"cell"`
	DistanceMeters float64 `json:"distance_m"`
}

// Stats - сводка по индексу
type Stats struct {
	CellCount       int     `json:"cell_count"`
	TotalDistance   float64 `json:"total_distance_m"`
	MaxDistance     float64 `json:"max_distance_m"`
	AverageDistance float64 `json:"average_distance_m"`
}

// Index - разреженная карта "ячейка -> метры". В карте хранятся только ячейки
// с положительной дистанцией.
//
// Index не потокобезопасен для записи. После построения его можно читать
// из нескольких горутин, если никто больше не пишет.
type Index struct {
	cfg   Config
	cells map[Cell]float64
	total float64
}

// NewIndex создаёт пустой индекс
func NewIndex(cfg Config) (*Index, error) {
	if !cfg.Valid() {
		return nil, fmt.Errorf("%w: config must be created with NewConfig", ErrInvalidConfig)
	}
	return &Index{
		cfg:   cfg,
		cells: make(map[Cell]float64),
	}, nil
}

// Restore собирает индекс из ранее выгруженных ячеек (например, из кеша).
// Ячейки с неположительной дистанцией пропускаются, повторы суммируются.
func Restore(cfg Config, cells []CellDistance) (*Index, error) {
	idx, err := NewIndex(cfg)
	if err != nil {
		return nil, err
	}
	for _, c := range cells {
		idx.addToCell(c.Cell, c.DistanceMeters)
	}
	return idx, nil
}

// Config возвращает параметры сетки
func (idx *Index) Config() Config {
	return idx.cfg
}

// AddDistance добавляет метры в ячейку, содержащую точку.
// Неположительные значения и неконечные координаты игнорируются.
func (idx *Index) AddDistance(lat, lon, meters float64) {
	if !isFinite(lat) || !isFinite(lon) {
		return
	}
	idx.addToCell(idx.cfg.CellOf(lat, lon), meters)
}

func (idx *Index) addToCell(cell Cell, meters float64) {
	if !(meters > 0) || !isFinite(meters) {
		return
	}
	idx.cells[cell] += meters
	idx.total += meters
}

// GetDistance возвращает дистанцию в ячейке, 0 для неизвестной
func (idx *Index) GetDistance(x, y int) float64 {
	return idx.cells[Cell{X: x, Y: y}]
}

// ForEachNonEmpty - ленивый обход непустых ячеек. Порядок не определён,
// последовательность можно обходить повторно.
func (idx *Index) ForEachNonEmpty() iter.Seq[CellDistance] {
	return func(yield func(CellDistance) bool) {
		for cell, d := range idx.cells {
			if !yield(CellDistance{Cell: cell, DistanceMeters: d}) {
				return
			}
		}
	}
}

// GetAllCells возвращает снимок всех непустых ячеек, отсортированный по (Y, X)
func (idx *Index) GetAllCells() []CellDistance {
	out := make([]CellDistance, 0, len(idx.cells))
	for c := range idx.ForEachNonEmpty() {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b CellDistance) int {
		return compareCells(a.Cell, b.Cell)
	})
	return out
}

// compareCells - порядок по строкам: сначала Y, затем X
func compareCells(a, b Cell) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}

// GetCellCount возвращает число непустых ячеек
func (idx *Index) GetCellCount() int {
	return len(idx.cells)
}

// GetTotalDistance возвращает суммарную дистанцию по всем ячейкам, м
func (idx *Index) GetTotalDistance() float64 {
	return idx.total
}

// GetMaxDistance возвращает 0 для пустого индекса
func (idx *Index) GetMaxDistance() float64 {
	var m float64
	for _, d := range idx.cells {
		if d > m {
			m = d
		}
	}
	return m
}

// GetAverageDistance - среднее по непустым ячейкам, 0 для пустого индекса
func (idx *Index) GetAverageDistance() float64 {
	if len(idx.cells) == 0 {
		return 0
	}
	return idx.total / float64(len(idx.cells))
}

// Stats собирает сводку одним вызовом
func (idx *Index) Stats() Stats {
	return Stats{
		CellCount:       idx.GetCellCount(),
		TotalDistance:   idx.GetTotalDistance(),
		MaxDistance:     idx.GetMaxDistance(),
		AverageDistance: idx.GetAverageDistance(),
	}
}

// Reset очищает индекс, конфигурация сохраняется
func (idx *Index) Reset() {
	clear(idx.cells)
	idx.total = 0
}

// Merge прибавляет ячейки other к индексу. Конфигурации должны совпадать.
func (idx *Index) Merge(other *Index) error {
	if !idx.cfg.Equal(other.cfg) {
		return ErrIncompatibleGrids
	}
	for cell, d := range other.cells {
		idx.addToCell(cell, d)
	}
	return nil
}
