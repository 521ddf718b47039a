package grid

import (
	"fmt"
	"slices"
	"strings"
)

// ZeroCoverageScore - значение Score для маршрута с нулевой дистанцией
const ZeroCoverageScore = 1.0

// Score - взвешенная сумма плотности агрегата по ячейкам маршрута:
//
//	Σ (routeCell / routeTotal) × aggregate[cell]
//
// Для маршрута без пройденной дистанции возвращает ZeroCoverageScore.
// Значение сырое, нормализация - задача слоя представления.
func Score(route, aggregate *Index) float64 {
	total := route.GetTotalDistance()
	if total == 0 {
		return ZeroCoverageScore
	}

	var score float64
	for c := range route.ForEachNonEmpty() {
		score += (c.DistanceMeters / total) * aggregate.GetDistance(c.Cell.X, c.Cell.Y)
	}
	return score
}

// ZeroCoveragePolicy определяет, как оценивать маршрут без дистанции
type ZeroCoveragePolicy int

const (
	// ZeroCoverageUnscored помечает маршрут как неоценённый, он не участвует в ранжировании
	ZeroCoverageUnscored ZeroCoveragePolicy = iota
	// ZeroCoverageMaxOverlap присваивает ZeroCoverageScore
	ZeroCoverageMaxOverlap
)

// ParseZeroCoveragePolicy разбирает значение из конфигурации: "unscored" или "max_overlap"
func ParseZeroCoveragePolicy(s string) (ZeroCoveragePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unscored":
		return ZeroCoverageUnscored, nil
	case "max_overlap":
		return ZeroCoverageMaxOverlap, nil
	default:
		return 0, fmt.Errorf("unknown zero coverage policy %q", s)
	}
}

func (p ZeroCoveragePolicy) String() string {
	if p == ZeroCoverageMaxOverlap {
		return "max_overlap"
	}
	return "unscored"
}

// Result - результат оценки одного маршрута
type Result struct {
	Score         float64 `json:"score"`
	Scored        bool    `json:"scored"`
	RouteDistance float64 `json:"route_distance_m"`
	CellCount     int     `json:"cell_count"`
}

// Scorer оценивает маршруты с явной политикой для нулевой дистанции
type Scorer struct {
	policy ZeroCoveragePolicy
}

// NewScorer создает Scorer с заданной политикой нулевого покрытия
func NewScorer(policy ZeroCoveragePolicy) *Scorer {
	return &Scorer{policy: policy}
}

// Policy возвращает политику нулевого покрытия
func (s *Scorer) Policy() ZeroCoveragePolicy {
	return s.policy
}

// Evaluate оценивает маршрут относительно агрегата. Индексы должны быть
// построены на одной сетке, иначе возвращается ErrIncompatibleGrids.
func (s *Scorer) Evaluate(route, aggregate *Index) (Result, error) {
	if !route.Config().Equal(aggregate.Config()) {
		return Result{}, ErrIncompatibleGrids
	}

	res := Result{
		RouteDistance: route.GetTotalDistance(),
		CellCount:     route.GetCellCount(),
	}

	if res.RouteDistance == 0 {
		if s.policy == ZeroCoverageMaxOverlap {
			res.Score = ZeroCoverageScore
			res.Scored = true
		}
		return res, nil
	}

	res.Score = Score(route, aggregate)
	res.Scored = true
	return res, nil
}

// CellOverlap - вклад одной ячейки маршрута в итоговую оценку
type CellOverlap struct {
	Cell              Cell    `json:"cell"`
	RouteDistance     float64 `json:"route_distance_m"`
	Share             float64 `json:"share"`
	AggregateDistance float64 `json:"aggregate_distance_m"`
	Contribution      float64 `json:"contribution"`
}

// Breakdown раскладывает Score по ячейкам, по убыванию вклада.
// Сумма Contribution равна Score для маршрута с ненулевой дистанцией.
func Breakdown(route, aggregate *Index) []CellOverlap {
	total := route.GetTotalDistance()
	if total == 0 {
		return nil
	}

	out := make([]CellOverlap, 0, route.GetCellCount())
	for c := range route.ForEachNonEmpty() {
		share := c.DistanceMeters / total
		agg := aggregate.GetDistance(c.Cell.X, c.Cell.Y)
		out = append(out, CellOverlap{
			Cell:              c.Cell,
			RouteDistance:     c.DistanceMeters,
			Share:             share,
			AggregateDistance: agg,
			Contribution:      share * agg,
		})
	}

	slices.SortFunc(out, func(a, b CellOverlap) int {
		switch {
		case a.Contribution > b.Contribution:
			return -1
		case a.Contribution < b.Contribution:
			return 1
		default:
			return compareCells(a.Cell, b.Cell)
		}
	})
	return out
}

// Normalize линейно переводит оценки в [0, 1] по min/max.
// При нулевом размахе все значения равны 0.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := slices.Min(scores), slices.Max(scores)
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / span
	}
	return out
}
