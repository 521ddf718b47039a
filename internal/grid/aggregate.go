package grid

import (
	"context"

	"github.com/route-freshness/internal/domain"
)

// BuildAggregate сворачивает набор маршрутов (обычно недавнюю активность)
// в одну карту плотности. Результат считается замороженным.
func BuildAggregate(cfg Config, routes []*domain.Route) (*Index, error) {
	idx, err := NewIndex(cfg)
	if err != nil {
		return nil, err
	}
	ProcessAll(routes, idx)
	return idx, nil
}

// BuildAggregateParallel - то же, что BuildAggregate, но через ProcessAllParallel
func BuildAggregateParallel(ctx context.Context, cfg Config, routes []*domain.Route, workers int) (*Index, error) {
	return ProcessAllParallel(ctx, cfg, routes, workers)
}

// BuildRouteIndex строит индекс одного маршрута для оценки
func BuildRouteIndex(cfg Config, route *domain.Route) (*Index, error) {
	idx, err := NewIndex(cfg)
	if err != nil {
		return nil, err
	}
	Process(route, idx)
	return idx, nil
}
