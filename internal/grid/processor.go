package grid

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/pkg/geo"
)

// Process раскладывает маршрут по сегментам: длина каждого сегмента
// добавляется в ячейку его середины. Маршрут не изменяется.
// Маршрут из 0 или 1 точки ничего не добавляет.
func Process(route *domain.Route, idx *Index) {
	if route == nil || len(route.Points) < 2 {
		return
	}

	for i := 1; i < len(route.Points); i++ {
		prev := route.Points[i-1]
		cur := route.Points[i]

		var d float64
		if cur.DistanceFromPrev != nil {
			d = *cur.DistanceFromPrev
		} else {
			d = geo.Distance(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		}

		var mid geo.LatLon
		if cur.Midpoint != nil {
			mid = *cur.Midpoint
		} else {
			mid = geo.Midpoint(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		}

		idx.AddDistance(mid.Lat, mid.Lon, d)
	}
}

// ProcessAll очищает индекс и последовательно накапливает все маршруты
func ProcessAll(routes []*domain.Route, idx *Index) {
	idx.Reset()
	for _, r := range routes {
		Process(r, idx)
	}
}

// ProcessAllParallel строит индекс параллельно: маршруты делятся на части,
// каждая часть накапливается в собственный индекс, затем части сливаются по порядку.
// workers <= 0 означает runtime.NumCPU().
func ProcessAllParallel(ctx context.Context, cfg Config, routes []*domain.Route, workers int) (*Index, error) {
	result, err := NewIndex(cfg)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return result, nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(routes) {
		workers = len(routes)
	}

	chunk := (len(routes) + workers - 1) / workers
	partials := make([]*Index, 0, workers)
	for start := 0; start < len(routes); start += chunk {
		part, err := NewIndex(cfg)
		if err != nil {
			return nil, err
		}
		partials = append(partials, part)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, part := range partials {
		start := i * chunk
		end := min(start+chunk, len(routes))
		g.Go(func() error {
			for _, r := range routes[start:end] {
				if err := gctx.Err(); err != nil {
					return err
				}
				Process(r, part)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, part := range partials {
		if err := result.Merge(part); err != nil {
			return nil, err
		}
	}
	return result, nil
}
