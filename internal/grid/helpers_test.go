package grid_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/grid"
)

// Amsterdam reference used across tests
const (
	refLat = 52.3676
	refLon = 4.9041
)

func newConfig(t *testing.T) grid.Config {
	t.Helper()
	cfg, err := grid.NewConfig(5, refLat, refLon)
	require.NoError(t, err)
	return cfg
}

func newIndex(t *testing.T) *grid.Index {
	t.Helper()
	idx, err := grid.NewIndex(newConfig(t))
	require.NoError(t, err)
	return idx
}

func makeRoute(coords ...[2]float64) *domain.Route {
	points := make([]domain.RoutePoint, len(coords))
	for i, c := range coords {
		points[i] = domain.RoutePoint{Lat: c[0], Lon: c[1]}
	}
	return &domain.Route{ID: uuid.New(), Points: points}
}

func amsterdamRoute() *domain.Route {
	return makeRoute([2]float64{52.3676, 4.9041}, [2]float64{52.4, 4.95})
}

func londonRoute() *domain.Route {
	return makeRoute(
		[2]float64{51.5007, -0.1246},
		[2]float64{51.5079, -0.0877},
		[2]float64{51.5155, -0.0922},
		[2]float64{51.6, -0.2},
	)
}

func cellsAsMap(idx *grid.Index) map[grid.Cell]float64 {
	out := make(map[grid.Cell]float64)
	for c := range idx.ForEachNonEmpty() {
		out[c.Cell] = c.DistanceMeters
	}
	return out
}
