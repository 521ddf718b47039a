package grid_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/grid"
	"github.com/route-freshness/internal/pkg/geo"
)

// A single short segment near the reference lands in exactly one cell
func TestProcess_SingleSegmentSingleCell(t *testing.T) {
	idx := newIndex(t)

	grid.Process(amsterdamRoute(), idx)

	require.Equal(t, 1, idx.GetCellCount())
	want := geo.Distance(52.3676, 4.9041, 52.4, 4.95)
	assert.InDelta(t, want, idx.GetTotalDistance(), 1e-6)
	assert.InDelta(t, want, idx.GetDistance(0, 0), 1e-6)
}

func TestProcess_DegenerateRoutes(t *testing.T) {
	idx := newIndex(t)

	grid.Process(nil, idx)
	grid.Process(makeRoute(), idx)
	grid.Process(makeRoute([2]float64{refLat, refLon}), idx)

	assert.Equal(t, 0, idx.GetCellCount())
}

func TestProcess_RepeatedPointAddsNothing(t *testing.T) {
	idx := newIndex(t)

	grid.Process(makeRoute([2]float64{refLat, refLon}, [2]float64{refLat, refLon}), idx)

	assert.Equal(t, 0, idx.GetCellCount())
}

func TestProcess_UsesPrecomputedValues(t *testing.T) {
	idx := newIndex(t)
	d := 1234.0
	mid := geo.LatLon{Lat: refLat + 0.5, Lon: refLon}

	route := &domain.Route{Points: []domain.RoutePoint{
		{Lat: refLat, Lon: refLon},
		{Lat: refLat + 0.001, Lon: refLon, DistanceFromPrev: &d, Midpoint: &mid},
	}}
	grid.Process(route, idx)

	cell := idx.Config().CellOf(mid.Lat, mid.Lon)
	assert.InDelta(t, 1234, idx.GetDistance(cell.X, cell.Y), 1e-9)
}

func TestProcess_MatchesComputeDerived(t *testing.T) {
	raw := londonRoute()
	derived := londonRoute()
	derived.ComputeDerived()

	a := newIndex(t)
	b := newIndex(t)
	grid.Process(raw, a)
	grid.Process(derived, b)

	assert.InDelta(t, derived.TotalDistance, a.GetTotalDistance(), 1e-6)
	assert.Equal(t, cellsAsMap(a), cellsAsMap(b))
}

func TestProcessAll_ResetsFirst(t *testing.T) {
	idx := newIndex(t)
	idx.AddDistance(refLat+1, refLon+1, 999)

	grid.ProcessAll([]*domain.Route{amsterdamRoute()}, idx)

	assert.Equal(t, 1, idx.GetCellCount())
	assert.Zero(t, idx.GetDistance(idx.Config().CellOf(refLat+1, refLon+1).X, idx.Config().CellOf(refLat+1, refLon+1).Y))
}

func TestProcessAll_Commutative(t *testing.T) {
	r1, r2 := amsterdamRoute(), londonRoute()

	ab := newIndex(t)
	ba := newIndex(t)
	grid.ProcessAll([]*domain.Route{r1, r2}, ab)
	grid.ProcessAll([]*domain.Route{r2, r1}, ba)

	abCells := cellsAsMap(ab)
	baCells := cellsAsMap(ba)
	require.Len(t, baCells, len(abCells))
	for cell, d := range abCells {
		assert.InDelta(t, d, baCells[cell], 1e-6, "cell %s", cell)
	}
}

func TestProcessAllParallel_MatchesSequential(t *testing.T) {
	cfg := newConfig(t)
	routes := []*domain.Route{amsterdamRoute(), londonRoute(), amsterdamRoute(), londonRoute(), amsterdamRoute()}

	seq, err := grid.BuildAggregate(cfg, routes)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2, 3, 16} {
		par, err := grid.ProcessAllParallel(context.Background(), cfg, routes, workers)
		require.NoError(t, err)

		assert.Equal(t, seq.GetCellCount(), par.GetCellCount(), "workers=%d", workers)
		assert.InDelta(t, seq.GetTotalDistance(), par.GetTotalDistance(), 1e-6, "workers=%d", workers)
		for c := range seq.ForEachNonEmpty() {
			assert.InDelta(t, c.DistanceMeters, par.GetDistance(c.Cell.X, c.Cell.Y), 1e-6)
		}
	}
}

func TestProcessAllParallel_Empty(t *testing.T) {
	idx, err := grid.ProcessAllParallel(context.Background(), newConfig(t), nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.GetCellCount())
}

func TestProcessAllParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := grid.ProcessAllParallel(ctx, newConfig(t), []*domain.Route{amsterdamRoute()}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

// Disjoint routes produce an aggregate whose cell count is the sum of their own counts
func TestBuildAggregate_DisjointRoutes(t *testing.T) {
	cfg := newConfig(t)
	r1, r2 := amsterdamRoute(), londonRoute()

	i1, err := grid.BuildRouteIndex(cfg, r1)
	require.NoError(t, err)
	i2, err := grid.BuildRouteIndex(cfg, r2)
	require.NoError(t, err)

	agg, err := grid.BuildAggregate(cfg, []*domain.Route{r1, r2})
	require.NoError(t, err)

	assert.Equal(t, i1.GetCellCount()+i2.GetCellCount(), agg.GetCellCount())
	assert.InDelta(t, i1.GetTotalDistance()+i2.GetTotalDistance(), agg.GetTotalDistance(), 1e-6)
}

func TestBuildAggregate_InvalidConfig(t *testing.T) {
	_, err := grid.BuildAggregate(grid.Config{}, nil)
	assert.ErrorIs(t, err, grid.ErrInvalidConfig)
}
