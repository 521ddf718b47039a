package usecase_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/grid"
)

const (
	refLat = 52.3676
	refLon = 4.9041
)

func testGrid(t *testing.T) grid.Config {
	t.Helper()
	cfg, err := grid.NewConfig(1, refLat, refLon)
	require.NoError(t, err)
	return cfg
}

func makeRoute(name string, coords ...[2]float64) *domain.Route {
	points := make([]domain.RoutePoint, len(coords))
	for i, c := range coords {
		points[i] = domain.RoutePoint{Lat: c[0], Lon: c[1]}
	}
	return &domain.Route{ID: uuid.New(), UserID: "user-1", Name: name, Points: points}
}

func amsterdamRoute() *domain.Route {
	return makeRoute("amsterdam", [2]float64{52.3676, 4.9041}, [2]float64{52.4, 4.95})
}

func londonRoute() *domain.Route {
	return makeRoute("london",
		[2]float64{51.5007, -0.1246},
		[2]float64{51.5079, -0.0877},
		[2]float64{51.5155, -0.0922},
	)
}
