package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/delivery/http/handler"
	apperrors "github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/usecase/dto"
)

var sampleHeatmap = &dto.HeatmapResponse{
	CellSizeKm: 1,
	Cells: []dto.HeatCell{
		{X: 0, Y: 0, Meters: 800, Bounds: [4]float64{4.90, 52.36, 4.91, 52.37}},
		{X: 1, Y: 0, Meters: 200, Bounds: [4]float64{4.91, 52.36, 4.92, 52.37}},
	},
	Aggregate: dto.AggregateInfo{Version: 2, RouteCount: 1},
}

func newHeatmapApp(svc *MockFreshnessService) *fiber.App {
	h := handler.NewHeatmapHandler(svc, zap.NewNop())
	app := fiber.New()
	me := app.Group("/me", asUser("user-1"))
	me.Get("/heatmap", h.GetHeatmap)
	me.Get("/routes/:id/heatmap", h.GetRouteHeatmap)
	return app
}

func TestHeatmapHandler_GetHeatmap(t *testing.T) {
	cases := []struct {
		name        string
		query       string
		contentType string
		contains    string
	}{
		{"default json", "", fiber.MIMEApplicationJSON, `"cell_size_km":1`},
		{"geojson", "?format=geojson", "application/geo+json", `"FeatureCollection"`},
		{"kml", "?format=kml", "application/vnd.google-earth.kml+xml", "<Placemark>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &MockFreshnessService{}
			svc.On("GetAggregateHeatmap", mock.Anything, "user-1").Return(sampleHeatmap, nil).Once()

			resp, err := newHeatmapApp(svc).Test(httptest.NewRequest(http.MethodGet, "/me/heatmap"+tc.query, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), tc.contentType))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tc.contains)
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		svc := &MockFreshnessService{}
		resp, err := newHeatmapApp(svc).Test(httptest.NewRequest(http.MethodGet, "/me/heatmap?format=shp", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "UNSUPPORTED_FORMAT", decode(t, resp).Error.Code)
		svc.AssertNotCalled(t, "GetAggregateHeatmap", mock.Anything, mock.Anything)
	})
}

func TestHeatmapHandler_GetRouteHeatmap(t *testing.T) {
	routeID := uuid.New()

	t.Run("json with breakdown", func(t *testing.T) {
		svc := &MockFreshnessService{}
		svc.On("GetRouteHeatmap", mock.Anything, "user-1", routeID).Return(&dto.RouteHeatmapResponse{
			Route: dto.RouteScore{ID: routeID.String(), Name: "canal loop", Score: 0.5, Scored: true},
			Cells: sampleHeatmap.Cells,
		}, nil)

		resp, err := newHeatmapApp(svc).Test(httptest.NewRequest(http.MethodGet, "/me/routes/"+routeID.String()+"/heatmap", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var data dto.RouteHeatmapResponse
		require.NoError(t, json.Unmarshal(decode(t, resp).Data, &data))
		assert.Equal(t, "canal loop", data.Route.Name)
		assert.Len(t, data.Cells, 2)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := &MockFreshnessService{}
		resp, err := newHeatmapApp(svc).Test(httptest.NewRequest(http.MethodGet, "/me/routes/42/heatmap", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", decode(t, resp).Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &MockFreshnessService{}
		svc.On("GetRouteHeatmap", mock.Anything, "user-1", routeID).Return(nil, apperrors.ErrRouteNotFound)

		resp, err := newHeatmapApp(svc).Test(httptest.NewRequest(http.MethodGet, "/me/routes/"+routeID.String()+"/heatmap?format=geojson", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "ROUTE_NOT_FOUND", decode(t, resp).Error.Code)
	})
}
