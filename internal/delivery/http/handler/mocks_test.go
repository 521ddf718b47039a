package handler_test

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/route-freshness/internal/delivery/http/middleware"
	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/usecase/dto"
)

// MockFreshnessService is a mock of FreshnessService
type MockFreshnessService struct {
	mock.Mock
}

func (m *MockFreshnessService) ScoreRoutes(ctx context.Context, req dto.ScoreRoutesRequest) (*dto.FreshnessResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.FreshnessResponse), args.Error(1)
}

func (m *MockFreshnessService) ScoreSavedRoutes(ctx context.Context, userID string) (*dto.FreshnessResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.FreshnessResponse), args.Error(1)
}

func (m *MockFreshnessService) RefreshAggregate(ctx context.Context, userID string) (*dto.RefreshResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RefreshResponse), args.Error(1)
}

func (m *MockFreshnessService) GetAggregateHeatmap(ctx context.Context, userID string) (*dto.HeatmapResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.HeatmapResponse), args.Error(1)
}

func (m *MockFreshnessService) GetRouteHeatmap(ctx context.Context, userID string, routeID uuid.UUID) (*dto.RouteHeatmapResponse, error) {
	args := m.Called(ctx, userID, routeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RouteHeatmapResponse), args.Error(1)
}

func (m *MockFreshnessService) ImportGPX(ctx context.Context, userID, name string, r io.Reader) (*dto.RouteSummary, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, userID, name, string(body))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RouteSummary), args.Error(1)
}

func (m *MockFreshnessService) ExportGPX(ctx context.Context, userID string, routeID uuid.UUID) ([]byte, *domain.Route, error) {
	args := m.Called(ctx, userID, routeID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*domain.Route), args.Error(2)
}

// MockStatsService is a mock of StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

func (m *MockStatsService) RefreshStatistics(ctx context.Context) (*domain.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

// asUser подменяет JWTAuth в тестах хендлеров
func asUser(userID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.UserIDKey, userID)
		return c.Next()
	}
}
