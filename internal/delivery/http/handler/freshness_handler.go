package handler

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/delivery/http/middleware"
	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/pkg/utils"
	"github.com/route-freshness/internal/pkg/validator"
	"github.com/route-freshness/internal/usecase/dto"
)

// FreshnessService - операции над свежестью маршрутов, нужные HTTP-слою
type FreshnessService interface {
	ScoreRoutes(ctx context.Context, req dto.ScoreRoutesRequest) (*dto.FreshnessResponse, error)
	ScoreSavedRoutes(ctx context.Context, userID string) (*dto.FreshnessResponse, error)
	RefreshAggregate(ctx context.Context, userID string) (*dto.RefreshResponse, error)
	GetAggregateHeatmap(ctx context.Context, userID string) (*dto.HeatmapResponse, error)
	GetRouteHeatmap(ctx context.Context, userID string, routeID uuid.UUID) (*dto.RouteHeatmapResponse, error)
	ImportGPX(ctx context.Context, userID, name string, r io.Reader) (*dto.RouteSummary, error)
	ExportGPX(ctx context.Context, userID string, routeID uuid.UUID) ([]byte, *domain.Route, error)
}

// FreshnessHandler - обработчик для оценки свежести маршрутов
type FreshnessHandler struct {
	freshnessUC FreshnessService
	logger      *zap.Logger
}

// NewFreshnessHandler - создание нового FreshnessHandler
func NewFreshnessHandler(freshnessUC FreshnessService, logger *zap.Logger) *FreshnessHandler {
	return &FreshnessHandler{
		freshnessUC: freshnessUC,
		logger:      logger,
	}
}

// ScoreRoutes godoc
// @Summary Оценка свежести маршрутов
// @Description Строит агрегат по переданным активностям и ранжирует маршруты-кандидаты по перекрытию с ним. Меньшая оценка означает более свежий маршрут. Ничего не сохраняется.
// @Tags Freshness
// @Accept json
// @Produce json
// @Param request body dto.ScoreRoutesRequest true "Активности и маршруты-кандидаты"
// @Success 200 {object} utils.SuccessResponse{data=dto.FreshnessResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/freshness/score [post]
func (h *FreshnessHandler) ScoreRoutes(c *fiber.Ctx) error {
	start := time.Now()

	var req dto.ScoreRoutesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithMessage("Invalid request body"))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, validator.ToAppError(err))
	}

	result, err := h.freshnessUC.ScoreRoutes(c.UserContext(), req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Routes),
		Excluded: len(result.Excluded),
		TimeMSec: float64(time.Since(start).Microseconds()) / 1000,
	})
}

// GetMyRoutesFreshness godoc
// @Summary Свежесть сохранённых маршрутов
// @Description Ранжирует сохранённые маршруты пользователя относительно его активностей за последние дни
// @Tags Freshness
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dto.FreshnessResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/me/routes/freshness [get]
func (h *FreshnessHandler) GetMyRoutesFreshness(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	result, err := h.freshnessUC.ScoreSavedRoutes(c.UserContext(), userID)
	if err != nil {
		h.logger.Error("Failed to score saved routes", zap.String("user_id", userID), zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total:    len(result.Routes),
		Excluded: len(result.Excluded),
		Version:  result.Aggregate.Version,
	})
}

// RefreshAggregate godoc
// @Summary Пересборка агрегата активностей
// @Description Принудительно пересобирает агрегат пользователя, не дожидаясь истечения TTL
// @Tags Freshness
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dto.RefreshResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/me/aggregate/refresh [post]
func (h *FreshnessHandler) RefreshAggregate(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	result, err := h.freshnessUC.RefreshAggregate(c.UserContext(), userID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Version: result.Version})
}

// parseRouteID разбирает :id из пути
func parseRouteID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"id": "must be a UUID",
		})
	}
	return id, nil
}
