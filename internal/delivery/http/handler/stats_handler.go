package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/domain"
	"github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/pkg/utils"
)

// StatsService - источник статистики сервиса
type StatsService interface {
	GetStatistics(ctx context.Context) (*domain.Statistics, error)
	RefreshStatistics(ctx context.Context) (*domain.Statistics, error)
}

// StatsHandler обрабатывает запросы для статистики
type StatsHandler struct {
	statsUC StatsService
	logger  *zap.Logger
}

// NewStatsHandler создает новый экземпляр StatsHandler
func NewStatsHandler(statsUC StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsUC: statsUC,
		logger:  logger,
	}
}

// GetStatistics godoc
// @Summary Get service statistics
// @Description Возвращает количество маршрутов, активностей и пользователей
// @Tags Statistics
// @Accept json
// @Produce json
// @Param refresh query bool false "Пересчитать в обход кэша"
// @Success 200 {object} utils.SuccessResponse{data=domain.Statistics}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	refresh := c.QueryBool("refresh")
	h.logger.Debug("Handling get statistics request", zap.Bool("refresh", refresh))

	get := h.statsUC.GetStatistics
	if refresh {
		get = h.statsUC.RefreshStatistics
	}

	stats, err := get(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to get statistics", zap.Error(err))
		return utils.SendError(c, errors.ErrDatabaseError)
	}

	return utils.SendSuccess(c, stats, nil)
}
