package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/delivery/http/middleware"
	"github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/pkg/utils"
	"github.com/route-freshness/internal/pkg/validator"
	"github.com/route-freshness/internal/usecase"
	"github.com/route-freshness/internal/usecase/dto"
)

const (
	contentTypeGeoJSON = "application/geo+json"
	contentTypeKML     = "application/vnd.google-earth.kml+xml"
)

// HeatmapHandler - обработчик тепловых карт
type HeatmapHandler struct {
	freshnessUC FreshnessService
	logger      *zap.Logger
}

// NewHeatmapHandler - создание нового HeatmapHandler
func NewHeatmapHandler(freshnessUC FreshnessService, logger *zap.Logger) *HeatmapHandler {
	return &HeatmapHandler{
		freshnessUC: freshnessUC,
		logger:      logger,
	}
}

// GetHeatmap godoc
// @Summary Тепловая карта активностей
// @Description Возвращает непустые ячейки агрегата пользователя с пройденными метрами
// @Tags Heatmap
// @Produce json
// @Produce application/geo+json
// @Produce application/vnd.google-earth.kml+xml
// @Security BearerAuth
// @Param format query string false "Формат ответа (json, geojson, kml)" default(json)
// @Success 200 {object} utils.SuccessResponse{data=dto.HeatmapResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/me/heatmap [get]
func (h *HeatmapHandler) GetHeatmap(c *fiber.Ctx) error {
	format, err := heatmapFormat(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	userID := middleware.UserID(c)
	result, err := h.freshnessUC.GetAggregateHeatmap(c.UserContext(), userID)
	if err != nil {
		return utils.SendError(c, err)
	}

	if format == usecase.HeatmapFormatJSON {
		return utils.SendSuccess(c, result, &utils.Meta{
			Total:   len(result.Cells),
			Version: result.Aggregate.Version,
		})
	}
	return h.sendCells(c, format, "Activity heatmap", result.Cells)
}

// GetRouteHeatmap godoc
// @Summary Тепловая карта маршрута
// @Description Возвращает ячейки сохранённого маршрута и вклад каждой из них в оценку перекрытия
// @Tags Heatmap
// @Produce json
// @Produce application/geo+json
// @Produce application/vnd.google-earth.kml+xml
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Param format query string false "Формат ответа (json, geojson, kml)" default(json)
// @Success 200 {object} utils.SuccessResponse{data=dto.RouteHeatmapResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/me/routes/{id}/heatmap [get]
func (h *HeatmapHandler) GetRouteHeatmap(c *fiber.Ctx) error {
	routeID, err := parseRouteID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	format, err := heatmapFormat(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	userID := middleware.UserID(c)
	result, err := h.freshnessUC.GetRouteHeatmap(c.UserContext(), userID, routeID)
	if err != nil {
		return utils.SendError(c, err)
	}

	if format == usecase.HeatmapFormatJSON {
		return utils.SendSuccess(c, result, &utils.Meta{
			Total:   len(result.Cells),
			Version: result.Aggregate.Version,
		})
	}
	return h.sendCells(c, format, fmt.Sprintf("Route %s", result.Route.Name), result.Cells)
}

func (h *HeatmapHandler) sendCells(c *fiber.Ctx, format, name string, cells []dto.HeatCell) error {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch format {
	case usecase.HeatmapFormatGeoJSON:
		data, err = usecase.ExportGeoJSON(cells)
		contentType = contentTypeGeoJSON
	case usecase.HeatmapFormatKML:
		data, err = usecase.ExportKML(name, cells)
		contentType = contentTypeKML
	default:
		return utils.SendError(c, errors.ErrUnsupportedFormat)
	}

	if err != nil {
		h.logger.Error("Failed to export heatmap", zap.String("format", format), zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}

	return utils.SendFile(c, contentType, "", data)
}

func heatmapFormat(c *fiber.Ctx) (string, error) {
	var req dto.HeatmapRequest
	if err := c.QueryParser(&req); err != nil {
		return "", errors.ErrInvalidRequest.WithMessage("Invalid query parameters")
	}

	if err := validator.Validate(&req); err != nil {
		return "", errors.ErrUnsupportedFormat.WithDetails(map[string]interface{}{
			"format":    req.Format,
			"supported": []string{usecase.HeatmapFormatJSON, usecase.HeatmapFormatGeoJSON, usecase.HeatmapFormatKML},
		})
	}

	if req.Format == "" {
		return usecase.HeatmapFormatJSON, nil
	}
	return req.Format, nil
}
