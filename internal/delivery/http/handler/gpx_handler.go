package handler

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/route-freshness/internal/delivery/http/middleware"
	"github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/pkg/utils"
)

const contentTypeGPX = "application/gpx+xml"

// GPXHandler - импорт и экспорт маршрутов в GPX
type GPXHandler struct {
	freshnessUC FreshnessService
	logger      *zap.Logger
}

// NewGPXHandler - создание нового GPXHandler
func NewGPXHandler(freshnessUC FreshnessService, logger *zap.Logger) *GPXHandler {
	return &GPXHandler{
		freshnessUC: freshnessUC,
		logger:      logger,
	}
}

// ImportGPX godoc
// @Summary Импорт маршрута из GPX
// @Description Загружает GPX-файл (треки, иначе маршруты) и сохраняет его как маршрут пользователя
// @Tags GPX
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "GPX файл"
// @Param name formData string false "Название маршрута (по умолчанию из GPX или имени файла)"
// @Success 201 {object} utils.SuccessResponse{data=dto.RouteSummary}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/me/routes/gpx [post]
func (h *GPXHandler) ImportGPX(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"file": "required",
		}))
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		return utils.SendError(c, errors.ErrInternalServer)
	}
	defer f.Close()

	userID := middleware.UserID(c)
	result, err := h.freshnessUC.ImportGPX(c.UserContext(), userID, name, f)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, result)
}

// ExportGPX godoc
// @Summary Экспорт маршрута в GPX
// @Description Отдаёт сохранённый маршрут пользователя файлом GPX 1.1
// @Tags GPX
// @Produce application/gpx+xml
// @Security BearerAuth
// @Param id path string true "ID маршрута"
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/me/routes/{id}/gpx [get]
func (h *GPXHandler) ExportGPX(c *fiber.Ctx) error {
	routeID, err := parseRouteID(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	userID := middleware.UserID(c)
	data, route, err := h.freshnessUC.ExportGPX(c.UserContext(), userID, routeID)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendFile(c, contentTypeGPX, route.ID.String()+".gpx", data)
}
