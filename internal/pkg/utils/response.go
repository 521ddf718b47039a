package utils

import (
	stderrors "errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/route-freshness/internal/pkg/errors"
)

// SuccessResponse - конверт {"data": ..., "meta": ...}
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// ErrorResponse - конверт {"error": {"code", "message", "details"}}
type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// Meta - сведения о выборке: сколько маршрутов оценено и исключено,
// версия агрегата и время расчёта
type Meta struct {
	Total    int     `json:"total,omitempty"`
	Excluded int     `json:"excluded,omitempty"`
	Version  uint64  `json:"version,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(SuccessResponse{Data: data, Meta: meta})
}

// SendCreated - SendSuccess со статусом 201
func SendCreated(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse{Data: data})
}

// SendFile отдаёт выгрузку (GPX, GeoJSON, KML) без конверта.
// Непустой filename превращает ответ во вложение.
func SendFile(c *fiber.Ctx, contentType, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	if filename != "" {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	}
	return c.Send(data)
}

// SendError отвечает кодом AppError из цепочки ошибок, остальное - 500
func SendError(c *fiber.Ctx, err error) error {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.ErrInternalServer
	}
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{Error: appErr})
}
