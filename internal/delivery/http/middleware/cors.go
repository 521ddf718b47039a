package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// DefaultAllowOrigins - origins фронтенда для локальной разработки
var DefaultAllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS - middleware для настройки Cross-Origin Resource Sharing
func CORS(origins ...string) fiber.Handler {
	if len(origins) == 0 {
		origins = DefaultAllowOrigins
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Content-Type,Accept,Authorization",
		ExposeHeaders:    "Content-Disposition",
		AllowCredentials: true,
	})
}
