package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/route-freshness/internal/pkg/errors"
	"github.com/route-freshness/internal/pkg/utils"
)

// UserIDKey - ключ c.Locals, под которым лежит идентификатор пользователя
const UserIDKey = "user_id"

// JWTAuth проверяет Bearer-токен (HS256) и кладёт subject в c.Locals(UserIDKey).
// С пустым секретом отклоняет любой запрос: HS256 с пустым ключом подделывается.
func JWTAuth(secret string) fiber.Handler {
	key := []byte(secret)
	if len(key) == 0 {
		return func(c *fiber.Ctx) error {
			return utils.SendError(c, errors.ErrUnauthorized)
		}
	}

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return utils.SendError(c, errors.ErrUnauthorized)
		}

		var claims jwt.RegisteredClaims
		token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims,
			func(*jwt.Token) (interface{}, error) { return key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			return utils.SendError(c, errors.ErrUnauthorized)
		}

		if strings.TrimSpace(claims.Subject) == "" {
			return utils.SendError(c, errors.ErrUnauthorized.WithMessage("Token has no subject"))
		}

		c.Locals(UserIDKey, claims.Subject)
		return c.Next()
	}
}

// UserID достаёт идентификатор пользователя, положенный JWTAuth
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
