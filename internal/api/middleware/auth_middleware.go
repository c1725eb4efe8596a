package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware accepts either the raw cron secret or an operator JWT signed
// with it as a bearer token.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing bearer token",
			})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.CronSecret)) == 1 {
			c.Locals("operator", "cron")
			return c.Next()
		}

		claims, err := utils.ValidateOperatorToken(m.cfg.CronSecret, token)
		if err != nil {
			slog.Info("Token validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("operator", claims.Subject)
		return c.Next()
	}
}
