package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/autopost/internal/models"
)

// GetPlatform reads the optional platform query parameter. An empty value
// means every platform.
func GetPlatform(c *fiber.Ctx) (models.Platform, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Query("platform")))
	if raw == "" {
		return "", nil
	}
	return models.ParsePlatform(raw)
}

func GetOperator(c *fiber.Ctx) string {
	operator, _ := c.Locals("operator").(string)
	return operator
}
