package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/praxis-lms/grading-api/internal/utils"
)

// CIToken guards the build-result webhook with the shared CI connector secret.
func CIToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := strings.TrimSpace(c.Get("X-CI-Token"))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid ci token")
		}
		return c.Next()
	}
}
