package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/praxis-lms/grading-api/internal/config"
	"github.com/praxis-lms/grading-api/internal/utils"
)

// HealthCheck reports service liveness and basic identity.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SendSuccess(c, "ok", fiber.Map{
			"app": cfg.AppName,
			"env": cfg.AppEnv,
		})
	}
}
