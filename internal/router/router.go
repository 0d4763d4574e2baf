package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/praxis-lms/grading-api/internal/config"
	"github.com/praxis-lms/grading-api/internal/handler"
	"github.com/praxis-lms/grading-api/internal/middleware"
	"github.com/praxis-lms/grading-api/internal/models"
	"github.com/praxis-lms/grading-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CIResultHandler   *handler.CIResultHandler
	TestCaseHandler   *handler.TestCaseHandler
	StatisticsHandler *handler.StatisticsHandler
	ComplaintHandler  *handler.ComplaintHandler
	ResultFeedHandler *handler.ResultFeedHandler
	JWTMiddleware     fiber.Handler
	CITokenMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	ciTokenMiddleware := deps.CITokenMiddleware
	if ciTokenMiddleware == nil {
		ciTokenMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// CI connector webhook, shared-secret protected.
	if deps.CIResultHandler != nil {
		ci := api.Group("/ci", ciTokenMiddleware)
		deps.CIResultHandler.Register(ci)
	}

	// Registry management and the live feed are staff-only.
	if deps.TestCaseHandler != nil {
		exercises := api.Group("/exercises", jwtMiddleware, middleware.RequireRole(models.RoleInstructor))
		deps.TestCaseHandler.Register(exercises)
	}
	if deps.ResultFeedHandler != nil {
		feed := api.Group("/exercises", jwtMiddleware, middleware.RequireRole(models.RoleTutor, models.RoleInstructor))
		deps.ResultFeedHandler.Register(feed)
	}

	if deps.StatisticsHandler != nil {
		courses := api.Group("/courses", jwtMiddleware, middleware.RequireRole(models.RoleTutor, models.RoleInstructor))
		deps.StatisticsHandler.Register(courses)
	}

	if deps.ComplaintHandler != nil {
		results := api.Group("/results", jwtMiddleware, middleware.RateLimit("complaints", 5, time.Minute))
		deps.ComplaintHandler.RegisterSubmit(results)

		complaints := api.Group("/complaints", jwtMiddleware, middleware.RequireRole(models.RoleTutor, models.RoleInstructor))
		deps.ComplaintHandler.RegisterRespond(complaints)
	}
}
