package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aulahub/exam-go-api/internal/config"
	"github.com/aulahub/exam-go-api/internal/handler"
	"github.com/aulahub/exam-go-api/internal/middleware"
	"github.com/aulahub/exam-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssessmentHandler *handler.AssessmentHandler
	QuestionHandler   *handler.QuestionHandler
	AttemptHandler    *handler.AttemptHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application. Everything under
// /api/v1 except health and metrics requires a valid token plus a resolved
// acting role.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	authenticated := api.Group("", jwtMiddleware, middleware.ActingRole())

	if deps.AssessmentHandler != nil {
		rooms := authenticated.Group("/rooms")
		deps.AssessmentHandler.RegisterRooms(rooms)

		assessments := authenticated.Group("/assessments")
		deps.AssessmentHandler.Register(assessments)

		if deps.QuestionHandler != nil {
			deps.QuestionHandler.RegisterAssessments(assessments)
			questions := authenticated.Group("/questions", middleware.RequireRole("teacher"))
			deps.QuestionHandler.Register(questions)
		}

		if deps.AttemptHandler != nil {
			deps.AttemptHandler.RegisterAssessments(assessments)
			attempts := authenticated.Group("/attempts")
			deps.AttemptHandler.Register(attempts)
		}
	}
}
