package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clhstestify/online-judge/internal/config"
	"github.com/clhstestify/online-judge/internal/handler"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExamHandler      *handler.ExamHandler
	PaperHandler     *handler.PaperHandler
	ViolationHandler *handler.ViolationHandler
	ResolverHandler  *handler.ResolverHandler
	ContestHandler   *handler.ContestHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Contestant-facing exam and violation endpoints share the
	// participations group.
	if deps.ExamHandler != nil || deps.ViolationHandler != nil {
		participations := api.Group("/participations", jwtMiddleware)
		if deps.ExamHandler != nil {
			deps.ExamHandler.Register(participations)
		}
		if deps.ViolationHandler != nil {
			deps.ViolationHandler.Register(participations)
		}
	}

	// Staff endpoints.
	if deps.PaperHandler != nil {
		papers := api.Group("/papers", jwtMiddleware)
		deps.PaperHandler.Register(papers)
	}
	if deps.ContestHandler != nil {
		contests := api.Group("/contests", jwtMiddleware)
		deps.ContestHandler.Register(contests)
	}

	// The resolver read model needs an authenticated viewer; scoreboard
	// visibility is additionally enforced per contest.
	if deps.ResolverHandler != nil {
		resolver := api.Group("/resolver", jwtMiddleware)
		deps.ResolverHandler.Register(resolver)
	}
}
