package api

import (
	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/autopost/configs"
	"github.com/maheshrc27/autopost/internal/api/handlers"
	"github.com/maheshrc27/autopost/internal/api/middleware"
)

// Register mounts the health check and the scheduler control endpoints.
func Register(app *fiber.App, cfg config.Config, scheduler handlers.Scheduler) {
	app.Get("/health", handlers.Health)

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	sched := handlers.NewSchedulerHandler(scheduler)
	api.Post("/scheduler/run", sched.Run)
	api.Post("/scheduler/start", sched.Start)
	api.Post("/scheduler/stop", sched.Stop)
	api.Get("/scheduler/status", sched.Status)
}
