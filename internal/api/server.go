package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/bilgisen/newsdesk/internal/middleware"
)

// NewApp builds the fiber app with global middleware and all routes.
func NewApp(cfg *config.Config, handlers *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "newsdesk",
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	SetupRoutes(app, handlers)
	return app
}
