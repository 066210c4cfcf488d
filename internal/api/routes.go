package api

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/newsdesk/internal/middleware"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers) {
	app.Get("/api/news",
		middleware.ValidateQueryParams(func() interface{} { return new(NewsQuery) }),
		handlers.GetNews)

	// API group with versioning
	v1 := app.Group("/api/v1")
	v1.Get("/health", handlers.HealthCheck)
	v1.Get("/article",
		middleware.ValidateQueryParams(func() interface{} { return new(ArticleQuery) }),
		handlers.GetArticle)

	// marketing pages and the manifest are plain files
	if dir := handlers.config.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			app.Static("/", dir)
		}
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
