package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bilgisen/newsdesk/internal/api"
	"github.com/bilgisen/newsdesk/internal/cache"
	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/bilgisen/newsdesk/internal/extract"
	"github.com/bilgisen/newsdesk/internal/feed"
	"github.com/bilgisen/newsdesk/internal/logger"
)

func main() {
	// Load and validate configuration
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: "stdout",
		Pretty: !cfg.IsProduction(),
	})

	log := logger.Get()
	log.Info().Msg("Starting application...")

	// The store is opened lazily on first use
	extractCache := cache.FromConfig(cfg)
	defer func() {
		log.Info().Msg("Flushing extraction cache...")
		if err := extractCache.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing extraction cache")
		}
	}()

	articles := extract.NewService(
		extract.NewReadabilityExtractor(cfg.ExtractTimeout, cfg.UserAgent),
		extractCache,
		cfg.ExtractTimeout,
	)
	handlers := api.NewHandlers(cfg, feed.NewProcessor(cfg), articles, extractCache)
	app := api.NewApp(cfg, handlers)

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
