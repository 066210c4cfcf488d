package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/newsdesk/internal/cache"
	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/bilgisen/newsdesk/internal/extract"
	"github.com/bilgisen/newsdesk/internal/feed"
	"github.com/bilgisen/newsdesk/internal/logger"
	"github.com/bilgisen/newsdesk/internal/middleware"
	"github.com/bilgisen/newsdesk/internal/models"
)

const version = "1.0.0"

// NewsQuery is the query string of GET /api/news
type NewsQuery struct {
	Q string `query:"q" validate:"max=200"`
}

// ArticleQuery is the query string of GET /api/v1/article
type ArticleQuery struct {
	URL string `query:"url" validate:"required,http_url,max=2048"`
}

type Handlers struct {
	config    *config.Config
	processor *feed.Processor
	articles  *extract.Service
	cache     *cache.ExtractCache
}

func NewHandlers(cfg *config.Config, processor *feed.Processor, articles *extract.Service, extractCache *cache.ExtractCache) *Handlers {
	return &Handlers{
		config:    cfg,
		processor: processor,
		articles:  articles,
		cache:     extractCache,
	}
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	cacheState := "disabled"
	if h.cache.Enabled() {
		cacheState = "enabled"
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
		"time":    time.Now().Format(time.RFC3339),
		"cache":   cacheState,
	})
}

// GetNews handles GET /api/news. The response always carries an items list,
// empty when the feed could not be fetched.
func (h *Handlers) GetNews(c *fiber.Ctx) error {
	params := c.Locals(middleware.QueryParamsKey).(*NewsQuery)

	query := strings.TrimSpace(params.Q)
	if query == "" {
		query = h.config.FeedDefaultQuery
	}

	res := h.processor.Run(c.UserContext(), query)
	if res.Err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch news feed",
			"items": []models.ArticleSummary{},
		})
	}

	return c.JSON(fiber.Map{
		"items": res.Items,
	})
}

// GetArticle handles GET /api/v1/article
func (h *Handlers) GetArticle(c *fiber.Ctx) error {
	params := c.Locals(middleware.QueryParamsKey).(*ArticleQuery)

	article, cached, err := h.articles.Article(c.UserContext(), params.URL)
	switch {
	case errors.Is(err, extract.ErrNotExtractable):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "No readable content found",
		})
	case err != nil:
		logger.Get().Error().Err(err).Str("url", params.URL).Msg("Error extracting article")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to extract article",
		})
	}

	return c.JSON(fiber.Map{
		"article": article,
		"cached":  cached,
	})
}
