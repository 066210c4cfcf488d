// Package extract serves full article extractions, consulting the
// extraction cache before doing the expensive work.
package extract

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bilgisen/newsdesk/internal/cache"
	"github.com/bilgisen/newsdesk/internal/logger"
	"github.com/bilgisen/newsdesk/internal/models"
	"github.com/bilgisen/newsdesk/internal/urlnorm"
)

// ErrNotExtractable means the page produced no title or no content.
var ErrNotExtractable = errors.New("no readable article content")

// Extractor turns an article URL into readable content.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*models.ExtractionResult, error)
}

type Service struct {
	extractor Extractor
	cache     *cache.ExtractCache
	timeout   time.Duration
	group     singleflight.Group
}

func NewService(extractor Extractor, extractCache *cache.ExtractCache, timeout time.Duration) *Service {
	return &Service{
		extractor: extractor,
		cache:     extractCache,
		timeout:   timeout,
	}
}

// Article returns the extraction for rawURL and whether it came from the
// cache. Fresh extractions are written back in the background.
func (s *Service) Article(ctx context.Context, rawURL string) (*models.CachedExtract, bool, error) {
	normalized := urlnorm.Normalize(rawURL)

	if hit := s.cache.Get(ctx, normalized); hit != nil {
		return hit, true, nil
	}

	// concurrent misses for one article share a single extraction
	v, err, shared := s.group.Do(cache.Key(normalized), func() (interface{}, error) {
		return s.extract(ctx, rawURL, normalized)
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		logger.Get().Debug().Str("url", normalized).Msg("Shared in-flight extraction")
	}
	return v.(*models.CachedExtract), false, nil
}

func (s *Service) extract(ctx context.Context, rawURL, normalized string) (*models.CachedExtract, error) {
	log := logger.Get()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	res, err := s.extractor.Extract(ctx, rawURL)
	if err != nil {
		log.Warn().Err(err).Str("url", rawURL).Msg("Article extraction failed")
		return nil, err
	}

	payload := cache.BuildPayload(normalized, res)
	if payload == nil {
		log.Info().Str("url", rawURL).Msg("Article has no cacheable content")
		return nil, ErrNotExtractable
	}

	s.cache.PutAsync(normalized, payload)

	log.Info().
		Str("url", normalized).
		Int("length", payload.Length).
		Dur("duration", time.Since(start)).
		Msg("Article extracted")
	return payload, nil
}
