package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/bilgisen/newsdesk/internal/logger"
	"github.com/bilgisen/newsdesk/internal/models"
	"github.com/bilgisen/newsdesk/internal/utils"
)

const (
	// KeyPrefix namespaces extraction records. Bump the epoch to start a
	// fresh key space.
	KeyPrefix = "extract:v1"

	// ExtractTTL is how long a record lives after it is written.
	ExtractTTL = 24 * time.Hour

	keyHashLen = 16
)

// Key derives the store key for a canonical URL.
func Key(normalizedURL string) string {
	return KeyPrefix + ":" + utils.ShortHash(normalizedURL, keyHashLen)
}

// Opener produces the store handle. A nil Store means the cache is disabled.
type Opener func() (Store, error)

// ExtractCache is a best-effort cache of article extractions. Every failure
// reads as a miss and every write failure is dropped, so callers behave the
// same whether or not a store is configured.
type ExtractCache struct {
	open      Opener
	opTimeout time.Duration

	once  sync.Once
	store Store

	mu      sync.Mutex
	closing bool
	pending sync.WaitGroup
}

// NewExtractCache returns a cache that opens its store on first use.
func NewExtractCache(open Opener, opTimeout time.Duration) *ExtractCache {
	return &ExtractCache{
		open:      open,
		opTimeout: opTimeout,
	}
}

// FromConfig returns a cache backed by the store described in cfg.
func FromConfig(cfg *config.Config) *ExtractCache {
	return NewExtractCache(func() (Store, error) {
		return Open(cfg)
	}, cfg.CacheOpTimeout)
}

// handle opens the store once. Both outcomes, including "disabled", stick
// for the life of the process.
func (c *ExtractCache) handle() Store {
	c.once.Do(func() {
		log := logger.Get()
		if c.open == nil {
			return
		}
		store, err := c.open()
		if err != nil {
			log.Warn().Err(err).Msg("Extraction cache disabled: store could not be opened")
			return
		}
		if store == nil {
			log.Info().Msg("Extraction cache disabled: store not configured")
			return
		}
		c.store = store
	})
	return c.store
}

// Enabled reports whether a store is attached.
func (c *ExtractCache) Enabled() bool {
	return c.handle() != nil
}

// Get returns the cached extraction for normalizedURL, or nil on a miss.
// Store errors, undecodable records and records that fail validation are
// all misses.
func (c *ExtractCache) Get(ctx context.Context, normalizedURL string) *models.CachedExtract {
	store := c.handle()
	if store == nil {
		return nil
	}

	key := Key(normalizedURL)
	log := logger.Get()

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	data, found, err := store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Extraction cache read failed")
		return nil
	}
	if !found {
		return nil
	}

	var rec models.CachedExtract
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Discarding undecodable cache record")
		return nil
	}
	if !rec.Valid() {
		log.Debug().
			Str("key", key).
			Int("schema_version", rec.SchemaVersion).
			Msg("Discarding invalid cache record")
		return nil
	}
	return &rec
}

// Put stores payload under the key for normalizedURL with ExtractTTL.
// It never fails; errors are logged and dropped.
func (c *ExtractCache) Put(ctx context.Context, normalizedURL string, payload *models.CachedExtract) {
	log := logger.Get()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic in extraction cache write")
		}
	}()

	if !payload.Valid() {
		return
	}
	store := c.handle()
	if store == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode cache record")
		return
	}

	key := Key(normalizedURL)
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := store.Set(ctx, key, data, ExtractTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Extraction cache write failed")
		return
	}
	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Extraction cached")
}

// PutAsync runs Put in the background, detached from the caller's context.
// Writes requested after Close has started are dropped.
func (c *ExtractCache) PutAsync(normalizedURL string, payload *models.CachedExtract) {
	if !payload.Valid() {
		return
	}

	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		logger.Get().Debug().Str("key", Key(normalizedURL)).Msg("Extraction cache closing, write dropped")
		return
	}
	c.pending.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.pending.Done()
		c.Put(context.Background(), normalizedURL, payload)
	}()
}

// Close waits for background writes and releases the store.
func (c *ExtractCache) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.pending.Wait()
	// a cache that was never used stays closed
	c.once.Do(func() {})
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

// BuildPayload turns an extraction into a cache record. It returns nil unless
// both the title and the HTML content are present.
func BuildPayload(normalizedURL string, res *models.ExtractionResult) *models.CachedExtract {
	if res == nil || strings.TrimSpace(res.Title) == "" || strings.TrimSpace(res.ContentHTML) == "" {
		return nil
	}

	return &models.CachedExtract{
		SchemaVersion: models.ExtractSchemaVersion,
		NormalizedURL: normalizedURL,
		Title:         res.Title,
		Byline:        res.Byline,
		SiteName:      res.SiteName,
		ContentHTML:   res.ContentHTML,
		TextContent:   res.TextContent,
		Excerpt:       res.Excerpt,
		Length:        utf8.RuneCountInString(res.TextContent),
		CachedAt:      time.Now().UnixMilli(),
	}
}
