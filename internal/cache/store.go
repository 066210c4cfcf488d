package cache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bilgisen/newsdesk/internal/config"
)

// Store is the remote key-value store behind the extraction cache.
type Store interface {
	// Get returns the raw value for key. found is false when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set writes value under key, expiring after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Open builds the store described by cfg. It returns a nil Store and no error
// when the cache is not configured. The endpoint scheme picks the protocol:
// http(s) talks to a REST command endpoint, redis(s) to a redis server and
// memory keeps everything in process.
func Open(cfg *config.Config) (Store, error) {
	if !cfg.CacheEnabled() {
		return nil, nil
	}

	u, err := url.Parse(cfg.KVURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache endpoint: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return NewRESTStore(cfg.KVURL, cfg.KVToken, cfg.CacheOpTimeout), nil
	case "redis", "rediss":
		store, err := NewRedisStore(cfg.KVURL, cfg.KVToken, cfg.CacheOpTimeout)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache endpoint scheme %q", u.Scheme)
	}
}
