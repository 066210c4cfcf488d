package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "FEED_URL", "FEED_DEFAULT_QUERY", "FEED_TIMEOUT", "FEED_WINDOW",
		"KV_REST_API_URL", "KV_REST_API_TOKEN", "CACHE_OP_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	// empty values are still "set", so only the string fields come back empty
	assert.Empty(t, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 24*time.Hour, cfg.FeedWindow)
	assert.Equal(t, 2*time.Second, cfg.CacheOpTimeout)
	assert.False(t, cfg.CacheEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FEED_DEFAULT_QUERY", "Boston Celtics")
	t.Setenv("FEED_TIMEOUT", "3s")
	t.Setenv("CACHE_OP_TIMEOUT", "5")
	t.Setenv("FEED_WINDOW", "not-a-duration")
	t.Setenv("KV_REST_API_URL", " https://kv.example.com ")
	t.Setenv("KV_REST_API_TOKEN", "secret")

	cfg := FromEnv()
	assert.Equal(t, "Boston Celtics", cfg.FeedDefaultQuery)
	assert.Equal(t, 3*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 5*time.Second, cfg.CacheOpTimeout)
	assert.Equal(t, 24*time.Hour, cfg.FeedWindow, "bad value falls back to default")
	assert.Equal(t, "https://kv.example.com", cfg.KVURL)
	assert.True(t, cfg.CacheEnabled())
	require.NoError(t, cfg.Validate())
}

func TestConfig_CacheEnabled(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		token string
		want  bool
	}{
		{name: "both set", url: "https://kv.example.com", token: "t", want: true},
		{name: "url only", url: "https://kv.example.com", want: false},
		{name: "token only", token: "t", want: false},
		{name: "neither", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{KVURL: tt.url, KVToken: tt.token}
			assert.Equal(t, tt.want, cfg.CacheEnabled())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			FeedURL:          defaultFeedURL,
			FeedDefaultQuery: "Golden State Warriors",
			FeedTimeout:      time.Second,
			FeedWindow:       time.Hour,
			CacheOpTimeout:   time.Second,
			ExtractTimeout:   time.Second,
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.FeedURL = "https://example.com/rss"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.FeedURL = "https://example.com/rss?q=%s&x=%s"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.FeedURL = "https://news.google.com/rss/search?q=%s&ceid=US%3Aen"
	assert.NoError(t, cfg.Validate(), "other percent escapes are allowed")

	cfg = valid()
	cfg.FeedDefaultQuery = "  "
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.FeedWindow = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEED_WINDOW")
}
