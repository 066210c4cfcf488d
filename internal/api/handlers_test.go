package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/newsdesk/internal/cache"
	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/bilgisen/newsdesk/internal/extract"
	"github.com/bilgisen/newsdesk/internal/feed"
	"github.com/bilgisen/newsdesk/internal/models"
)

type stubExtractor struct {
	result *models.ExtractionResult
	err    error
}

func (s stubExtractor) Extract(context.Context, string) (*models.ExtractionResult, error) {
	return s.result, s.err
}

type testEnv struct {
	app   *fiber.App
	cache *cache.ExtractCache
	store *cache.MemoryStore
	query atomic.Value
}

func newTestEnv(t *testing.T, feedStatus int, feedBody string, ext extract.Extractor) *testEnv {
	t.Helper()
	env := &testEnv{store: cache.NewMemoryStore()}

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.query.Store(r.URL.Query().Get("q"))
		w.WriteHeader(feedStatus)
		_, _ = w.Write([]byte(feedBody))
	}))
	t.Cleanup(feedSrv.Close)

	cfg := &config.Config{
		HTTPTimeout:      5 * time.Second,
		FeedURL:          feedSrv.URL + "/rss?q=%s",
		FeedDefaultQuery: "Golden State Warriors",
		FeedTimeout:      time.Second,
		FeedWindow:       24 * time.Hour,
		UserAgent:        "newsdesk-test/1.0",
		CacheOpTimeout:   time.Second,
		ExtractTimeout:   time.Second,
	}

	env.cache = cache.NewExtractCache(func() (cache.Store, error) { return env.store, nil }, time.Second)
	t.Cleanup(func() { _ = env.cache.Close() })

	handlers := NewHandlers(cfg, feed.NewProcessor(cfg), extract.NewService(ext, env.cache, time.Second), env.cache)
	env.app = NewApp(cfg, handlers)
	return env
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, http.NoBody), 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func feedWith(published time.Time) string {
	return `<rss><channel>
<item><title>Warriors win - ESPN</title><link>https://espn.com/w</link><guid>1</guid>
<pubDate>` + published.Format(time.RFC1123Z) + `</pubDate><source url="https://www.espn.com">ESPN</source></item>
<item><title>Old news</title><link>https://e.com/old</link><guid>2</guid>
<pubDate>` + published.Add(-72*time.Hour).Format(time.RFC1123Z) + `</pubDate></item>
<item><title>No link</title><guid>3</guid></item>
</channel></rss>`
}

func TestGetNews(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, feedWith(time.Now().Add(-time.Hour)), stubExtractor{})

	status, body := doGet(t, env.app, "/api/news?q="+url.QueryEscape("Boston Celtics"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Boston Celtics", env.query.Load())
	assert.NotContains(t, body, "error")

	items, ok := body["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)

	item := items[0].(map[string]interface{})
	assert.Equal(t, "Warriors win", item["title"])
	assert.Equal(t, "https://espn.com/w", item["url"])
	assert.Equal(t, "ESPN", item["sourceName"])
	assert.Equal(t, "espn.com", item["sourceDomain"])
	assert.NotEmpty(t, item["id"])
	assert.NotEmpty(t, item["publishedAt"])
}

func TestGetNews_DefaultQuery(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `<rss><channel></channel></rss>`, stubExtractor{})

	status, body := doGet(t, env.app, "/api/news")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Golden State Warriors", env.query.Load())
	assert.Equal(t, []interface{}{}, body["items"], "empty feed is an empty list, not null")
}

func TestGetNews_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, http.StatusServiceUnavailable, "unavailable", stubExtractor{})

	status, body := doGet(t, env.app, "/api/news?q=x")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, []interface{}{}, body["items"])
}

func TestGetNews_QueryTooLong(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, "", stubExtractor{})

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	status, body := doGet(t, env.app, "/api/news?q="+string(long))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid query parameters", body["error"])
}

func TestGetArticle(t *testing.T) {
	ext := stubExtractor{result: &models.ExtractionResult{
		Title:       "Warriors win",
		ContentHTML: "<p>Curry scored 40.</p>",
		TextContent: "Curry scored 40.",
	}}
	env := newTestEnv(t, http.StatusOK, "", ext)
	target := "/api/v1/article?url=" + url.QueryEscape("https://www.espn.com/w/?utm_source=rss")

	status, body := doGet(t, env.app, target)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["cached"])

	article := body["article"].(map[string]interface{})
	assert.Equal(t, "Warriors win", article["title"])
	assert.Equal(t, "https://espn.com/w", article["normalizedUrl"])
	assert.EqualValues(t, 1, article["schemaVersion"])

	require.Eventually(t, func() bool { return env.store.Len() == 1 }, time.Second, 5*time.Millisecond)

	status, body = doGet(t, env.app, target)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["cached"])
}

func TestGetArticle_Errors(t *testing.T) {
	tests := []struct {
		name       string
		ext        stubExtractor
		target     string
		wantStatus int
	}{
		{
			name:       "missing url",
			target:     "/api/v1/article",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not an http url",
			target:     "/api/v1/article?url=" + url.QueryEscape("ftp://example.com/a"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "nothing cacheable",
			ext:        stubExtractor{result: &models.ExtractionResult{Title: "only title"}},
			target:     "/api/v1/article?url=" + url.QueryEscape("https://example.com/a"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "extraction failed",
			ext:        stubExtractor{err: errors.New("timeout")},
			target:     "/api/v1/article?url=" + url.QueryEscape("https://example.com/a"),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, http.StatusOK, "", tt.ext)
			status, body := doGet(t, env.app, tt.target)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, body["error"])
			assert.Zero(t, env.store.Len())
		})
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, "", stubExtractor{})

	status, body := doGet(t, env.app, "/api/v1/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "enabled", body["cache"])
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, "", stubExtractor{})

	status, body := doGet(t, env.app, "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Endpoint not found", body["error"])
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"name":"newsdesk"}`), 0o644))

	cfg := &config.Config{StaticDir: dir, HTTPTimeout: time.Second, FeedURL: "http://127.0.0.1:1/?q=%s", FeedTimeout: time.Second}
	c := cache.NewExtractCache(nil, time.Second)
	app := NewApp(cfg, NewHandlers(cfg, feed.NewProcessor(cfg), extract.NewService(stubExtractor{}, c, time.Second), c))

	status, body := doGet(t, app, "/manifest.json")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "newsdesk", body["name"])

	status, body = doGet(t, app, "/api/v1/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "disabled", body["cache"])
}
