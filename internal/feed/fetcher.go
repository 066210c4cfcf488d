package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/go-resty/resty/v2"
)

// FetchError is returned when the feed could not be retrieved. StatusCode is
// zero for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("failed to fetch feed from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	client  *resty.Client
	feedURL string
}

// NewFetcher builds a fetcher for the configured feed template. Requests are
// bounded by FeedTimeout and never retried.
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(cfg.FeedTimeout).
			SetHeader("User-Agent", cfg.UserAgent).
			SetHeader("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5"),
		feedURL: cfg.FeedURL,
	}
}

// URL returns the feed address for query. Only the %s placeholder is
// substituted; other percent escapes in the template are left alone.
func (f *Fetcher) URL(query string) string {
	return strings.Replace(f.feedURL, "%s", url.QueryEscape(query), 1)
}

// Fetch retrieves the raw feed document for query
func (f *Fetcher) Fetch(ctx context.Context, query string) ([]byte, error) {
	feedURL := f.URL(query)

	resp, err := f.client.R().
		SetContext(ctx).
		Get(feedURL)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode()}
	}

	return resp.Body(), nil
}
