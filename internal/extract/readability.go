package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/bilgisen/newsdesk/internal/models"
)

// ReadabilityExtractor downloads a page and reduces it to its main article.
type ReadabilityExtractor struct {
	client *resty.Client
	policy *bluemonday.Policy
}

func NewReadabilityExtractor(timeout time.Duration, userAgent string) *ReadabilityExtractor {
	return &ReadabilityExtractor{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"),
		policy: bluemonday.UGCPolicy(),
	}
}

// Extract fetches pageURL and returns the readable article. Missing title or
// content is not an error here; callers decide whether the result is usable.
func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string) (*models.ExtractionResult, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid article url %q", pageURL)
	}

	resp, err := e.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), pageURL)
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body()), parsed)
	if err != nil {
		return nil, fmt.Errorf("readability extraction failed: %w", err)
	}

	return &models.ExtractionResult{
		Title:       strings.TrimSpace(article.Title),
		Byline:      strings.TrimSpace(article.Byline),
		SiteName:    strings.TrimSpace(article.SiteName),
		ContentHTML: strings.TrimSpace(e.policy.Sanitize(article.Content)),
		TextContent: strings.TrimSpace(article.TextContent),
		Excerpt:     strings.TrimSpace(article.Excerpt),
	}, nil
}
