package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bilgisen/newsdesk/internal/config"
	"github.com/bilgisen/newsdesk/internal/logger"
	"github.com/bilgisen/newsdesk/internal/models"
)

// Result is the outcome of one pipeline run. Items is never nil; Err is set
// when the feed could not be fetched.
type Result struct {
	Items []models.ArticleSummary
	Err   error
}

// Processor runs fetch, parse, normalize, filter and sort for a query
type Processor struct {
	fetcher    *Fetcher
	parser     *Parser
	normalizer *Normalizer
	window     time.Duration
	now        func() time.Time
}

func NewProcessor(cfg *config.Config) *Processor {
	p := &Processor{
		fetcher:    NewFetcher(cfg),
		parser:     NewParser(),
		normalizer: NewNormalizer(),
		window:     cfg.FeedWindow,
		now:        time.Now,
	}
	p.normalizer.now = func() time.Time { return p.now() }
	return p
}

// Run executes the pipeline for query. It never returns a nil item slice and
// reports upstream failures through Result.Err.
func (p *Processor) Run(ctx context.Context, query string) Result {
	log := logger.Get()
	start := time.Now()

	body, err := p.fetcher.Fetch(ctx, query)
	if err != nil {
		log.Error().
			Err(err).
			Str("query", query).
			Dur("duration", time.Since(start)).
			Msg("Error fetching feed")
		return Result{Items: []models.ArticleSummary{}, Err: err}
	}

	raw := p.parse(body)
	articles := p.normalizer.Normalize(raw)
	unique := dedupe(articles)
	recent := p.filterRecent(unique)
	sortNewestFirst(recent)

	log.Info().
		Str("query", query).
		Int("bytes", len(body)).
		Int("parsed_items", len(raw)).
		Int("unique_items", len(unique)).
		Int("recent_items", len(recent)).
		Dur("duration", time.Since(start)).
		Msg("Processed feed")

	return Result{Items: recent}
}

// parse degrades to zero items if the parser blows up on a hostile document.
func (p *Processor) parse(body []byte) (items []models.RawItem) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error().
				Str("panic", fmt.Sprint(r)).
				Int("bytes", len(body)).
				Msg("Feed parsing failed")
			items = nil
		}
	}()
	return p.parser.Parse(body)
}

// dedupe keeps the first article for every id.
func dedupe(articles []models.ArticleSummary) []models.ArticleSummary {
	seen := make(map[string]struct{}, len(articles))
	out := articles[:0]
	for _, a := range articles {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}

// filterRecent keeps articles inside the window and every undated article.
func (p *Processor) filterRecent(articles []models.ArticleSummary) []models.ArticleSummary {
	cutoff := p.now().Add(-p.window)
	out := make([]models.ArticleSummary, 0, len(articles))
	for _, a := range articles {
		if a.Dated && a.PublishedAt.Before(cutoff) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func sortNewestFirst(articles []models.ArticleSummary) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
