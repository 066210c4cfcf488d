package feed

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/bilgisen/newsdesk/internal/models"
	"github.com/bilgisen/newsdesk/internal/utils"
)

const idHashLen = 16

// publisherSeparators split "Headline - Publisher" style titles.
var publisherSeparators = []string{" - ", " – ", " — "}

// Normalizer turns raw feed items into article summaries
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize converts items in order. Items without a title or link are skipped.
func (n *Normalizer) Normalize(items []models.RawItem) []models.ArticleSummary {
	fetchedAt := n.now().UTC()
	out := make([]models.ArticleSummary, 0, len(items))

	for _, item := range items {
		summary, ok := n.normalizeItem(item, fetchedAt)
		if !ok {
			continue
		}
		out = append(out, summary)
	}
	return out
}

func (n *Normalizer) normalizeItem(item models.RawItem, fetchedAt time.Time) (models.ArticleSummary, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return models.ArticleSummary{}, false
	}

	identity := strings.TrimSpace(item.GUID)
	if identity == "" {
		identity = link
	}

	// display domain, not the cache canonicalizer's host rule
	domain := hostOf(item.SourceURL)
	if domain == "" {
		domain = hostOf(link)
	}

	sourceName := strings.TrimSpace(item.Source)
	if head, publisher, ok := splitPublisher(title); ok {
		if sourceName == "" {
			sourceName = publisher
		}
		if strings.EqualFold(sourceName, publisher) {
			title = head
		}
	}
	if sourceName == "" {
		sourceName = domain
	}

	summary := models.ArticleSummary{
		ID:           utils.ShortHash(identity, idHashLen),
		Title:        title,
		URL:          link,
		PublishedAt:  fetchedAt,
		SourceName:   sourceName,
		SourceDomain: domain,
	}
	if published, ok := parseDate(item.PubDate); ok {
		summary.PublishedAt = published
		summary.Dated = true
	}
	return summary, true
}

// splitPublisher splits "Headline - Publisher" at the last separator.
func splitPublisher(title string) (head, publisher string, ok bool) {
	cut := -1
	sepLen := 0
	for _, sep := range publisherSeparators {
		if i := strings.LastIndex(title, sep); i > cut {
			cut, sepLen = i, len(sep)
		}
	}
	if cut <= 0 {
		return "", "", false
	}

	head = strings.TrimSpace(title[:cut])
	publisher = strings.TrimSpace(title[cut+sepLen:])
	if head == "" || publisher == "" {
		return "", "", false
	}
	return head, publisher, true
}

// hostOf returns the lowercase host of rawURL without a leading "www.".
func hostOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// clockTime guards against dateparse accepting fragments such as a bare year.
var clockTime = regexp.MustCompile(`\d{1,2}:\d{2}`)

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !clockTime.MatchString(raw) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
