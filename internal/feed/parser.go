package feed

import (
	"regexp"
	"strings"

	"github.com/bilgisen/newsdesk/internal/models"
)

// Parser pulls <item> blocks out of a feed document with pattern matching.
// It does not validate the document, so broken markup around or between
// items does not stop the good ones from being read.
type Parser struct {
	itemRegex      *regexp.Regexp
	titleRegex     *regexp.Regexp
	linkRegex      *regexp.Regexp
	pubDateRegex   *regexp.Regexp
	guidRegex      *regexp.Regexp
	sourceRegex    *regexp.Regexp
	sourceURLRegex *regexp.Regexp
	cdataRegex     *regexp.Regexp
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
)

func NewParser() *Parser {
	return &Parser{
		itemRegex:      regexp.MustCompile(`(?is)<item\b[^>]*>(.*?)</item>`),
		titleRegex:     elementRegex("title"),
		linkRegex:      elementRegex("link"),
		pubDateRegex:   elementRegex("pubDate"),
		guidRegex:      elementRegex("guid"),
		sourceRegex:    regexp.MustCompile(`(?is)<source\b([^>]*)>(.*?)</source>`),
		sourceURLRegex: regexp.MustCompile(`(?is)(?:^|\s)url\s*=\s*(?:"([^"]*)"|'([^']*)')`),
		cdataRegex:     regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`),
	}
}

func elementRegex(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<` + tag + `(?:\s[^>]*)?>(.*?)</` + tag + `\s*>`)
}

// Parse returns every item that has both a title and a link. Items missing
// either are dropped without error.
func (p *Parser) Parse(body []byte) []models.RawItem {
	blocks := p.itemRegex.FindAllSubmatch(body, -1)
	items := make([]models.RawItem, 0, len(blocks))

	for _, block := range blocks {
		item, ok := p.parseItem(string(block[1]))
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (p *Parser) parseItem(block string) (models.RawItem, bool) {
	item := models.RawItem{
		Title:   p.field(p.titleRegex, block),
		Link:    p.field(p.linkRegex, block),
		PubDate: p.field(p.pubDateRegex, block),
		GUID:    p.field(p.guidRegex, block),
	}

	if m := p.sourceRegex.FindStringSubmatch(block); m != nil {
		item.Source = p.clean(m[2])
		if u := p.sourceURLRegex.FindStringSubmatch(m[1]); u != nil {
			item.SourceURL = p.clean(u[1] + u[2])
		}
	}

	if item.Title == "" || item.Link == "" {
		return models.RawItem{}, false
	}
	return item, true
}

func (p *Parser) field(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return p.clean(m[1])
}

// clean unwraps CDATA, decodes the supported entities and trims whitespace.
func (p *Parser) clean(s string) string {
	s = p.cdataRegex.ReplaceAllString(s, "$1")
	s = entityReplacer.Replace(s)
	return strings.TrimSpace(s)
}
