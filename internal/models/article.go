package models

import "time"

// RawItem is one <item> block as pulled out of the feed document.
type RawItem struct {
	Title     string
	Link      string
	PubDate   string
	GUID      string
	Source    string // display name of the <source> element
	SourceURL string // url attribute of the <source> element
}

// ArticleSummary is a normalized feed entry as served by the news endpoint
type ArticleSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"publishedAt"`
	SourceName   string    `json:"sourceName"`
	SourceDomain string    `json:"sourceDomain"`

	// Dated is false when PublishedAt was defaulted to the fetch time.
	Dated bool `json:"-"`
}
