package models

// ExtractSchemaVersion tags every cached extraction record. Records carrying
// any other version are ignored on read.
const ExtractSchemaVersion = 1

// ExtractionResult is what an extractor produces for a single article page.
type ExtractionResult struct {
	Title       string
	Byline      string
	SiteName    string
	ContentHTML string
	TextContent string
	Excerpt     string
}

// CachedExtract is the stored form of a successful extraction
type CachedExtract struct {
	SchemaVersion int    `json:"schemaVersion"`
	NormalizedURL string `json:"normalizedUrl"`
	Title         string `json:"title"`
	Byline        string `json:"byline,omitempty"`
	SiteName      string `json:"siteName,omitempty"`
	ContentHTML   string `json:"contentHtml"`
	TextContent   string `json:"textContent"`
	Excerpt       string `json:"excerpt,omitempty"`
	Length        int    `json:"length"`
	CachedAt      int64  `json:"cachedAt"` // epoch milliseconds
}

// Valid reports whether the record is current and carries the fields every
// reader relies on.
func (c *CachedExtract) Valid() bool {
	return c != nil &&
		c.SchemaVersion == ExtractSchemaVersion &&
		c.Title != "" &&
		c.ContentHTML != ""
}
