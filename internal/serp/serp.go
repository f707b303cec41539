package serp

// Result is a single raw listing captured from one search engine.
type Result struct {
	URL         string `json:"url"`
	Domain      string `json:"domain"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Stats carries the capture statistics an engine scraper reports alongside
// its results.
type Stats struct {
	TotalURLsFound int `json:"total_urls_found"`
	AdURLsRemoved  int `json:"ad_urls_removed"`
}

// Batch is the full result set one engine produced for a query. Engine is
// derived from the capture file name when the batch is loaded from disk.
type Batch struct {
	Engine     string   `json:"engine"`
	Results    []Result `json:"results"`
	Statistics Stats    `json:"statistics"`
}
