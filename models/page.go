package models

// RankedColor is a normalised "#rrggbb" colour with the number of times it
// was seen. Lists of RankedColor are sorted by Count, highest first.
type RankedColor struct {
	Hex   string `json:"hex"`
	Count int    `json:"count"`
}

// PageScrapeResult is the outcome of fetching a single page.
type PageScrapeResult struct {
	Success       bool          `json:"success"`
	URL           string        `json:"url"`
	Markdown      string        `json:"markdown"`
	ScreenshotURL string        `json:"screenshot_url,omitempty"`
	Images        []string      `json:"images"`
	Videos        []string      `json:"videos"`
	Colors        []RankedColor `json:"colors"`
	InternalLinks []string      `json:"internal_links"`

	// Strategy names the fetch strategy that produced the page.
	Strategy string `json:"strategy,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AggregatedScrapeResult combines the homepage and the selected subpages of a
// single run. It is owned by the run that produced it.
type AggregatedScrapeResult struct {
	Success          bool          `json:"success"`
	URL              string        `json:"url"`
	CombinedMarkdown string        `json:"combined_markdown"`
	ScreenshotURL    string        `json:"screenshot_url,omitempty"`
	Images           []string      `json:"images"`
	Videos           []string      `json:"videos"`
	Colors           []RankedColor `json:"colors"`

	// ScrapedURLs lists the homepage followed by every subpage whose content
	// made it into CombinedMarkdown.
	ScrapedURLs []string `json:"scraped_urls"`

	// DiscoveredURLs are same-site pages found but not scraped.
	DiscoveredURLs []string `json:"discovered_urls"`

	Error string `json:"error,omitempty"`
}
