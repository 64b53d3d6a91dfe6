// Package scraper fetches single pages through an ordered chain of
// strategies and runs the extractors over whatever content was obtained.
package scraper

import (
	"context"
	"time"
)

// Profile selects how much work a fetch does. The homepage asks for a
// screenshot and the link list and keeps more text; subpages are lighter.
type Profile int

const (
	Homepage Profile = iota
	Subpage
)

func (p Profile) String() string {
	if p == Homepage {
		return "homepage"
	}
	return "subpage"
}

// Timeouts holds a per-profile deadline.
type Timeouts struct {
	Homepage time.Duration
	Subpage  time.Duration
}

// For returns the timeout for p.
func (t Timeouts) For(p Profile) time.Duration {
	if p == Homepage {
		return t.Homepage
	}
	return t.Subpage
}

// RawPage is what a strategy obtained for one URL before extraction.
type RawPage struct {
	Markdown string
	HTML     string

	// FinalURL is where the page was served from after redirects, when the
	// strategy knows it.
	FinalURL string

	// Screenshot is a URL or data URL; only requested for the homepage.
	Screenshot string

	// Links are links reported by the strategy itself, in addition to those
	// found in HTML.
	Links []string

	// Thin marks content that looks like an unrendered JavaScript shell.
	Thin bool
}

// Strategy is one way of retrieving a page. Implementations apply their own
// timeout and must return an error rather than an empty page.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, pageURL string, profile Profile) (*RawPage, error)
}
