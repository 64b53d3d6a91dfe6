package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/use-agent/sitebrief/extract"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/models"
)

// TextCaps bounds the markdown kept per page.
type TextCaps struct {
	Homepage int
	Subpage  int
}

// Fetcher tries its strategies in order; the first usable result wins.
// It is safe for concurrent use.
type Fetcher struct {
	strategies []Strategy
	caps       TextCaps
	metrics    *metrics.Metrics
}

// NewFetcher creates a Fetcher. m may be nil.
func NewFetcher(strategies []Strategy, caps TextCaps, m *metrics.Metrics) *Fetcher {
	return &Fetcher{strategies: strategies, caps: caps, metrics: m}
}

// Strategies returns the names of the strategies in chain order.
func (f *Fetcher) Strategies() []string {
	names := make([]string, len(f.strategies))
	for i, s := range f.strategies {
		names[i] = s.Name()
	}
	return names
}

// FetchPage retrieves pageURL and extracts its media, colours and links. It
// never returns nil; failures are reported through Success and Error.
//
// A thin result (a JavaScript shell) from any strategy but the last is held
// back while later strategies are tried, and used only if they all fail.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string, profile Profile) *models.PageScrapeResult {
	var (
		lastErr      error
		reserve      *RawPage
		reserveName  string
		lastStrategy = len(f.strategies) - 1
	)

	for i, s := range f.strategies {
		raw, err := s.Fetch(ctx, pageURL, profile)
		if err != nil {
			f.metrics.PageFetch(s.Name(), "error")
			slog.Warn("fetch strategy failed",
				"strategy", s.Name(), "url", pageURL, "profile", profile.String(), "error", err)
			lastErr = err
			continue
		}

		if raw.Thin && i < lastStrategy {
			f.metrics.PageFetch(s.Name(), "thin")
			slog.Debug("page looks unrendered, trying next strategy",
				"strategy", s.Name(), "url", pageURL)
			if reserve == nil {
				reserve, reserveName = raw, s.Name()
			}
			continue
		}

		f.metrics.PageFetch(s.Name(), "ok")
		return f.build(pageURL, profile, s.Name(), raw)
	}

	if reserve != nil {
		return f.build(pageURL, profile, reserveName, reserve)
	}

	if lastErr == nil {
		lastErr = errors.New("no fetch strategy configured")
	}
	return failedPage(pageURL, lastErr.Error())
}

func (f *Fetcher) build(pageURL string, profile Profile, strategy string, raw *RawPage) *models.PageScrapeResult {
	textCap := f.caps.Subpage
	if profile == Homepage {
		textCap = f.caps.Homepage
	}

	// Colours and links read best from raw HTML; markdown is the fallback.
	structural := raw.HTML
	if structural == "" {
		structural = raw.Markdown
	}
	media := raw.HTML + "\n" + raw.Markdown

	// Relative references resolve against where the page ended up.
	base := pageURL
	if raw.FinalURL != "" {
		base = raw.FinalURL
	}
	links := extract.Links(structural, base)
	if len(raw.Links) > 0 {
		links = extract.Dedupe(append(links, extract.FilterLinks(raw.Links, base)...))
	}

	res := &models.PageScrapeResult{
		Success:       true,
		URL:           pageURL,
		Markdown:      extract.Clip(raw.Markdown, textCap),
		Images:        extract.Images(media, origin(base)),
		Videos:        extract.Videos(media),
		Colors:        extract.Colors(structural),
		InternalLinks: links,
		Strategy:      strategy,
	}
	if profile == Homepage {
		res.ScreenshotURL = raw.Screenshot
	}
	return res
}

func failedPage(pageURL, msg string) *models.PageScrapeResult {
	return &models.PageScrapeResult{
		Success:       false,
		URL:           pageURL,
		Images:        []string{},
		Videos:        []string{},
		Colors:        []models.RankedColor{},
		InternalLinks: []string{},
		Error:         msg,
	}
}

// origin returns "scheme://host" for u, or "" when u does not parse.
func origin(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
