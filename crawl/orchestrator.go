// Package crawl selects and fetches the pages of a site and folds them into
// one aggregated scrape result.
package crawl

import (
	"context"
	"log/slog"
	"sync"

	"github.com/use-agent/sitebrief/discovery"
	"github.com/use-agent/sitebrief/extract"
	"github.com/use-agent/sitebrief/models"
	"github.com/use-agent/sitebrief/scraper"
)

// PageFetcher fetches and extracts a single page. *scraper.Fetcher
// satisfies it.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string, profile scraper.Profile) *models.PageScrapeResult
}

// Orchestrator runs homepage fetch, discovery, selection, the concurrent
// subpage fetch and aggregation for one site.
type Orchestrator struct {
	fetcher PageFetcher
	mapper  discovery.Mapper
	limits  Limits
}

// NewOrchestrator creates an Orchestrator. mapper may be nil, in which case
// discovery uses homepage links only.
func NewOrchestrator(fetcher PageFetcher, mapper discovery.Mapper, limits Limits) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, mapper: mapper, limits: limits}
}

// Limits returns the limits the orchestrator was built with.
func (o *Orchestrator) Limits() Limits { return o.limits }

// Scrape crawls siteURL. The result's Success is false only when the
// homepage could not be fetched; in that case nothing else is requested.
func (o *Orchestrator) Scrape(ctx context.Context, siteURL string, tier models.Tier) *models.AggregatedScrapeResult {
	// ── 1. Homepage ─────────────────────────────────────────────────
	home := o.fetcher.FetchPage(ctx, siteURL, scraper.Homepage)
	if home == nil || !home.Success {
		msg := "homepage fetch failed"
		if home != nil && home.Error != "" {
			msg = home.Error
		}
		slog.Warn("homepage fetch failed", "url", siteURL, "error", msg)
		return failedAggregate(siteURL, msg)
	}

	// ── 2. Discovery ────────────────────────────────────────────────
	discovered := o.discover(ctx, siteURL, home)

	// ── 3. Selection ────────────────────────────────────────────────
	selected := Prioritize(discovered, o.limits.SubpagesFor(tier))
	slog.Info("subpages selected",
		"url", siteURL,
		"tier", tier,
		"discovered", len(discovered),
		"selected", selected,
	)

	// ── 4. Parallel subpage fetch ───────────────────────────────────
	subpages := o.fetchSubpages(ctx, selected)

	// ── 5. Aggregation ──────────────────────────────────────────────
	return aggregate(siteURL, home, subpages, discovered, o.limits)
}

// discover unions the homepage links with the site map, filtered by the
// same rules as extracted links. Site-map failures are ignored.
func (o *Orchestrator) discover(ctx context.Context, siteURL string, home *models.PageScrapeResult) []string {
	candidates := append([]string(nil), home.InternalLinks...)
	if o.mapper != nil {
		mapped, err := o.mapper.Map(ctx, siteURL)
		if err != nil {
			slog.Warn("site map discovery failed, using homepage links", "url", siteURL, "error", err)
		} else {
			candidates = append(candidates, mapped...)
		}
	}
	return extract.FilterLinks(candidates, siteURL)
}

// fetchSubpages fetches every URL concurrently. Results are slotted by
// selection index so output order never depends on completion order.
func (o *Orchestrator) fetchSubpages(ctx context.Context, urls []string) []*models.PageScrapeResult {
	results := make([]*models.PageScrapeResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = o.fetcher.FetchPage(ctx, u, scraper.Subpage)
		}(i, u)
	}
	wg.Wait()
	return results
}

func failedAggregate(siteURL, msg string) *models.AggregatedScrapeResult {
	return &models.AggregatedScrapeResult{
		Success:        false,
		URL:            siteURL,
		Images:         []string{},
		Videos:         []string{},
		Colors:         []models.RankedColor{},
		ScrapedURLs:    []string{},
		DiscoveredURLs: []string{},
		Error:          msg,
	}
}
