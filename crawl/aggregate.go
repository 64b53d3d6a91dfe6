package crawl

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/use-agent/sitebrief/extract"
	"github.com/use-agent/sitebrief/models"
)

const blockSeparator = "\n\n---\n\n"

// aggregate folds the homepage and the subpage results into one result.
// Failed subpages are dropped. A subpage whose text is a near-duplicate of
// an included block contributes media but no text.
func aggregate(siteURL string, home *models.PageScrapeResult, subpages []*models.PageScrapeResult, discovered []string, l Limits) *models.AggregatedScrapeResult {
	seen := &seenTexts{threshold: l.DuplicateThreshold}

	homeText := extract.Clip(home.Markdown, l.HomepageChars)
	seen.add(homeText)
	blocks := []string{formatBlock("Homepage", home.URL, homeText)}
	scraped := []string{home.URL}
	fetched := map[string]struct{}{home.URL: {}}

	images := append([]string(nil), home.Images...)
	videos := append([]string(nil), home.Videos...)
	colors := newColorTally(home.Colors)

	for _, page := range subpages {
		if page == nil || !page.Success {
			if page != nil {
				slog.Debug("subpage dropped", "url", page.URL, "error", page.Error)
			}
			continue
		}
		fetched[page.URL] = struct{}{}
		images = append(images, page.Images...)
		videos = append(videos, page.Videos...)
		colors.add(page.Colors)

		text := extract.Clip(page.Markdown, l.SubpageChars)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if seen.duplicate(text) {
			slog.Debug("near-duplicate subpage skipped", "url", page.URL)
			continue
		}
		seen.add(text)
		blocks = append(blocks, formatBlock("Page", page.URL, text))
		scraped = append(scraped, page.URL)
	}

	return &models.AggregatedScrapeResult{
		Success:          true,
		URL:              siteURL,
		CombinedMarkdown: extract.Clip(strings.Join(blocks, blockSeparator), l.CombinedChars),
		ScreenshotURL:    home.ScreenshotURL,
		Images:           capList(extract.NormalizeImages(images), l.MaxImages),
		Videos:           capList(extract.Dedupe(videos), l.MaxVideos),
		Colors:           extract.RankColors(colors.list(), l.MaxColors),
		ScrapedURLs:      scraped,
		DiscoveredURLs:   remaining(discovered, siteURL, fetched, l.MaxDiscovered),
	}
}

func formatBlock(label, pageURL, text string) string {
	return fmt.Sprintf("## %s: %s\n\n%s", label, pageURL, text)
}

// remaining returns the discovered URLs that were not fetched.
func remaining(discovered []string, siteURL string, fetched map[string]struct{}, limit int) []string {
	out := make([]string, 0, len(discovered))
	for _, u := range discovered {
		if u == siteURL {
			continue
		}
		if _, ok := fetched[u]; ok {
			continue
		}
		out = append(out, u)
	}
	return capList(out, limit)
}

func capList(list []string, limit int) []string {
	if list == nil {
		return []string{}
	}
	if limit >= 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// colorTally sums colour counts across pages, keeping first-seen order.
type colorTally struct {
	order  []string
	counts map[string]int
}

func newColorTally(initial []models.RankedColor) *colorTally {
	t := &colorTally{counts: make(map[string]int)}
	t.add(initial)
	return t
}

func (t *colorTally) add(colors []models.RankedColor) {
	for _, c := range colors {
		if _, ok := t.counts[c.Hex]; !ok {
			t.order = append(t.order, c.Hex)
		}
		t.counts[c.Hex] += c.Count
	}
}

func (t *colorTally) list() []models.RankedColor {
	out := make([]models.RankedColor, 0, len(t.order))
	for _, hex := range t.order {
		out = append(out, models.RankedColor{Hex: hex, Count: t.counts[hex]})
	}
	return out
}
