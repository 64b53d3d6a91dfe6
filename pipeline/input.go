package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/sitebrief/extract"
	"github.com/use-agent/sitebrief/models"
)

// Trimmed-input bounds for the second analysis attempt.
const (
	trimMarkdownChars = 8000
	trimImages        = 8
	trimVideos        = 2
)

// catalogImage is an image offered to the model. Index is its position in
// the full catalog and survives trimming.
type catalogImage struct {
	Index int
	URL   string
}

// analysisInput is everything the analysis prompt is built from.
type analysisInput struct {
	SiteURL  string
	Markdown string
	Images   []catalogImage
	Videos   []string
	Colors   []models.RankedColor
}

func newAnalysisInput(agg *models.AggregatedScrapeResult) analysisInput {
	images := make([]catalogImage, len(agg.Images))
	for i, u := range agg.Images {
		images[i] = catalogImage{Index: i, URL: u}
	}
	return analysisInput{
		SiteURL:  agg.URL,
		Markdown: agg.CombinedMarkdown,
		Images:   images,
		Videos:   agg.Videos,
		Colors:   agg.Colors,
	}
}

// trimmed returns the reduced input for a retry: a markdown window of
// min(8000, len/2) runes, the eight highest-priority images and the first
// two videos.
func (in analysisInput) trimmed() analysisInput {
	window := utf8.RuneCountInString(in.Markdown) / 2
	if window > trimMarkdownChars {
		window = trimMarkdownChars
	}

	videos := in.Videos
	if len(videos) > trimVideos {
		videos = videos[:trimVideos]
	}

	return analysisInput{
		SiteURL:  in.SiteURL,
		Markdown: extract.Clip(in.Markdown, window),
		Images:   topImages(in.Images, trimImages),
		Videos:   videos,
		Colors:   in.Colors,
	}
}

// size is the rune length of the rendered prompt.
func (in analysisInput) size() int {
	return utf8.RuneCountInString(analysisPrompt(in))
}

// topImages keeps the n best images by imagePriority, ties broken by
// catalog order. The result is returned in catalog order.
func topImages(images []catalogImage, n int) []catalogImage {
	if len(images) <= n {
		return images
	}
	ranked := make([]catalogImage, len(images))
	copy(ranked, images)
	sort.SliceStable(ranked, func(i, j int) bool {
		return imagePriority(ranked[i].URL) > imagePriority(ranked[j].URL)
	})
	ranked = ranked[:n]
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Index < ranked[j].Index })
	return ranked
}

var (
	photoExts  = []string{".jpg", ".jpeg", ".webp", ".avif"}
	decorWords = []string{"logo", "icon", "favicon", "sprite", "badge", "avatar"}
)

// imagePriority ranks photographs and full-size CDN renditions above
// graphics, and logos or icons last.
func imagePriority(u string) int {
	lower := strings.ToLower(u)
	for _, w := range decorWords {
		if strings.Contains(lower, w) {
			return 0
		}
	}
	score := 1
	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range photoExts {
		if strings.Contains(path, ext) {
			score += 2
			break
		}
	}
	if strings.Contains(lower, extract.HighResProfile) {
		score += 2
	}
	return score
}

func analysisPrompt(in analysisInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Website: %s\n\n", in.SiteURL)

	sb.WriteString("## Site content\n\n")
	sb.WriteString(in.Markdown)
	sb.WriteString("\n\n## Images\n")
	if len(in.Images) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, img := range in.Images {
		fmt.Fprintf(&sb, "[%d] %s\n", img.Index, img.URL)
	}

	sb.WriteString("\n## Videos\n")
	if len(in.Videos) == 0 {
		sb.WriteString("(none)\n")
	}
	for i, v := range in.Videos {
		fmt.Fprintf(&sb, "[%d] %s\n", i, v)
	}

	sb.WriteString("\n## Colours by frequency\n")
	if len(in.Colors) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, c := range in.Colors {
		fmt.Fprintf(&sb, "%s (%d)\n", c.Hex, c.Count)
	}
	return sb.String()
}
