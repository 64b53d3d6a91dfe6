package crawl

import (
	"net/url"
	"sort"
	"strings"
)

// keywords mark paths that usually carry the content a small-business site
// is built from.
var keywords = []string{
	"about", "service", "pricing", "price", "gallery", "portfolio", "menu",
	"contact", "book", "appointment", "shop", "product", "faq", "review",
	"testimonial", "team", "location", "class", "schedule", "treatment",
	"project", "event", "rate", "room", "membership",
}

// PrioritizedLink is a candidate subpage with its score and its position in
// discovery order.
type PrioritizedLink struct {
	URL   string
	Score int
	Order int
}

// Score rates a link: 10 points per distinct keyword found in the
// lower-cased path, minus 2 points per path segment.
func Score(link string) int {
	path := link
	if u, err := url.Parse(link); err == nil {
		path = u.Path
	}
	path = strings.ToLower(path)

	hits := 0
	for _, kw := range keywords {
		if strings.Contains(path, kw) {
			hits++
		}
	}
	return 10*hits - 2*depth(path)
}

func depth(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// Rank scores every link and orders them by score, highest first. Equal
// scores keep discovery order.
func Rank(links []string) []PrioritizedLink {
	ranked := make([]PrioritizedLink, len(links))
	for i, l := range links {
		ranked[i] = PrioritizedLink{URL: l, Score: Score(l), Order: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Prioritize returns up to maxCount links, best first.
func Prioritize(links []string, maxCount int) []string {
	if maxCount <= 0 {
		return []string{}
	}
	ranked := Rank(links)
	if len(ranked) > maxCount {
		ranked = ranked[:maxCount]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.URL
	}
	return out
}
