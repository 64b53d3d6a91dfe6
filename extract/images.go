package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	imgSrcSel    = cascadia.MustCompile("img[src], img[data-src]")
	imgSrcsetSel = cascadia.MustCompile("img[srcset], img[data-srcset], source[srcset]")
	mediaAttrSel = cascadia.MustCompile("[poster], [data-bg], [data-image], [data-background]")

	mdImageRe  = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
	bgImageRe  = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;}]*?url\(\s*(?:&quot;|['"])?([^'")\s&]+(?:&amp;[^'")\s&]+)*)`)
	wixMediaRe = regexp.MustCompile(`https?://static\.wixstatic\.com/media/` + urlChars + `+`)
	sqspRe     = regexp.MustCompile(`https?://images\.squarespace-cdn\.com/` + urlChars + `+`)
	bareURLRe  = regexp.MustCompile(`(?:https?:)?//` + urlChars + `+`)
	rootPathRe = regexp.MustCompile(`["'(=\s](/[^/\s"'()<>\\]` + urlChars + `*)`)

	junkImageRe = regexp.MustCompile(`(?i)favicon|apple-touch-icon|spacer|tracking|1x1|blank\.gif|transparent\.gif|/pixel[./?_-]|pixel\.(?:gif|png)|/beacon|facebook\.com/tr|google-analytics|doubleclick`)
	wixThumbRe  = regexp.MustCompile(`/v1/(?:fill|fit|crop)/[^/]*?\bw_(\d+)`)
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".avif", ".svg"}

// minThumbWidth is the smallest CDN resize width worth keeping.
const minThumbWidth = 200

// Images returns candidate image URLs found in raw, deduplicated in first-seen
// order. baseOrigin ("https://example.com") enables resolution of relative
// paths; without it relative references are dropped.
func Images(raw, baseOrigin string) []string {
	base := parseOrigin(baseOrigin)
	set := newOrderedSet()
	add := func(ref string) {
		if u := absolute(ref, base); u != "" && !rejectImage(u) {
			set.add(u)
		}
	}

	if doc := parseDoc(raw); doc != nil {
		doc.FindMatcher(imgSrcSel).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr("src"); ok {
				add(v)
			}
			if v, ok := s.Attr("data-src"); ok {
				add(v)
			}
		})
		doc.FindMatcher(imgSrcsetSel).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range []string{"srcset", "data-srcset"} {
				if v, ok := s.Attr(attr); ok {
					add(firstSrcset(v))
				}
			}
		})
		doc.FindMatcher(mediaAttrSel).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range []string{"poster", "data-bg", "data-image", "data-background"} {
				if v, ok := s.Attr(attr); ok && looksLikeImageRef(v) {
					add(v)
				}
			}
		})
	}

	for _, m := range mdImageRe.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	for _, m := range bgImageRe.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	for _, m := range wixMediaRe.FindAllString(raw, -1) {
		add(m)
	}
	for _, m := range sqspRe.FindAllString(raw, -1) {
		add(m)
	}
	for _, m := range bareURLRe.FindAllString(raw, -1) {
		if hasExt(m, imageExts) {
			add(m)
		}
	}
	if base != nil {
		for _, m := range rootPathRe.FindAllStringSubmatch(raw, -1) {
			if hasExt(m[1], imageExts) {
				add(m[1])
			}
		}
	}

	return set.list()
}

// firstSrcset returns the URL of the first candidate in a srcset value.
func firstSrcset(srcset string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(srcset), ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// looksLikeImageRef filters data attributes that carry JSON or flags rather
// than a URL.
func looksLikeImageRef(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "{}[] ") {
		return false
	}
	return strings.Contains(v, "/") || strings.Contains(v, ".")
}

// rejectImage reports whether u is a tracking pixel, spacer, favicon, inline
// data URI, decorative svg or undersized CDN thumbnail.
func rejectImage(u string) bool {
	if strings.HasPrefix(u, "data:") {
		return true
	}
	if junkImageRe.MatchString(u) {
		return true
	}

	lower := strings.ToLower(u)
	path, _, _ := strings.Cut(lower, "?")
	if strings.HasSuffix(path, ".svg") && !strings.Contains(lower, "logo") {
		return true
	}

	if m := wixThumbRe.FindStringSubmatch(u); m != nil {
		if w, err := strconv.Atoi(m[1]); err == nil && w < minThumbWidth {
			return true
		}
	}
	return false
}
