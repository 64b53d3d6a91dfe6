package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	videoSrcSel = cascadia.MustCompile("video[src], video source[src]")
	ogVideoSel  = cascadia.MustCompile(`meta[property^="og:video"], meta[name^="og:video"]`)

	wixVideoRe = regexp.MustCompile(`https?://video\.wixstatic\.com/video/` + urlChars + `+`)
)

var videoExts = []string{".mp4", ".webm"}

var ogVideoProps = map[string]bool{
	"og:video":            true,
	"og:video:url":        true,
	"og:video:secure_url": true,
}

// Videos returns video URLs found in raw, deduplicated in first-seen order.
func Videos(raw string) []string {
	set := newOrderedSet()
	add := func(ref string) {
		if u := absolute(ref, nil); strings.HasPrefix(u, "http") {
			set.add(u)
		}
	}

	if doc := parseDoc(raw); doc != nil {
		doc.FindMatcher(videoSrcSel).Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr("src")
			add(v)
		})
		doc.FindMatcher(ogVideoSel).Each(func(_ int, s *goquery.Selection) {
			prop, ok := s.Attr("property")
			if !ok {
				prop, _ = s.Attr("name")
			}
			if !ogVideoProps[strings.ToLower(prop)] {
				return
			}
			v, _ := s.Attr("content")
			add(v)
		})
	}

	for _, m := range bareURLRe.FindAllString(raw, -1) {
		if hasExt(m, videoExts) {
			add(m)
		}
	}
	for _, m := range wixVideoRe.FindAllString(raw, -1) {
		add(m)
	}

	return set.list()
}
