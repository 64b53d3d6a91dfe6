// Package extract pulls media, brand colours and internal links out of raw
// page content. Every function here is pure: the input may be HTML, markdown
// or a mixture of both, and no network access takes place.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// urlChars is the character class shared by the bare-URL patterns.
const urlChars = `[^\s"'()<>\\]`

// parseDoc parses raw as HTML. Markdown input parses into a single text node,
// so callers can always run selectors without checking the content type.
func parseDoc(raw string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	return doc
}

// orderedSet collects strings once, in first-seen order.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) list() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}

// Dedupe returns urls without repeats, keeping the first occurrence.
func Dedupe(urls []string) []string {
	set := newOrderedSet()
	for _, u := range urls {
		set.add(u)
	}
	return set.list()
}

// absolute turns a candidate reference into an absolute URL. Protocol-relative
// references become https; relative references need a base and are dropped
// without one. data: URIs are returned as-is so the image filter can reject
// them explicitly.
func absolute(ref string, base *url.URL) string {
	ref = strings.TrimSpace(strings.ReplaceAll(ref, "&amp;", "&"))
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "data:"):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	}
	if base == nil || strings.Contains(ref, ":") {
		return ""
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return resolved.String()
}

// parseOrigin parses a "scheme://host" origin, returning nil when empty or
// malformed.
func parseOrigin(origin string) *url.URL {
	if origin == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

// hasExt reports whether the path of u, ignoring query and fragment, ends in
// one of exts. exts must be lower case.
func hasExt(u string, exts []string) bool {
	path, _, _ := strings.Cut(u, "?")
	path, _, _ = strings.Cut(path, "#")
	path = strings.ToLower(path)
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
