package extract

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var mdLinkRe = regexp.MustCompile(`(?:^|[^!])\[[^\]]*\]\(\s*<?([^)\s>]+)`)

var skippedLinkExts = []string{
	".js", ".css", ".xml", ".pdf", ".zip", ".ico",
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".mp4", ".webm",
}

// Links returns the same-site page links in raw, resolved against pageURL.
// Results have no fragment and no trailing slash, and never include the site
// root or pageURL itself.
func Links(raw, pageURL string) []string {
	var candidates []string
	if doc := parseDoc(raw); doc != nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				candidates = append(candidates, href)
			}
		})
	}
	for _, m := range mdLinkRe.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, m[1])
	}
	return FilterLinks(candidates, pageURL)
}

// FilterLinks applies the Links rules to an already collected list, such as
// the links reported by a scraping service or a site map.
func FilterLinks(candidates []string, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return []string{}
	}
	self := NormalizeLink(base)

	set := newOrderedSet()
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || strings.HasPrefix(c, "#") {
			continue
		}
		u, err := base.Parse(c)
		if err != nil {
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			continue
		}
		if siteHost(u) != siteHost(base) {
			continue
		}
		if skipPath(u.Path) {
			continue
		}

		// Same-site links take the page's host so www and bare variants dedupe.
		u.Host = canonicalHost(base)
		norm := NormalizeLink(u)
		if norm == self || isRoot(u) {
			continue
		}
		set.add(norm)
	}
	return set.list()
}

// NormalizeLink renders u without fragment, default port or trailing slash.
func NormalizeLink(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	c.Host = canonicalHost(u)
	c.Path = strings.TrimRight(c.Path, "/")
	c.RawPath = ""
	return strings.TrimRight(c.String(), "/")
}

// isRoot reports whether u points at the site root. Query strings such as
// tracking parameters do not make it a different page.
func isRoot(u *url.URL) bool {
	return strings.Trim(u.Path, "/") == ""
}

// canonicalHost is u's host lowercased, without the scheme's default port.
func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || (port == "443" && u.Scheme == "https") || (port == "80" && u.Scheme == "http") {
		return host
	}
	return net.JoinHostPort(host, port)
}

// siteHost identifies the site u belongs to: acme.com and www.acme.com are
// the same site.
func siteHost(u *url.URL) string {
	return strings.TrimPrefix(canonicalHost(u), "www.")
}

func skipPath(path string) bool {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "/_") || strings.Contains(lower, "/api/") {
		return true
	}
	for _, ext := range skippedLinkExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
