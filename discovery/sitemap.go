package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"
)

// sitemapIndex represents a sitemap index XML file.
type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

// urlset represents a sitemap URL set XML file.
type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc string `xml:"loc"`
}

// maxSitemapBytes bounds every sitemap or robots.txt body.
const maxSitemapBytes = 5 << 20

// SitemapMapper reads /sitemap.xml plus any Sitemap: lines in robots.txt.
// Sitemap indexes are followed one level deep, and URLs that robots.txt
// disallows for the configured agent are dropped.
type SitemapMapper struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxURLs   int
}

// NewSitemapMapper creates a SitemapMapper. maxURLs caps the result.
func NewSitemapMapper(userAgent string, timeout time.Duration, maxURLs int) *SitemapMapper {
	return &SitemapMapper{
		client:    &http.Client{},
		userAgent: userAgent,
		timeout:   timeout,
		maxURLs:   maxURLs,
	}
}

func (m *SitemapMapper) Map(ctx context.Context, siteURL string) ([]string, error) {
	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("sitemap: invalid site url %q", siteURL)
	}
	origin := parsed.Scheme + "://" + parsed.Host

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	robots := m.robots(ctx, origin)

	sources := []string{origin + "/sitemap.xml"}
	if robots != nil {
		for _, s := range robots.Sitemaps {
			if s != sources[0] {
				sources = append(sources, s)
			}
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, src := range sources {
		for _, u := range m.fetchSitemap(ctx, src, 1) {
			if len(out) >= m.maxURLs {
				return out, nil
			}
			if _, ok := seen[u]; ok {
				continue
			}
			if robots != nil && !allowed(robots, u, m.userAgent) {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out, nil
}

// robots fetches and parses robots.txt, returning nil when unavailable.
func (m *SitemapMapper) robots(ctx context.Context, origin string) *robotstxt.RobotsData {
	status, body, err := m.get(ctx, origin+"/robots.txt")
	if err != nil {
		slog.Debug("robots.txt unavailable", "origin", origin, "error", err)
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		slog.Debug("robots.txt unparsable", "origin", origin, "error", err)
		return nil
	}
	return data
}

// fetchSitemap returns the page URLs of a sitemap. Index files are expanded
// while depth allows.
func (m *SitemapMapper) fetchSitemap(ctx context.Context, sitemapURL string, depth int) []string {
	status, body, err := m.get(ctx, sitemapURL)
	if err != nil || status != http.StatusOK {
		return nil
	}

	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err == nil && len(idx.Sitemaps) > 0 {
		if depth == 0 {
			return nil
		}
		var urls []string
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				urls = append(urls, m.fetchSitemap(ctx, loc, depth-1)...)
			}
		}
		return urls
	}

	var us urlset
	if err := xml.Unmarshal(body, &us); err != nil {
		return nil
	}
	urls := make([]string, 0, len(us.URLs))
	for _, u := range us.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls
}

func (m *SitemapMapper) get(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func allowed(robots *robotstxt.RobotsData, target, agent string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, agent)
}
