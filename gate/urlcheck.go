package gate

import (
	"net"
	"net/url"
	"strings"
)

// Verdict is the outcome of CheckURL. Normalized is only set when Valid.
type Verdict struct {
	Valid      bool
	Reason     string
	Normalized string
}

// URLChecker decides whether a URL may be processed.
type URLChecker interface {
	Check(raw string) Verdict
}

// URLCheckFunc adapts a function to URLChecker.
type URLCheckFunc func(raw string) Verdict

func (f URLCheckFunc) Check(raw string) Verdict { return f(raw) }

// DefaultURLChecker applies CheckURL.
var DefaultURLChecker URLChecker = URLCheckFunc(CheckURL)

type blockRule struct {
	category string
	domains  []string // exact domain or any subdomain of it
	brands   []string // second-level label under any TLD, e.g. "amazon" matches amazon.co.uk
}

var blocklist = []blockRule{
	{
		category: "e-commerce platform",
		domains:  []string{"myshopify.com", "shopify.com", "etsy.com", "bigcartel.com"},
		brands:   []string{"amazon", "ebay"},
	},
	{
		category: "social network",
		domains: []string{
			"facebook.com", "instagram.com", "twitter.com", "x.com", "tiktok.com",
			"linkedin.com", "youtube.com", "pinterest.com",
		},
	},
	{
		category: "SaaS web app",
		domains:  []string{"docs.google.com", "notion.so", "airtable.com", "figma.com", "canva.com"},
	},
	{
		category: "developer or blogging platform",
		domains: []string{
			"github.com", "gitlab.com", "medium.com", "substack.com", "dev.to",
			"blogspot.com", "wordpress.com",
		},
	},
}

// CheckURL validates raw for processing. A missing scheme defaults to https.
// The URL must use http(s), name a dotted hostname that is neither localhost
// nor an IP literal, and must not belong to a blocklisted platform.
func CheckURL(raw string) Verdict {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid("URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return invalid("URL is malformed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("only http and https URLs are supported")
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	switch {
	case host == "":
		return invalid("URL has no host")
	case host == "localhost" || strings.HasSuffix(host, ".localhost"):
		return invalid("local addresses are not allowed")
	case net.ParseIP(host) != nil:
		return invalid("IP addresses are not allowed")
	case !strings.Contains(host, "."):
		return invalid("hostname must contain a domain")
	}

	if category, ok := blocked(host); ok {
		return invalid("unsupported " + category + ": " + host)
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return Verdict{Valid: true, Normalized: u.String()}
}

func blocked(host string) (string, bool) {
	labels := strings.Split(host, ".")
	for _, rule := range blocklist {
		for _, d := range rule.domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return rule.category, true
			}
		}
		for _, b := range rule.brands {
			if brandLabel(labels, b) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// brandLabel reports whether brand is the registrable label of the host,
// i.e. only short suffix labels such as "co" or "com" follow it.
func brandLabel(labels []string, brand string) bool {
	for i, l := range labels {
		if l != brand || i == len(labels)-1 {
			continue
		}
		suffix := true
		for _, rest := range labels[i+1:] {
			if len(rest) > 3 {
				suffix = false
				break
			}
		}
		if suffix {
			return true
		}
	}
	return false
}

func invalid(reason string) Verdict {
	return Verdict{Reason: reason}
}
