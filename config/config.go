package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Cache         CacheConfig
	ScrapeService ScrapeServiceConfig
	Fetch         FetchConfig
	Browser       BrowserConfig
	Limits        LimitsConfig
	LLM           LLMConfig
	Design        DesignConfig
	Credits       CreditsConfig
	Webhook       WebhookConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: true
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 1
	Burst             int     // default: 3
}

// CacheConfig controls the aggregated scrape cache.
type CacheConfig struct {
	MaxEntries int           // default: 500
	TTL        time.Duration // default: 1h
}

// ScrapeServiceConfig points at the remote scraping service (the primary
// strategy) and its site-map endpoint. An empty BaseURL disables both.
type ScrapeServiceConfig struct {
	BaseURL string
	APIKey  string

	// WaitFor is the render delay requested from the service.
	WaitFor time.Duration // default: 2s

	HomepageTimeout time.Duration // default: 30s
	SubpageTimeout  time.Duration // default: 20s
	MapTimeout      time.Duration // default: 15s

	// BreakerFailures / BreakerWindow trip the circuit breaker guarding the
	// service; BreakerDelay is how long it stays open.
	BreakerFailures uint          // default: 3
	BreakerWindow   uint          // default: 5
	BreakerDelay    time.Duration // default: 30s
}

// FetchConfig controls the direct HTTP fallback.
type FetchConfig struct {
	UserAgent       string
	Proxy           string
	HomepageTimeout time.Duration // default: 15s
	SubpageTimeout  time.Duration // default: 12s
	SitemapTimeout  time.Duration // default: 10s
}

// BrowserConfig controls the optional rod browser strategy.
type BrowserConfig struct {
	Enabled    bool // default: false
	Headless   bool // default: true
	NoSandbox  bool // default: false
	BrowserBin string
	MaxPages   int           // default: 4
	Timeout    time.Duration // default: 30s

	// BlockedResourceTypes lists resource types the browser never loads.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string
}

// LimitsConfig feeds crawl.Limits.
type LimitsConfig struct {
	FreeSubpages       int // default: 2
	ProSubpages        int // default: 5
	HomepageChars      int // default: 15000
	SubpageChars       int // default: 6000
	CombinedChars      int // default: 30000
	MaxImages          int // default: 20
	MaxVideos          int // default: 5
	MaxColors          int // default: 15
	MaxDiscovered      int // default: 50
	DuplicateThreshold int // default: 3
}

// LLMConfig configures the AI content-generation service (OpenAI-compatible).
type LLMConfig struct {
	BaseURL            string // default: "https://api.openai.com/v1"
	APIKey             string
	Model              string        // default: "gpt-4o-mini"
	Timeout            time.Duration // default: 120s
	MaxRetries         int           // transport retries on 429/5xx; default: 2
	AnalysisMaxTokens  int           // default: 8000
	BlueprintMaxTokens int           // default: 12000
}

// DesignConfig configures the secondary AI service used for design
// consultation (Anthropic Messages API). An empty APIKey disables it.
type DesignConfig struct {
	BaseURL   string // default: "https://api.anthropic.com"
	APIKey    string
	Model     string        // default: "claude-sonnet-4-5"
	Timeout   time.Duration // default: 60s
	MaxTokens int           // default: 2000
}

// CreditsConfig configures the redis-backed credit gate. An empty RedisAddr
// means every user has credits.
type CreditsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string        // default: "sitebrief:credits:"
	Timeout       time.Duration // default: 2s
}

// WebhookConfig controls delivery of finished runs.
type WebhookConfig struct {
	Timeout time.Duration // default: 10s
	Retries []time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A local .env file, when present, is loaded first.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("SITEBRIEF_HOST", "0.0.0.0"),
			Port: envIntOr("SITEBRIEF_PORT", 8080),
			Mode: envOr("SITEBRIEF_MODE", "release"),
		},
		Log: LogConfig{
			Level:  envOr("SITEBRIEF_LOG_LEVEL", "info"),
			Format: envOr("SITEBRIEF_LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITEBRIEF_AUTH_ENABLED", true),
			APIKeys: envSliceOr("SITEBRIEF_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITEBRIEF_RATE_RPS", 1.0),
			Burst:             envIntOr("SITEBRIEF_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SITEBRIEF_CACHE_MAX_ENTRIES", 500),
			TTL:        envDurationOr("SITEBRIEF_CACHE_TTL", time.Hour),
		},
		ScrapeService: ScrapeServiceConfig{
			BaseURL:         os.Getenv("SITEBRIEF_SCRAPE_SERVICE_URL"),
			APIKey:          os.Getenv("SITEBRIEF_SCRAPE_SERVICE_KEY"),
			WaitFor:         envDurationOr("SITEBRIEF_SCRAPE_WAIT_FOR", 2*time.Second),
			HomepageTimeout: envDurationOr("SITEBRIEF_SCRAPE_HOME_TIMEOUT", 30*time.Second),
			SubpageTimeout:  envDurationOr("SITEBRIEF_SCRAPE_SUB_TIMEOUT", 20*time.Second),
			MapTimeout:      envDurationOr("SITEBRIEF_SCRAPE_MAP_TIMEOUT", 15*time.Second),
			BreakerFailures: uint(envIntOr("SITEBRIEF_SCRAPE_BREAKER_FAILURES", 3)),
			BreakerWindow:   uint(envIntOr("SITEBRIEF_SCRAPE_BREAKER_WINDOW", 5)),
			BreakerDelay:    envDurationOr("SITEBRIEF_SCRAPE_BREAKER_DELAY", 30*time.Second),
		},
		Fetch: FetchConfig{
			UserAgent:       envOr("SITEBRIEF_USER_AGENT", defaultUserAgent),
			Proxy:           os.Getenv("SITEBRIEF_PROXY"),
			HomepageTimeout: envDurationOr("SITEBRIEF_FETCH_HOME_TIMEOUT", 15*time.Second),
			SubpageTimeout:  envDurationOr("SITEBRIEF_FETCH_SUB_TIMEOUT", 12*time.Second),
			SitemapTimeout:  envDurationOr("SITEBRIEF_SITEMAP_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			Enabled:    envBoolOr("SITEBRIEF_BROWSER_ENABLED", false),
			Headless:   envBoolOr("SITEBRIEF_HEADLESS", true),
			NoSandbox:  envBoolOr("SITEBRIEF_NO_SANDBOX", false),
			BrowserBin: os.Getenv("SITEBRIEF_BROWSER_BIN"),
			MaxPages:   envIntOr("SITEBRIEF_BROWSER_MAX_PAGES", 4),
			Timeout:    envDurationOr("SITEBRIEF_BROWSER_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("SITEBRIEF_BROWSER_BLOCKED", []string{
				"Font", "Media",
			}),
		},
		Limits: LimitsConfig{
			FreeSubpages:       envIntOr("SITEBRIEF_FREE_SUBPAGES", 2),
			ProSubpages:        envIntOr("SITEBRIEF_PRO_SUBPAGES", 5),
			HomepageChars:      envIntOr("SITEBRIEF_HOMEPAGE_CHARS", 15000),
			SubpageChars:       envIntOr("SITEBRIEF_SUBPAGE_CHARS", 6000),
			CombinedChars:      envIntOr("SITEBRIEF_COMBINED_CHARS", 30000),
			MaxImages:          envIntOr("SITEBRIEF_MAX_IMAGES", 20),
			MaxVideos:          envIntOr("SITEBRIEF_MAX_VIDEOS", 5),
			MaxColors:          envIntOr("SITEBRIEF_MAX_COLORS", 15),
			MaxDiscovered:      envIntOr("SITEBRIEF_MAX_DISCOVERED", 50),
			DuplicateThreshold: envIntOr("SITEBRIEF_DUPLICATE_THRESHOLD", 3),
		},
		LLM: LLMConfig{
			BaseURL:            envOr("SITEBRIEF_LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:             os.Getenv("SITEBRIEF_LLM_API_KEY"),
			Model:              envOr("SITEBRIEF_LLM_MODEL", "gpt-4o-mini"),
			Timeout:            envDurationOr("SITEBRIEF_LLM_TIMEOUT", 120*time.Second),
			MaxRetries:         envIntOr("SITEBRIEF_LLM_MAX_RETRIES", 2),
			AnalysisMaxTokens:  envIntOr("SITEBRIEF_ANALYSIS_MAX_TOKENS", 8000),
			BlueprintMaxTokens: envIntOr("SITEBRIEF_BLUEPRINT_MAX_TOKENS", 12000),
		},
		Design: DesignConfig{
			BaseURL:   envOr("SITEBRIEF_DESIGN_BASE_URL", "https://api.anthropic.com"),
			APIKey:    os.Getenv("SITEBRIEF_DESIGN_API_KEY"),
			Model:     envOr("SITEBRIEF_DESIGN_MODEL", "claude-sonnet-4-5"),
			Timeout:   envDurationOr("SITEBRIEF_DESIGN_TIMEOUT", 60*time.Second),
			MaxTokens: envIntOr("SITEBRIEF_DESIGN_MAX_TOKENS", 2000),
		},
		Credits: CreditsConfig{
			RedisAddr:     os.Getenv("SITEBRIEF_REDIS_ADDR"),
			RedisPassword: os.Getenv("SITEBRIEF_REDIS_PASSWORD"),
			RedisDB:       envIntOr("SITEBRIEF_REDIS_DB", 0),
			KeyPrefix:     envOr("SITEBRIEF_CREDITS_PREFIX", "sitebrief:credits:"),
			Timeout:       envDurationOr("SITEBRIEF_CREDITS_TIMEOUT", 2*time.Second),
		},
		Webhook: WebhookConfig{
			Timeout: envDurationOr("SITEBRIEF_WEBHOOK_TIMEOUT", 10*time.Second),
			Retries: envDurationSliceOr("SITEBRIEF_WEBHOOK_RETRIES", []time.Duration{
				time.Second, 5 * time.Second, 30 * time.Second,
			}),
		},
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 SiteBrief/1.0"

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
