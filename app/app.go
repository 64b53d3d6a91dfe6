// Package app assembles the sitebrief service from configuration.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/sitebrief/api"
	"github.com/use-agent/sitebrief/api/handler"
	"github.com/use-agent/sitebrief/cache"
	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/crawl"
	"github.com/use-agent/sitebrief/discovery"
	"github.com/use-agent/sitebrief/gate"
	"github.com/use-agent/sitebrief/llm"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/pipeline"
	"github.com/use-agent/sitebrief/scraper"
	"github.com/use-agent/sitebrief/webhook"
)

// discoveryLimit caps the URLs taken from each site-map source before
// filtering and prioritisation.
const discoveryLimit = 200

const jobRetention = time.Hour

// App holds every long-lived component of the service.
type App struct {
	Config       *config.Config
	Metrics      *metrics.Metrics
	Fetcher      *scraper.Fetcher
	Orchestrator *crawl.Orchestrator
	Coordinator  *pipeline.Coordinator
	URLs         gate.URLChecker
	Cache        *cache.Cache
	Jobs         *handler.JobStore
	Notifier     *webhook.Notifier

	service *scraper.ServiceStrategy
	browser *scraper.BrowserStrategy
}

// Build wires the components described by cfg. m may be nil.
//
// The fetch chain is [service, direct, browser]: the scraping service only
// when a base URL is configured, the browser only when enabled.
func Build(cfg *config.Config, m *metrics.Metrics) (*App, error) {
	a := &App{Config: cfg, Metrics: m, URLs: gate.DefaultURLChecker}

	// ── 1. Fetch strategies ─────────────────────────────────────────
	var strategies []scraper.Strategy
	if cfg.ScrapeService.BaseURL != "" {
		a.service = scraper.NewServiceStrategy(cfg.ScrapeService, m)
		strategies = append(strategies, a.service)
	}
	strategies = append(strategies, scraper.NewDirectStrategy(cfg.Fetch))
	if cfg.Browser.Enabled {
		b, err := scraper.NewBrowserStrategy(cfg.Browser)
		if err != nil {
			return nil, fmt.Errorf("app: browser strategy: %w", err)
		}
		a.browser = b
		strategies = append(strategies, b)
	}
	a.Fetcher = scraper.NewFetcher(strategies, scraper.TextCaps{
		Homepage: cfg.Limits.HomepageChars,
		Subpage:  cfg.Limits.SubpageChars,
	}, m)

	// ── 2. Discovery ────────────────────────────────────────────────
	var mappers discovery.Multi
	if cfg.ScrapeService.BaseURL != "" {
		mappers = append(mappers, discovery.NewServiceMapper(
			cfg.ScrapeService.BaseURL, cfg.ScrapeService.APIKey, cfg.ScrapeService.MapTimeout, discoveryLimit))
	}
	mappers = append(mappers, discovery.NewSitemapMapper(cfg.Fetch.UserAgent, cfg.Fetch.SitemapTimeout, discoveryLimit))

	a.Orchestrator = crawl.NewOrchestrator(a.Fetcher, mappers, crawl.LimitsFromConfig(cfg.Limits))

	// ── 3. Generation stages ────────────────────────────────────────
	content := llm.NewOpenAI(cfg.LLM)
	var design llm.Generator
	if cfg.Design.APIKey != "" {
		design = llm.NewAnthropic(cfg.Design)
	}

	a.Coordinator = pipeline.NewCoordinator(pipeline.Components{
		Credits:    gate.NewCreditChecker(cfg.Credits),
		URLs:       a.URLs,
		Scraper:    a.Orchestrator,
		Analyzer:   pipeline.NewAnalyzer(content, cfg.LLM.AnalysisMaxTokens, m),
		Designer:   pipeline.NewDesigner(design, cfg.Design.MaxTokens),
		Blueprints: pipeline.NewBlueprintGenerator(content, cfg.LLM.BlueprintMaxTokens),
		Metrics:    m,
	})

	// ── 4. Serving infrastructure ───────────────────────────────────
	a.Cache = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	a.Jobs = handler.NewJobStore(jobRetention)
	a.Notifier = webhook.NewNotifier(cfg.Webhook, m)

	slog.Info("components ready",
		"strategies", a.Fetcher.Strategies(),
		"mappers", len(mappers),
		"design", design != nil,
		"credits", cfg.Credits.RedisAddr != "",
	)
	return a, nil
}

// Deps returns the collaborators for api.NewRouter.
func (a *App) Deps(version string) api.Deps {
	d := api.Deps{
		URLs:       a.URLs,
		Scraper:    a.Orchestrator,
		Runner:     a.Coordinator,
		Jobs:       a.Jobs,
		Cache:      a.Cache,
		Notifier:   a.Notifier,
		Metrics:    a.Metrics,
		Strategies: a.Fetcher.Strategies(),
		Version:    version,
	}
	if a.service != nil {
		d.Breaker = a.service
	}
	return d
}

// Close waits for pending webhook deliveries and releases background
// resources.
func (a *App) Close() {
	a.Notifier.Wait()
	a.Cache.Close()
	a.Jobs.Close()
	if a.browser != nil {
		a.browser.Close()
	}
}
