// Package api exposes the scrape and generate pipeline over HTTP.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitebrief/api/handler"
	"github.com/use-agent/sitebrief/api/middleware"
	"github.com/use-agent/sitebrief/cache"
	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/gate"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/pipeline"
	"github.com/use-agent/sitebrief/webhook"
)

// Deps are the collaborators the HTTP layer serves. Cache, Notifier,
// Metrics and Breaker may be nil.
type Deps struct {
	URLs     gate.URLChecker
	Scraper  pipeline.SiteScraper
	Runner   handler.Runner
	Jobs     *handler.JobStore
	Cache    *cache.Cache
	Notifier *webhook.Notifier
	Metrics  *metrics.Metrics

	Strategies []string
	Breaker    handler.BreakerState
	Version    string
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// Background sweepers started for the router stop when ctx is done.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → Metrics
//	API:     Auth (if enabled) → RateLimit
//
// Health and /metrics stay outside auth so probes and scrapers always work.
func NewRouter(ctx context.Context, d Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	if d.URLs == nil {
		d.URLs = gate.DefaultURLChecker
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(d.Metrics.Middleware())

	r.GET("/metrics", d.Metrics.Handler())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(d.Strategies, d.Breaker, d.Version))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(d.URLs, d.Scraper, d.Cache, d.Metrics))
	protected.POST("/generate", handler.Generate(d.Runner, d.Jobs, d.Notifier))
	protected.GET("/jobs/:id", handler.GetJob(d.Jobs))

	return r
}
