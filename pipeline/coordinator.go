// Package pipeline runs a site through credit and URL checks, scraping,
// content analysis, optional design consultation and blueprint generation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/sitebrief/gate"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/models"
)

// SiteScraper crawls a site into one aggregated result. *crawl.Orchestrator
// satisfies it.
type SiteScraper interface {
	Scrape(ctx context.Context, siteURL string, tier models.Tier) *models.AggregatedScrapeResult
}

// RunRequest identifies a single run.
type RunRequest struct {
	URL    string
	UserID string
	Tier   models.Tier
}

// RunResult is everything a successful run produced.
type RunResult struct {
	Scrape         *models.AggregatedScrapeResult
	Brief          *models.ContentBrief
	Blueprint      *models.Blueprint
	DesignGuidance string
	HasGuidance    bool
	Timing         models.TimingInfo
}

// Components are the collaborators of a Coordinator. Credits and URLs
// default to gate.Unlimited and gate.DefaultURLChecker.
type Components struct {
	Credits    gate.CreditChecker
	URLs       gate.URLChecker
	Scraper    SiteScraper
	Analyzer   *Analyzer
	Designer   *Designer
	Blueprints *BlueprintGenerator
	Metrics    *metrics.Metrics
}

// Coordinator sequences the stages of a run. It holds no per-run state and
// is safe for concurrent use.
type Coordinator struct {
	c Components
}

func NewCoordinator(c Components) *Coordinator {
	if c.Credits == nil {
		c.Credits = gate.Unlimited{}
	}
	if c.URLs == nil {
		c.URLs = gate.DefaultURLChecker
	}
	return &Coordinator{c: c}
}

// Run executes the pipeline. Every failure is a *models.Error whose Kind
// names the stage that stopped the run; later stages are not started.
func (p *Coordinator) Run(ctx context.Context, req RunRequest) (result *RunResult, err error) {
	start := time.Now()
	timing := models.TimingInfo{}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panic", "url", req.URL, "panic", r)
			result = nil
			err = models.NewError(models.KindInternal, models.ErrCodeInternal, fmt.Sprintf("internal error: %v", r), nil)
		}
		p.c.Metrics.RunFinished(outcome(err))
	}()
	if req.Tier == "" {
		req.Tier = models.TierFree
	}

	// ── 1. Preconditions ────────────────────────────────────────────
	ok, cerr := p.c.Credits.HasCredits(ctx, req.UserID)
	if cerr != nil {
		return nil, models.NewError(models.KindPrecondition, models.ErrCodeCreditCheckFailed,
			"credit check failed", cerr)
	}
	if !ok {
		return nil, models.NewError(models.KindPrecondition, models.ErrCodeNoCredits,
			"no credits remaining", nil)
	}

	verdict := p.c.URLs.Check(req.URL)
	if !verdict.Valid {
		return nil, models.NewError(models.KindPrecondition, models.ErrCodeInvalidURL, verdict.Reason, nil)
	}
	siteURL := verdict.Normalized

	// ── 2. Scrape ───────────────────────────────────────────────────
	stageStart := time.Now()
	agg := p.c.Scraper.Scrape(ctx, siteURL, req.Tier)
	timing.ScrapeMs = p.observe("scrape", stageStart)
	if agg == nil || !agg.Success {
		msg := "homepage could not be fetched"
		if agg != nil && agg.Error != "" {
			msg = agg.Error
		}
		return nil, models.NewError(models.KindScrape, models.ErrCodeScrapeFailed, msg, nil)
	}

	// ── 3. Analyze ──────────────────────────────────────────────────
	stageStart = time.Now()
	brief, err := p.c.Analyzer.Analyze(ctx, agg)
	timing.AnalyzeMs = p.observe("analyze", stageStart)
	if err != nil {
		return nil, err
	}

	// ── 4. Consult (best-effort) ────────────────────────────────────
	stageStart = time.Now()
	guidance, hasGuidance := p.c.Designer.Consult(ctx, brief)
	timing.ConsultMs = p.observe("consult", stageStart)

	// ── 5. Generate ─────────────────────────────────────────────────
	stageStart = time.Now()
	bp, err := p.c.Blueprints.Generate(ctx, brief, guidance, agg.DiscoveredURLs)
	timing.GenerateMs = p.observe("generate", stageStart)
	if err != nil {
		return nil, err
	}

	timing.TotalMs = time.Since(start).Milliseconds()
	slog.Info("pipeline finished",
		"url", siteURL,
		"business", brief.Business.Name,
		"blueprint", bp.Kind(),
		"guidance", hasGuidance,
		"total_ms", timing.TotalMs,
	)
	return &RunResult{
		Scrape:         agg,
		Brief:          brief,
		Blueprint:      bp,
		DesignGuidance: guidance,
		HasGuidance:    hasGuidance,
		Timing:         timing,
	}, nil
}

func (p *Coordinator) observe(stage string, since time.Time) int64 {
	d := time.Since(since)
	p.c.Metrics.ObserveStage(stage, d)
	return d.Milliseconds()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return models.AsError(err).Code
}
