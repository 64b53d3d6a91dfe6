package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitebrief/cache"
	"github.com/use-agent/sitebrief/gate"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/models"
	"github.com/use-agent/sitebrief/pipeline"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. URL admissibility check.
//  3. Cache lookup when max_age > 0.
//  4. Orchestrated scrape of homepage + subpages  (records scrape_ms)
//  5. Cache store, respond.
//
// cc and m may be nil.
func Scrape(urls gate.URLChecker, sc pipeline.SiteScraper, cc *cache.Cache, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidInput(err), nil)
			return
		}
		req.Defaults()

		// ── 2. URL check ────────────────────────────────────────────
		verdict := urls.Check(req.URL)
		if !verdict.Valid {
			respondError(c, models.NewError(models.KindPrecondition, models.ErrCodeInvalidURL, verdict.Reason, nil), nil)
			return
		}
		siteURL := verdict.Normalized

		// ── 3. Cache lookup ─────────────────────────────────────────
		var cacheKey string
		if cc != nil && req.MaxAge > 0 {
			cacheKey = cache.Key(siteURL, req.Tier)
			cached, hit := cc.Get(cacheKey, time.Duration(req.MaxAge)*time.Millisecond)
			m.CacheLookup(hit)
			if hit {
				c.JSON(http.StatusOK, models.ScrapeResponse{
					Success:     true,
					Result:      cached,
					CacheStatus: "hit",
					Timing:      models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
				})
				return
			}
		}

		// ── 4. Scrape ───────────────────────────────────────────────
		scrapeStart := time.Now()
		agg := sc.Scrape(c.Request.Context(), siteURL, req.Tier)
		timing := models.TimingInfo{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			ScrapeMs: time.Since(scrapeStart).Milliseconds(),
		}
		if agg == nil || !agg.Success {
			msg := "homepage could not be fetched"
			if agg != nil && agg.Error != "" {
				msg = agg.Error
			}
			respondError(c, models.NewError(models.KindScrape, models.ErrCodeScrapeFailed, msg, nil), &timing)
			return
		}

		// ── 5. Cache store + respond ────────────────────────────────
		resp := models.ScrapeResponse{Success: true, Result: agg, Timing: timing}
		if cacheKey != "" {
			cc.Set(cacheKey, agg)
			resp.CacheStatus = "miss"
		}
		c.JSON(http.StatusOK, resp)
	}
}
