package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitebrief/models"
)

// BreakerState reports whether the scraping service breaker is open.
// *scraper.ServiceStrategy satisfies it.
type BreakerState interface {
	Open() bool
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades while the scraping service breaker is open: runs still
// succeed through the fallback strategies, only slower and thinner.
func Health(strategies []string, breaker BreakerState, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		open := breaker != nil && breaker.Open()

		status := "healthy"
		if open {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:            status,
			Version:           version,
			Strategies:        strategies,
			ScrapeServiceOpen: open,
		})
	}
}
