package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RunFinished("ok")
		m.ObserveStage("scrape", time.Second)
		m.PageFetch("direct", "ok")
		m.AnalysisAttempt(1, "ok")
		m.CacheLookup(true)
		m.WebhookDelivered(false)
		m.BreakerOpen("scrape_service", true)
	})
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, reg)

	m.PageFetch("direct", "ok")
	m.PageFetch("direct", "ok")
	m.PageFetch("service", "error")
	m.RunFinished("NO_CREDITS")

	body := scrape(t, m)
	assert.Contains(t, body, `sitebrief_page_fetches_total{result="ok",strategy="direct"} 2`)
	assert.Contains(t, body, `sitebrief_page_fetches_total{result="error",strategy="service"} 1`)
	assert.Contains(t, body, `sitebrief_pipeline_runs_total{outcome="NO_CREDITS"} 1`)
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, reg)
	m.CacheLookup(true)

	body := scrape(t, m)

	assert.Contains(t, body, `sitebrief_cache_lookups_total{result="hit"} 1`)
}
