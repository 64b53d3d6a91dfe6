// Package metrics holds the Prometheus instruments for sitebrief. A nil
// *Metrics is valid and records nothing, so components can be built without
// instrumentation in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every instrument the service exports.
type Metrics struct {
	runsTotal        *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	pageFetches      *prometheus.CounterVec
	analysisAttempts *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	webhookDelivery  *prometheus.CounterVec
	breakerState     *prometheus.GaugeVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the instruments and registers them with reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{gatherer: gatherer}

	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebrief_pipeline_runs_total",
			Help: "Pipeline runs by outcome (ok or error code)",
		},
		[]string{"outcome"},
	)
	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitebrief_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"stage"},
	)
	m.pageFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebrief_page_fetches_total",
			Help: "Page fetch attempts by strategy and result",
		},
		[]string{"strategy", "result"},
	)
	m.analysisAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebrief_analysis_attempts_total",
			Help: "Content analysis attempts by attempt number and result",
		},
		[]string{"attempt", "result"},
	)
	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebrief_cache_lookups_total",
			Help: "Scrape cache lookups by result",
		},
		[]string{"result"},
	)
	m.webhookDelivery = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebrief_webhook_deliveries_total",
			Help: "Webhook deliveries by result",
		},
		[]string{"result"},
	)
	m.breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sitebrief_circuit_breaker_open",
			Help: "1 while the named circuit breaker is open",
		},
		[]string{"name"},
	)
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebrief_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitebrief_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	reg.MustRegister(
		m.runsTotal,
		m.stageDuration,
		m.pageFetches,
		m.analysisAttempts,
		m.cacheLookups,
		m.webhookDelivery,
		m.breakerState,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

// NewDefault registers with the global Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) PageFetch(strategy, result string) {
	if m == nil {
		return
	}
	m.pageFetches.WithLabelValues(strategy, result).Inc()
}

func (m *Metrics) AnalysisAttempt(attempt int, result string) {
	if m == nil {
		return
	}
	m.analysisAttempts.WithLabelValues(strconv.Itoa(attempt), result).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) WebhookDelivered(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "delivered"
	}
	m.webhookDelivery.WithLabelValues(result).Inc()
}

// BreakerOpen records the state of a circuit breaker.
func (m *Metrics) BreakerOpen(name string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.breakerState.WithLabelValues(name).Set(v)
}

// Middleware returns gin middleware that records request counts and
// latencies.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus exposition handler.
func (m *Metrics) Handler() gin.HandlerFunc {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
