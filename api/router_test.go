package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/sitebrief/api/handler"
	"github.com/use-agent/sitebrief/cache"
	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/models"
	"github.com/use-agent/sitebrief/pipeline"
	"github.com/use-agent/sitebrief/webhook"
)

const testKey = "test-key"

type countingScraper struct {
	mu    sync.Mutex
	calls []string
}

func (s *countingScraper) Scrape(_ context.Context, siteURL string, _ models.Tier) *models.AggregatedScrapeResult {
	s.mu.Lock()
	s.calls = append(s.calls, siteURL)
	s.mu.Unlock()

	if strings.Contains(siteURL, "down.example") {
		return &models.AggregatedScrapeResult{URL: siteURL, Error: "direct fetch: HTTP 503 for " + siteURL}
	}
	return &models.AggregatedScrapeResult{
		Success:          true,
		URL:              siteURL,
		CombinedMarkdown: "## Homepage: " + siteURL + "\n\nWelcome",
		Images:           []string{},
		Videos:           []string{},
		Colors:           []models.RankedColor{{Hex: "#1a73e8", Count: 3}},
		ScrapedURLs:      []string{siteURL},
		DiscoveredURLs:   []string{},
	}
}

func (s *countingScraper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubRunner struct {
	mu   sync.Mutex
	reqs []pipeline.RunRequest
	err  error
}

func (r *stubRunner) Run(_ context.Context, req pipeline.RunRequest) (*pipeline.RunResult, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	bp := models.NewBlockBlueprint([]models.Block{{Type: "hero"}}, models.ColorScheme{Primary: "#1a73e8"})
	return &pipeline.RunResult{
		Brief: &models.ContentBrief{
			Business: models.BusinessInfo{Name: "Acme Plumbing"},
			Sections: []models.Section{{Title: "About", Content: "Since 1998."}},
		},
		Blueprint:   bp,
		HasGuidance: true,
		Timing:      models.TimingInfo{TotalMs: 12},
	}, nil
}

func (r *stubRunner) lastRequest() pipeline.RunRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

type openBreaker bool

func (b openBreaker) Open() bool { return bool(b) }

type fixture struct {
	router  http.Handler
	scraper *countingScraper
	runner  *stubRunner
	jobs    *handler.JobStore
	notify  *webhook.Notifier
}

func newFixture(t *testing.T, mutate func(*config.Config, *Deps)) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{Enabled: true, APIKeys: []string{testKey}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}

	cc := cache.New(10, time.Hour)
	t.Cleanup(cc.Close)
	jobs := handler.NewJobStore(time.Hour)
	t.Cleanup(jobs.Close)

	m := metrics.New(prometheus.NewRegistry(), nil)
	f := &fixture{
		scraper: &countingScraper{},
		runner:  &stubRunner{},
		jobs:    jobs,
		notify:  webhook.NewNotifier(config.WebhookConfig{Timeout: 2 * time.Second}, m),
	}
	d := Deps{
		Scraper:    f.scraper,
		Runner:     f.runner,
		Jobs:       jobs,
		Cache:      cc,
		Notifier:   f.notify,
		Metrics:    m,
		Strategies: []string{"service", "direct"},
		Version:    "test",
	}
	if mutate != nil {
		mutate(cfg, &d)
	}
	f.router = NewRouter(ctx, d, cfg)
	return f
}

func (f *fixture) do(method, path string, body any, key string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ── Health / metrics ────────────────────────────────────────────────

func TestHealth_NoAuthRequired(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, []string{"service", "direct"}, resp.Strategies)
	assert.False(t, resp.ScrapeServiceOpen)
}

func TestHealth_DegradedWhileBreakerOpen(t *testing.T) {
	f := newFixture(t, func(_ *config.Config, d *Deps) { d.Breaker = openBreaker(true) })

	resp := decode[models.HealthResponse](t, f.do(http.MethodGet, "/api/v1/health", nil, ""))
	assert.Equal(t, "degraded", resp.Status)
	assert.True(t, resp.ScrapeServiceOpen)
}

func TestMetrics_Exposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, func(_ *config.Config, d *Deps) { d.Metrics = metrics.New(reg, reg) })

	f.do(http.MethodGet, "/api/v1/health", nil, "")
	w := f.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sitebrief_http_requests_total")
}

// ── Auth / rate limit ───────────────────────────────────────────────

func TestAuth_MissingKey(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "acme.example.com"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, models.ErrCodeUnauthorized, resp.Error.Code)
	assert.Zero(t, f.scraper.count())
}

func TestAuth_InvalidKey(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "acme.example.com"}, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid API key")
}

func TestAuth_BearerAccepted(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(`{"url":"acme.example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testKey)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_DisabledAllowsAnonymous(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, _ *Deps) { cfg.Auth.Enabled = false })

	w := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "acme.example.com"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_Exceeded(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config, _ *Deps) {
		cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1}
	})

	first := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "acme.example.com"}, testKey)
	require.Equal(t, http.StatusOK, first.Code)

	second := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "acme.example.com"}, testKey)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "100", second.Header().Get("Retry-After"))
	assert.Equal(t, models.ErrCodeRateLimited, decode[models.ErrorResponse](t, second).Error.Code)
	assert.Equal(t, 1, f.scraper.count())
}

// ── Scrape ──────────────────────────────────────────────────────────

func TestScrape_Success(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "Acme.example.com"}, testKey)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.ScrapeResponse](t, w)
	require.True(t, resp.Success)
	assert.Equal(t, "https://acme.example.com", resp.Result.URL)
	assert.Empty(t, resp.CacheStatus)
	assert.Equal(t, []string{"https://acme.example.com"}, f.scraper.calls)
}

func TestScrape_InvalidURLNeverScrapes(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "https://cool-store.myshopify.com"}, testKey)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, models.ErrCodeInvalidURL, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unsupported e-commerce platform")
	assert.Zero(t, f.scraper.count())
}

func TestScrape_InvalidInput(t *testing.T) {
	f := newFixture(t, nil)

	cases := []any{
		map[string]any{},
		map[string]any{"url": "acme.example.com", "tier": "enterprise"},
		map[string]any{"url": "acme.example.com", "max_age": -1},
	}
	for _, body := range cases {
		w := f.do(http.MethodPost, "/api/v1/scrape", body, testKey)
		require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		assert.Equal(t, models.ErrCodeInvalidInput, decode[models.ErrorResponse](t, w).Error.Code)
	}
	assert.Zero(t, f.scraper.count())
}

func TestScrape_HomepageFailure(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/scrape", map[string]any{"url": "down.example.com"}, testKey)
	require.Equal(t, http.StatusBadGateway, w.Code)

	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, models.ErrCodeScrapeFailed, resp.Error.Code)
	assert.Equal(t, models.KindScrape, resp.Error.Kind)
	assert.Contains(t, resp.Error.Message, "HTTP 503")
	require.NotNil(t, resp.Timing)
}

func TestScrape_CacheMissThenHit(t *testing.T) {
	f := newFixture(t, nil)
	body := map[string]any{"url": "acme.example.com", "max_age": 60000}

	first := decode[models.ScrapeResponse](t, f.do(http.MethodPost, "/api/v1/scrape", body, testKey))
	assert.Equal(t, "miss", first.CacheStatus)

	second := decode[models.ScrapeResponse](t, f.do(http.MethodPost, "/api/v1/scrape", body, testKey))
	assert.Equal(t, "hit", second.CacheStatus)
	assert.Equal(t, first.Result.CombinedMarkdown, second.Result.CombinedMarkdown)
	assert.Equal(t, 1, f.scraper.count())

	// Another tier is another cache entry.
	body["tier"] = "pro"
	third := decode[models.ScrapeResponse](t, f.do(http.MethodPost, "/api/v1/scrape", body, testKey))
	assert.Equal(t, "miss", third.CacheStatus)
	assert.Equal(t, 2, f.scraper.count())
}

func TestScrape_NoMaxAgeBypassesCache(t *testing.T) {
	f := newFixture(t, nil)
	body := map[string]any{"url": "acme.example.com"}

	f.do(http.MethodPost, "/api/v1/scrape", body, testKey)
	f.do(http.MethodPost, "/api/v1/scrape", body, testKey)
	assert.Equal(t, 2, f.scraper.count())
}

// ── Generate ────────────────────────────────────────────────────────

func TestGenerate_Sync(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/generate", map[string]any{"url": "acme.example.com"}, testKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["design_guidance"])
	bp := resp["blueprint"].(map[string]any)
	assert.Equal(t, "block", bp["kind"])
	assert.Equal(t, "Acme Plumbing", resp["brief"].(map[string]any)["business"].(map[string]any)["name"])

	req := f.runner.lastRequest()
	assert.Equal(t, "acme.example.com", req.URL)
	assert.Equal(t, models.TierFree, req.Tier)
	assert.Equal(t, testKey, req.UserID, "user falls back to the API key")
}

func TestGenerate_ExplicitUser(t *testing.T) {
	f := newFixture(t, nil)

	f.do(http.MethodPost, "/api/v1/generate", map[string]any{"url": "acme.example.com", "user_id": "u-42", "tier": "pro"}, testKey)
	req := f.runner.lastRequest()
	assert.Equal(t, "u-42", req.UserID)
	assert.Equal(t, models.TierPro, req.Tier)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	cases := []struct {
		code   string
		kind   models.Kind
		status int
	}{
		{models.ErrCodeNoCredits, models.KindPrecondition, http.StatusPaymentRequired},
		{models.ErrCodeCreditCheckFailed, models.KindPrecondition, http.StatusServiceUnavailable},
		{models.ErrCodeInvalidURL, models.KindPrecondition, http.StatusBadRequest},
		{models.ErrCodeScrapeFailed, models.KindScrape, http.StatusBadGateway},
		{models.ErrCodeAnalysisFailed, models.KindAnalysis, http.StatusBadGateway},
		{models.ErrCodeGenerationFailed, models.KindGeneration, http.StatusBadGateway},
		{models.ErrCodeInternal, models.KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			f := newFixture(t, nil)
			f.runner.err = models.NewError(tc.kind, tc.code, "stopped", nil)

			w := f.do(http.MethodPost, "/api/v1/generate", map[string]any{"url": "acme.example.com"}, testKey)
			require.Equal(t, tc.status, w.Code)

			resp := decode[models.GenerateResponse](t, w)
			assert.False(t, resp.Success)
			assert.Nil(t, resp.Blueprint)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Equal(t, tc.kind, resp.Error.Kind)
		})
	}
}

func TestGenerate_AsyncWebhook(t *testing.T) {
	type delivery struct {
		signature string
		body      []byte
	}
	received := make(chan delivery, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- delivery{signature: r.Header.Get(webhook.SignatureHeader), body: body}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	f := newFixture(t, nil)
	w := f.do(http.MethodPost, "/api/v1/generate", map[string]any{
		"url":            "acme.example.com",
		"webhook_url":    hook.URL,
		"webhook_secret": "s3cret",
	}, testKey)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	accepted := decode[models.JobAccepted](t, w)
	require.NotEmpty(t, accepted.JobID)
	assert.Equal(t, models.JobProcessing, accepted.Status)

	var d delivery
	select {
	case d = <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
	f.notify.Wait()

	assert.Equal(t, webhook.Sign("s3cret", d.body), d.signature)
	var event map[string]any
	require.NoError(t, json.Unmarshal(d.body, &event))
	assert.Equal(t, webhook.EventGenerationCompleted, event["type"])
	assert.Equal(t, accepted.JobID, event["job_id"])

	job := decode[models.JobStatus](t, f.do(http.MethodGet, "/api/v1/jobs/"+accepted.JobID, nil, testKey))
	assert.Equal(t, models.JobCompleted, job.Status)
	assert.Equal(t, "acme.example.com", job.URL)
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.Success)
}

func TestGenerate_AsyncFailureEvent(t *testing.T) {
	received := make(chan map[string]any, 1)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event map[string]any
		_ = json.NewDecoder(r.Body).Decode(&event)
		received <- event
	}))
	defer hook.Close()

	f := newFixture(t, nil)
	f.runner.err = models.NewError(models.KindAnalysis, models.ErrCodeAnalysisFailed, "brief has no content sections", nil)

	accepted := decode[models.JobAccepted](t, f.do(http.MethodPost, "/api/v1/generate", map[string]any{
		"url":         "acme.example.com",
		"webhook_url": hook.URL,
	}, testKey))

	var event map[string]any
	select {
	case event = <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
	f.notify.Wait()
	assert.Equal(t, webhook.EventGenerationFailed, event["type"])

	job := decode[models.JobStatus](t, f.do(http.MethodGet, "/api/v1/jobs/"+accepted.JobID, nil, testKey))
	assert.Equal(t, models.JobFailed, job.Status)
	assert.Equal(t, models.ErrCodeAnalysisFailed, job.Result.Error.Code)
}

func TestJobs_NotFound(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/jobs/nope", nil, testKey)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.ErrCodeJobNotFound, decode[models.ErrorResponse](t, w).Error.Code)
}
