package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/metrics"
	"github.com/use-agent/sitebrief/models"
)

// ServiceStrategy calls the remote scraping service. A circuit breaker keeps
// an unavailable service from costing every page its full timeout.
type ServiceStrategy struct {
	baseURL  string
	apiKey   string
	waitFor  time.Duration
	timeouts Timeouts
	client   *http.Client
	breaker  circuitbreaker.CircuitBreaker[*RawPage]
}

type serviceScrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	WaitFor int64    `json:"waitFor"`
	Timeout int64    `json:"timeout"`
}

type serviceScrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown   string   `json:"markdown"`
		RawHTML    string   `json:"rawHtml"`
		Screenshot string   `json:"screenshot"`
		Links      []string `json:"links"`
		Metadata   struct {
			URL string `json:"url"`
		} `json:"metadata"`
	} `json:"data"`
}

// NewServiceStrategy builds the strategy from config. m may be nil.
func NewServiceStrategy(cfg config.ScrapeServiceConfig, m *metrics.Metrics) *ServiceStrategy {
	failures, window := cfg.BreakerFailures, cfg.BreakerWindow
	if failures == 0 {
		failures = 1
	}
	if window < failures {
		window = failures
	}

	breaker := circuitbreaker.NewBuilder[*RawPage]().
		WithFailureThresholdRatio(failures, window).
		WithDelay(cfg.BreakerDelay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			open := e.NewState == circuitbreaker.OpenState
			m.BreakerOpen("scrape_service", open)
			slog.Warn("scrape service breaker state changed", "open", open)
		}).
		Build()

	return &ServiceStrategy{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		waitFor: cfg.WaitFor,
		timeouts: Timeouts{
			Homepage: cfg.HomepageTimeout,
			Subpage:  cfg.SubpageTimeout,
		},
		client:  &http.Client{},
		breaker: breaker,
	}
}

func (s *ServiceStrategy) Name() string { return "service" }

// Open reports whether the breaker is currently rejecting calls.
func (s *ServiceStrategy) Open() bool {
	return s.breaker.IsOpen()
}

func (s *ServiceStrategy) Fetch(ctx context.Context, pageURL string, profile Profile) (*RawPage, error) {
	page, err := failsafe.With[*RawPage](s.breaker).WithContext(ctx).Get(func() (*RawPage, error) {
		return s.scrape(ctx, pageURL, profile)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, models.NewError(models.KindUpstream, models.ErrCodeScrapeService,
			"scrape service unavailable (circuit open)", err)
	}
	return page, err
}

func (s *ServiceStrategy) scrape(ctx context.Context, pageURL string, profile Profile) (*RawPage, error) {
	timeout := s.timeouts.For(profile)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	formats := []string{"markdown", "rawHtml"}
	if profile == Homepage {
		formats = append(formats, "screenshot", "links")
	}
	body, err := json.Marshal(serviceScrapeRequest{
		URL:     pageURL,
		Formats: formats,
		WaitFor: s.waitFor.Milliseconds(),
		Timeout: timeout.Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("scrape service: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scrape service: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape service: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("scrape service: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("scrape service: HTTP %d for %s", resp.StatusCode, pageURL)
	}

	var out serviceScrapeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("scrape service: decode response: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "success=false"
		}
		return nil, fmt.Errorf("scrape service: %s", msg)
	}
	if strings.TrimSpace(out.Data.Markdown) == "" && strings.TrimSpace(out.Data.RawHTML) == "" {
		return nil, fmt.Errorf("scrape service: empty content for %s", pageURL)
	}

	return &RawPage{
		Markdown:   out.Data.Markdown,
		HTML:       out.Data.RawHTML,
		Screenshot: out.Data.Screenshot,
		Links:      out.Data.Links,
		FinalURL:   out.Data.Metadata.URL,
	}, nil
}
