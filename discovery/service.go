package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ServiceMapper asks the remote scraping service for a site map.
type ServiceMapper struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	limit   int
	client  *http.Client
}

// NewServiceMapper creates a ServiceMapper. limit caps the number of URLs
// requested from the service.
func NewServiceMapper(baseURL, apiKey string, timeout time.Duration, limit int) *ServiceMapper {
	return &ServiceMapper{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		limit:   limit,
		client:  &http.Client{},
	}
}

type mapRequest struct {
	URL   string `json:"url"`
	Limit int    `json:"limit,omitempty"`
}

type mapResponse struct {
	Success bool     `json:"success"`
	Links   []string `json:"links"`
	Error   string   `json:"error,omitempty"`
}

func (s *ServiceMapper) Map(ctx context.Context, siteURL string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(mapRequest{URL: siteURL, Limit: s.limit})
	if err != nil {
		return nil, fmt.Errorf("map service: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/map", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("map service: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("map service: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("map service: HTTP %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("map service: read response: %w", err)
	}

	var out mapResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("map service: decode response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("map service: %s", out.Error)
	}
	return out.Links, nil
}
