package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/sitebrief/models"
)

// apiClient calls the sitebrief HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	scrape  *http.Client
	run     *http.Client
}

func newAPIClient(baseURL, apiKey string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		scrape:  &http.Client{Timeout: 180 * time.Second},
		run:     &http.Client{Timeout: 600 * time.Second},
	}
}

func (c *apiClient) post(ctx context.Context, client *http.Client, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errorText(fallback string, detail *models.ErrorDetail) string {
	if detail == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

func handleScrapeSite(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		payload := models.ScrapeRequest{
			URL:    url,
			Tier:   models.Tier(request.GetString("tier", "")),
			MaxAge: int64(request.GetFloat("max_age", 0)),
		}

		respBody, err := c.post(ctx, c.scrape, "/api/v1/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}
		var resp models.ScrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Result == nil {
			return mcp.NewToolResultError(errorText("scrape failed", resp.Error)), nil
		}

		return mcp.NewToolResultText(formatScrape(resp.Result)), nil
	}
}

func formatScrape(r *models.AggregatedScrapeResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Site: %s\nScraped: %s\n\n", r.URL, strings.Join(r.ScrapedURLs, ", "))
	sb.WriteString(r.CombinedMarkdown)

	sb.WriteString("\n\n---\nImages:\n")
	for i, img := range r.Images {
		fmt.Fprintf(&sb, "[%d] %s\n", i, img)
	}
	if len(r.Videos) > 0 {
		sb.WriteString("Videos:\n")
		for _, v := range r.Videos {
			fmt.Fprintf(&sb, "- %s\n", v)
		}
	}
	if len(r.Colors) > 0 {
		sb.WriteString("Colours:")
		for _, col := range r.Colors {
			fmt.Fprintf(&sb, " %s (%d)", col.Hex, col.Count)
		}
		sb.WriteString("\n")
	}
	if len(r.DiscoveredURLs) > 0 {
		fmt.Fprintf(&sb, "Not scraped: %s\n", strings.Join(r.DiscoveredURLs, ", "))
	}
	return sb.String()
}

func handleGenerateBlueprint(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		payload := models.GenerateRequest{
			URL:  url,
			Tier: models.Tier(request.GetString("tier", "")),
		}

		respBody, err := c.post(ctx, c.run, "/api/v1/generate", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("generate request failed: %v", err)), nil
		}
		var resp models.GenerateResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("generation failed", resp.Error)), nil
		}

		out, err := json.MarshalIndent(struct {
			Brief     *models.ContentBrief `json:"brief"`
			Blueprint *models.Blueprint    `json:"blueprint"`
		}{resp.Brief, resp.Blueprint}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
