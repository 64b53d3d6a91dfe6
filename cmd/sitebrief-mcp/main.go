package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("SITEBRIEF_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SITEBRIEF_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SITEBRIEF_API_KEY is required")
		os.Exit(1)
	}
	c := newAPIClient(apiURL, apiKey)

	s := server.NewMCPServer(
		"sitebrief",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeSiteTool := mcp.NewTool("scrape_site",
		mcp.WithDescription("Scrape a small-business website: the homepage plus its most relevant subpages. Returns combined markdown, images, videos, brand colours and unscraped same-site URLs."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The website to scrape; https:// is assumed when no scheme is given"),
		),
		mcp.WithString("tier",
			mcp.Description("Subpage budget: 'free' (2 subpages, default) or 'pro' (5 subpages)"),
			mcp.Enum("free", "pro"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached scrape younger than this many milliseconds"),
		),
	)
	s.AddTool(scrapeSiteTool, handleScrapeSite(c))

	generateTool := mcp.NewTool("generate_blueprint",
		mcp.WithDescription("Run the full pipeline for a website: scrape it, derive a content brief and generate a site blueprint (niche template or block layout). Can take a few minutes."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The website to rebuild"),
		),
		mcp.WithString("tier",
			mcp.Description("Subpage budget: 'free' (default) or 'pro'"),
			mcp.Enum("free", "pro"),
		),
	)
	s.AddTool(generateTool, handleGenerateBlueprint(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
