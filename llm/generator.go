// Package llm holds the clients for the AI content-generation services.
// Callers depend only on Generator: system text plus user text in, text plus
// a truncation flag out.
package llm

import "context"

// Request is a single generation call.
type Request struct {
	System string
	User   string

	// MaxTokens bounds the output. 0 uses the client default.
	MaxTokens int

	// JSON asks the service for a strict JSON object when it supports it.
	JSON bool

	Temperature float64
}

// Usage reports token consumption for a call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the text produced by a call. Truncated is set when the
// service stopped because it hit the output limit.
type Response struct {
	Text      string
	Truncated bool
	Usage     Usage
}

// Generator produces text for a Request.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
