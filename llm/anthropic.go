package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/models"
)

const anthropicVersion = "2023-06-01"

// Anthropic calls the Messages API without streaming.
type Anthropic struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	retry     retrypolicy.RetryPolicy[*httpResult]
}

// NewAnthropic creates a client from cfg. Calls are made once; there are no
// transport retries.
func NewAnthropic(cfg config.DesignConfig, opts ...Option) *Anthropic {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Anthropic{
		baseURL:   baseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: maxTokens,
		client:    o.httpClient,
		retry:     newRetryPolicy(o, 0),
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Anthropic) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, models.NewError(models.KindUpstream, models.ErrCodeLLMAuthFailure, "no design API key configured", nil)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	payload, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicContent{{Type: "text", Text: req.User}},
		}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, llmFailure("anthropic: marshal request", err)
	}

	endpoint := c.baseURL + "/v1/messages"
	res, err := send(ctx, c.client, c.retry, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("X-API-Key", c.apiKey)
		r.Header.Set("Anthropic-Version", anthropicVersion)
		return r, nil
	})
	if err != nil {
		return nil, llmFailure("anthropic: request failed", err)
	}
	if res.status != http.StatusOK {
		return nil, classifyLLMError(res.status, res.body)
	}

	var out anthropicResponse
	if err := json.Unmarshal(res.body, &out); err != nil {
		return nil, llmFailure("anthropic: decode response", err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Response{
		Text:      text.String(),
		Truncated: out.StopReason == "max_tokens",
		Usage: Usage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		},
	}, nil
}
