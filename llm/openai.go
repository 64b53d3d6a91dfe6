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

// OpenAI is a lightweight OpenAI-compatible chat completions client.
// It uses net/http directly, no SDK.
type OpenAI struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	retry     retrypolicy.RetryPolicy[*httpResult]
}

// NewOpenAI creates a client from cfg. cfg.Timeout bounds each HTTP attempt.
func NewOpenAI(cfg config.LLMConfig, opts ...Option) *OpenAI {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAI{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.AnalysisMaxTokens,
		client:    o.httpClient,
		retry:     newRetryPolicy(o, cfg.MaxRetries),
	}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the minimal OpenAI chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (c *OpenAI) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, models.NewError(models.KindUpstream, models.ErrCodeLLMAuthFailure, "no LLM API key configured", nil)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, llmFailure("marshal request", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	res, err := send(ctx, c.client, c.retry, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
		return r, nil
	})
	if err != nil {
		return nil, llmFailure("LLM request failed", err)
	}
	if res.status != http.StatusOK {
		return nil, classifyLLMError(res.status, res.body)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(res.body, &chatResp); err != nil {
		return nil, llmFailure("failed to parse LLM response", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, llmFailure("LLM returned no choices", nil)
	}

	choice := chatResp.Choices[0]
	return &Response{
		Text:      choice.Message.Content,
		Truncated: choice.FinishReason == "length",
		Usage:     chatResp.Usage,
	}, nil
}
