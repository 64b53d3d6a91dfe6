package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/use-agent/sitebrief/models"
)

// maxResponseBytes bounds every response body read from a provider.
const maxResponseBytes = 8 << 20

// Option customises a client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func defaultOptions() options {
	return options{baseDelay: 500 * time.Millisecond, maxDelay: 5 * time.Second}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRetryBackoff sets the delay range between transport retries.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(o *options) {
		o.baseDelay = base
		o.maxDelay = maxDelay
	}
}

// httpResult is a fully read HTTP response.
type httpResult struct {
	status int
	body   []byte
}

// retryable reports whether a status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// newRetryPolicy retries network errors, 429 and 5xx. After the last
// attempt the final result or error is returned as is.
func newRetryPolicy(o options, maxRetries int) retrypolicy.RetryPolicy[*httpResult] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return retrypolicy.NewBuilder[*httpResult]().
		WithBackoff(o.baseDelay, o.maxDelay).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(r *httpResult, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && retryable(r.status)
		}).
		ReturnLastFailure().
		Build()
}

// send runs build+Do through the retry policy and reads the body.
func send(ctx context.Context, client *http.Client, policy retrypolicy.RetryPolicy[*httpResult], req func() (*http.Request, error)) (*httpResult, error) {
	return failsafe.With[*httpResult](policy).WithContext(ctx).Get(func() (*httpResult, error) {
		r, err := req()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return &httpResult{status: resp.StatusCode, body: body}, nil
	})
}

// apiErrorResponse captures the error body shared by OpenAI-compatible and
// Anthropic APIs.
type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// classifyLLMError maps HTTP status codes to appropriate error codes.
func classifyLLMError(statusCode int, body []byte) *models.Error {
	var errResp apiErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewError(models.KindUpstream, models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewError(models.KindUpstream, models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewError(models.KindUpstream, models.ErrCodeLLMFailure,
			fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}

func llmFailure(msg string, err error) *models.Error {
	return models.NewError(models.KindUpstream, models.ErrCodeLLMFailure, msg, err)
}
