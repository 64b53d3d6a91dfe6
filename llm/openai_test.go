package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/models"
)

func openAIConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:           baseURL,
		APIKey:            "sk-test",
		Model:             "gpt-test",
		Timeout:           5 * time.Second,
		MaxRetries:        2,
		AnalysisMaxTokens: 8000,
	}
}

func fastRetry() Option { return WithRetryBackoff(time.Millisecond, 2*time.Millisecond) }

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 1200, req.MaxTokens)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be strict", req.Messages[0].Content)
		assert.Equal(t, "the site", req.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	c := NewOpenAI(openAIConfig(srv.URL), fastRetry())
	resp, err := c.Generate(context.Background(), &Request{System: "be strict", User: "the site", MaxTokens: 1200, JSON: true})

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.False(t, resp.Truncated)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestOpenAI_DefaultMaxTokensAndPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 8000, req.MaxTokens)
		assert.Nil(t, req.ResponseFormat)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"cut"},"finish_reason":"length"}]}`))
	}))
	defer srv.Close()

	resp, err := NewOpenAI(openAIConfig(srv.URL), fastRetry()).Generate(context.Background(), &Request{User: "x"})

	require.NoError(t, err)
	assert.True(t, resp.Truncated)
}

func TestOpenAI_RetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"done"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	resp, err := NewOpenAI(openAIConfig(srv.URL), fastRetry()).Generate(context.Background(), &Request{User: "x"})

	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOpenAI_ServerErrorExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(openAIConfig(srv.URL), fastRetry()).Generate(context.Background(), &Request{User: "x"})

	require.Error(t, err)
	me := models.AsError(err)
	assert.Equal(t, models.ErrCodeLLMFailure, me.Code)
	assert.Contains(t, me.Message, "upstream down")
	assert.Equal(t, int32(3), hits.Load())
}

func TestOpenAI_AuthFailureNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(openAIConfig(srv.URL), fastRetry()).Generate(context.Background(), &Request{User: "x"})

	require.Error(t, err)
	me := models.AsError(err)
	assert.Equal(t, models.ErrCodeLLMAuthFailure, me.Code)
	assert.Equal(t, "bad key", me.Message)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI(openAIConfig(srv.URL), fastRetry()).Generate(context.Background(), &Request{User: "x"})

	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAI_MissingKey(t *testing.T) {
	cfg := openAIConfig("http://127.0.0.1:0")
	cfg.APIKey = ""

	_, err := NewOpenAI(cfg).Generate(context.Background(), &Request{User: "x"})

	require.Error(t, err)
	me := models.AsError(err)
	assert.Equal(t, models.ErrCodeLLMAuthFailure, me.Code)
}

func TestClassifyLLMError(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, models.ErrCodeLLMAuthFailure},
		{http.StatusForbidden, models.ErrCodeLLMAuthFailure},
		{http.StatusTooManyRequests, models.ErrCodeLLMRateLimited},
		{http.StatusInternalServerError, models.ErrCodeLLMFailure},
		{http.StatusBadRequest, models.ErrCodeLLMFailure},
	}
	for _, tt := range tests {
		err := classifyLLMError(tt.status, []byte("not json"))
		assert.Equal(t, tt.code, err.Code, "status %d", tt.status)
		assert.Equal(t, models.KindUpstream, err.Kind)
	}
}
