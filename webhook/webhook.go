// Package webhook delivers signed run notifications to downstream consumers.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/sitebrief/config"
	"github.com/use-agent/sitebrief/metrics"
)

// Event types.
const (
	EventGenerationCompleted = "generation.completed"
	EventGenerationFailed    = "generation.failed"
)

// SignatureHeader carries "sha256=<hex HMAC of the body>".
const SignatureHeader = "X-Sitebrief-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// Notifier posts events, retrying failed deliveries in the background.
type Notifier struct {
	client  *http.Client
	timeout time.Duration
	retries []time.Duration
	metrics *metrics.Metrics

	wg sync.WaitGroup
}

// NewNotifier creates a Notifier from cfg. m may be nil.
func NewNotifier(cfg config.WebhookConfig, m *metrics.Metrics) *Notifier {
	return &Notifier{
		client:  &http.Client{},
		timeout: cfg.Timeout,
		retries: cfg.Retries,
		metrics: m,
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends an event synchronously. The body is signed when secret is
// non-empty.
func (n *Notifier) Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Sitebrief-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends an event in the background, retrying after each of
// the configured delays.
func (n *Notifier) DeliverAsync(url, secret string, event *Event) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		delays := append([]time.Duration{0}, n.retries...)
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			err := n.Deliver(context.Background(), url, secret, event)
			if err == nil {
				n.metrics.WebhookDelivered(true)
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"job_id", event.JobID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		n.metrics.WebhookDelivered(false)
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
		)
	}()
}

// Wait blocks until every background delivery has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
