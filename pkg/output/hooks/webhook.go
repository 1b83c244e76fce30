// Package hooks provides event hooks for real-time integrations.
// Hooks are called during decision runs to send events to external
// systems such as webhooks, Prometheus, OpenTelemetry collectors and the
// local run history store.
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*WebhookHook)(nil)

// WebhookHook sends events to an HTTP endpoint. It supports retries with
// exponential backoff, custom headers, and filtering so a risk desk can
// receive only the override alerts it wants to review.
type WebhookHook struct {
	endpoint string
	client   *http.Client
	opts     WebhookOptions
}

// WebhookOptions configures the webhook hook behavior.
type WebhookOptions struct {
	// Headers to include in requests.
	Headers map[string]string

	// Timeout for HTTP requests (default: 10s).
	Timeout time.Duration

	// RetryCount for failed requests (default: 3).
	RetryCount int

	// OnlyOverrides only sends compensated-approval alerts.
	OnlyOverrides bool

	// EventTypes restricts delivery to these types. Nil means every
	// event (subject to OnlyOverrides).
	Types []events.EventType
}

// NewWebhookHook creates a new webhook hook that sends events to the given
// endpoint. The hook is safe for concurrent use.
func NewWebhookHook(endpoint string, opts WebhookOptions) *WebhookHook {
	if opts.Timeout == 0 {
		opts.Timeout = time.Duration(defaults.ConnectTimeoutSec) * time.Second
	}
	if opts.RetryCount == 0 {
		opts.RetryCount = 3
	}

	return &WebhookHook{
		endpoint: endpoint,
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
	}
}

// OnEvent sends the event to the configured webhook endpoint.
// It returns nil on success or if the event should be skipped.
// Errors are logged but do not block the run.
func (h *WebhookHook) OnEvent(ctx context.Context, event events.Event) error {
	if h.opts.OnlyOverrides && event.EventType() != events.EventTypeOverride {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("webhook: failed to marshal event: %v", err)
		return nil // Don't block the run on serialization errors
	}

	if err := h.sendWithRetry(ctx, event.EventType(), body); err != nil {
		log.Printf("webhook: failed to send event after retries: %v", err)
		return nil // Don't block the run on webhook failures
	}

	return nil
}

// EventTypes returns the configured type filter. Nil receives all types;
// the OnlyOverrides filter is applied in OnEvent.
func (h *WebhookHook) EventTypes() []events.EventType {
	return h.opts.Types
}

// sendWithRetry sends the request with exponential backoff retries.
func (h *WebhookHook) sendWithRetry(ctx context.Context, eventType events.EventType, body []byte) error {
	var lastErr error

	for attempt := 0; attempt < h.opts.RetryCount; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s, ...
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", defaults.ToolName+"/"+defaults.Version)
		req.Header.Set("X-CreditGate-Event-Type", string(eventType))

		for key, value := range h.opts.Headers {
			req.Header.Set(key, value)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		resp.Body.Close()

		// Success
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		// Retry on 5xx errors
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		// Don't retry on 4xx errors
		return fmt.Errorf("client error: %d", resp.StatusCode)
	}

	return lastErr
}
