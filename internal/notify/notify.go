// Package notify delivers escalation alerts to an external channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sink is the outbound alert contract. Delivery is best-effort: the engine
// logs failures and never surfaces them to workflow callers.
type Sink interface {
	Notify(ctx context.Context, sessionKey, reason, excerpt string) error
}

// Webhook posts alerts as a JSON message to a configured URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook creates a webhook sink with a short delivery timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 3 * time.Second},
	}
}

// Notify posts the alert. Any non-2xx response is an error.
func (w *Webhook) Notify(ctx context.Context, sessionKey, reason, excerpt string) error {
	msg := fmt.Sprintf("CRITICAL SAFETY ALERT\nSession: %s\nReason: %s\nDraft: %s", sessionKey, reason, excerpt)
	payload, err := json.Marshal(map[string]string{"content": msg})
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Nop discards alerts. Used when no webhook is configured.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, string, string, string) error { return nil }
