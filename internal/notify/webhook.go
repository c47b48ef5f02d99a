package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Delta is the per-cycle listing delta pushed to the notification
// channel after ingestion.
type Delta struct {
	New     []string `json:"new"`
	Updated []string `json:"updated"`
}

// Webhook pushes deltas to a configured URL. Delivery is fire and
// forget: the caller logs failures and moves on, persistence never
// waits on the channel.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier. A zero timeout defaults to
// five seconds.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{url: url, client: &http.Client{Timeout: timeout}}
}

// Notify POSTs the delta as JSON.
func (w *Webhook) Notify(ctx context.Context, delta Delta) error {
	body, err := json.Marshal(delta)
	if err != nil {
		return fmt.Errorf("encode delta: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook http %d", resp.StatusCode)
	}
	return nil
}
