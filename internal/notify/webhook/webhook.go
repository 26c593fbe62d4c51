// Package webhook posts alerts as JSON to an operator-configured callback URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/sentinel/internal/alerting"
)

const httpTimeout = 10 * time.Second

// Notifier delivers alerts to an HTTP callback endpoint.
type Notifier struct {
	callbackURL string
	client      *http.Client
}

// New creates a webhook notifier. If callbackURL is empty, Send is a no-op.
func New(callbackURL string) *Notifier {
	return &Notifier{
		callbackURL: callbackURL,
		client:      &http.Client{Timeout: httpTimeout},
	}
}

// Send posts the alert to the callback URL. The full Alert is serialized,
// so receivers see status and retry count as of delivery time.
func (n *Notifier) Send(ctx context.Context, alert *alerting.Alert) error {
	if n.callbackURL == "" {
		return nil
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("webhook: marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: callbackURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("webhook: post alert: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: callback returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Sender is anything that can deliver one alert to one destination.
type Sender interface {
	Send(ctx context.Context, alert *alerting.Alert) error
}

// Chain combines notifiers into a single delivery function. Every notifier
// is attempted; any failure fails the delivery so the alert is retried.
func Chain(notifiers ...Sender) alerting.DeliveryFunc {
	return func(ctx context.Context, alert *alerting.Alert) error {
		var firstErr error
		for _, n := range notifiers {
			if err := n.Send(ctx, alert); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}
