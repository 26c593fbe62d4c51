// Package slack sends security alerts to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/sentinel/internal/alerting"
	"github.com/linnemanlabs/sentinel/internal/analysis"
)

const (
	maxMessageLen = 3000
	httpTimeout   = 10 * time.Second
)

// Notifier sends alerts to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts an alert to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, alert *alerting.Alert) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(alert)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(a *alerting.Alert) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(a),
			{"type": "divider"},
			fieldsBlock(a),
			{"type": "divider"},
			detailBlock(a),
			{"type": "divider"},
			contextBlock(a),
		},
	}
}

func headerBlock(a *alerting.Alert) map[string]any {
	text := fmt.Sprintf("%s %s", severityEmoji(a.Severity), a.Title)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(a *alerting.Alert) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %s", a.Severity),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Source:* %s", a.Source),
		},
	}
	if cat := a.Metadata["category"]; cat != "" {
		fields = append(fields, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Category:* %s", cat),
		})
	}
	if conf := a.Metadata["confidence_score"]; conf != "" {
		fields = append(fields, map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Confidence:* %s", conf),
		})
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func detailBlock(a *alerting.Alert) map[string]any {
	text := truncate(a.Message, maxMessageLen)
	if text == "" {
		text = "_No details available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Details*\n\n%s", text),
		},
	}
}

func contextBlock(a *alerting.Alert) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("sentinel • alert %s • %s", a.ID, a.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func severityEmoji(severity analysis.Severity) string {
	switch severity {
	case analysis.SeverityCritical:
		return "\U0001f534" // red circle
	case analysis.SeverityHigh:
		return "\U0001f7e0" // orange circle
	case analysis.SeverityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
