package alerting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/sentinel/internal/analysis"
)

// Status tracks where an alert is in its delivery lifecycle.
type Status string

const (
	// StatusPending means created and queued, not yet delivered
	StatusPending Status = "pending"

	// StatusSent means delivered successfully; may still be acknowledged
	StatusSent Status = "sent"

	// StatusFailed means delivery retries are exhausted (terminal)
	StatusFailed Status = "failed"

	// StatusAcknowledged means an operator has seen the alert (terminal)
	StatusAcknowledged Status = "acknowledged"
)

// ParseStatus normalizes a status string, for API filters.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusSent:
		return StatusSent, nil
	case StatusFailed:
		return StatusFailed, nil
	case StatusAcknowledged:
		return StatusAcknowledged, nil
	}
	return "", fmt.Errorf("unknown alert status %q", s)
}

// DefaultMaxRetries bounds delivery attempts per alert.
const DefaultMaxRetries = 3

// Alert is a delivery-tracked notification created from an issue.
type Alert struct {
	ID         string            `json:"alert_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Severity   analysis.Severity `json:"severity"`
	Source     string            `json:"source"`
	CreatedAt  time.Time         `json:"created_at"`
	Status     Status            `json:"status"`
	RetryCount int               `json:"retry_count"`
	MaxRetries int               `json:"max_retries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// DeliveryFunc delivers one alert to the external alerting frontend. The
// manager treats a context timeout or cancellation exactly like a network
// failure: it counts toward the alert's retry budget.
type DeliveryFunc func(ctx context.Context, a *Alert) error

// DeliveryReport summarizes one Deliver pass over the pending queue.
type DeliveryReport struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Retried int `json:"retried"`
}
