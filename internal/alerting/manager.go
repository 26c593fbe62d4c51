package alerting

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/sentinel/internal/analysis"
)

// HistoryCap bounds the delivered-alert history list.
const HistoryCap = 1000

// ErrNotFound is returned when an alert id has no match in history.
var ErrNotFound = xerrors.New("alert not found")

// Manager owns the mutable alert set: the pending delivery queue, the
// capped history of delivered alerts, and per-rule cooldown timestamps.
// All state is guarded by one mutex; delivery network calls happen with
// the lock released so slow deliveries never block alert creation.
type Manager struct {
	logger     log.Logger
	metrics    *Metrics
	maxRetries int

	mu      sync.Mutex
	rules   map[analysis.Category]*Rule
	queue   []*Alert
	history []*Alert
	byID    map[string]*Alert
}

// NewManager creates an alert lifecycle manager. metrics may be nil.
func NewManager(rules []*Rule, maxRetries int, logger log.Logger, metrics *Metrics) *Manager {
	if logger == nil {
		logger = log.Nop()
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	byCat := make(map[analysis.Category]*Rule, len(rules))
	for _, r := range rules {
		byCat[r.Category] = r
	}
	return &Manager{
		logger:     logger,
		metrics:    metrics,
		maxRetries: maxRetries,
		rules:      byCat,
		byID:       make(map[string]*Alert),
	}
}

// CreateFromIssue maps an issue to an alert through the configured rules.
// A rule still inside its cooldown window suppresses the alert: no alert
// is created, no error is returned, and suppressed is true. Otherwise the
// alert is enqueued Pending and the rule's cooldown window restarts.
func (m *Manager) CreateFromIssue(ctx context.Context, issue *analysis.Issue) (id string, suppressed bool) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	rule := m.rules[issue.Category]
	if rule != nil && rule.Cooldown > 0 && !rule.lastTriggered.IsZero() && now.Sub(rule.lastTriggered) < rule.Cooldown {
		if m.metrics != nil {
			m.metrics.SuppressedTotal.WithLabelValues(rule.ID).Inc()
		}
		m.logger.Info(ctx, "alert suppressed by cooldown",
			"rule", rule.ID,
			"category", issue.Category,
			"cooldown", rule.Cooldown,
		)
		return "", true
	}

	a := newAlert(issue, rule, m.maxRetries, now)
	m.queue = append(m.queue, a)
	if rule != nil {
		rule.lastTriggered = now
	}

	if m.metrics != nil {
		m.metrics.CreatedTotal.WithLabelValues(string(a.Severity)).Inc()
		m.metrics.QueueDepth.Set(float64(len(m.queue)))
	}
	m.logger.Info(ctx, "alert created",
		"alert_id", a.ID,
		"title", a.Title,
		"severity", a.Severity,
		"queue_depth", len(m.queue),
	)

	return a.ID, false
}

// newAlert builds a Pending alert from an issue. Alert ids are ULIDs:
// time-prefixed with monotonic entropy, so they stay unique and sortable
// even under concurrent creation.
func newAlert(issue *analysis.Issue, rule *Rule, maxRetries int, now time.Time) *Alert {
	title := "Security Issue: " + string(issue.Category)
	if rule != nil {
		title = rule.Name
	}

	msg := fmt.Sprintf("%s\nSource: %s\nSeverity: %s", issue.Description, issue.Source, issue.Severity)
	if issue.SuggestedAction != "" {
		msg += "\nSuggested Action: " + issue.SuggestedAction
	}

	meta := map[string]string{
		"category":         string(issue.Category),
		"confidence_score": strconv.FormatFloat(issue.Confidence, 'f', 2, 64),
		"event_id":         issue.EventID,
	}
	if issue.MatchedRule != "" {
		meta["matched_rule"] = issue.MatchedRule
	}
	if rule != nil {
		meta["rule_id"] = rule.ID
	}

	return &Alert{
		ID:         ulid.Make().String(),
		Title:      title,
		Message:    msg,
		Severity:   issue.Severity,
		Source:     issue.Source,
		CreatedAt:  now,
		Status:     StatusPending,
		MaxRetries: maxRetries,
		Metadata:   meta,
	}
}

// Deliver drains the pending queue and attempts delivery for each alert.
// The queue is snapshotted under the lock and deliveries run unlocked;
// the lock is re-acquired once to apply all state transitions. A failed
// or cancelled delivery counts toward the alert's retry budget; alerts
// under budget re-enter at the queue tail.
func (m *Manager) Deliver(ctx context.Context, deliver DeliveryFunc) DeliveryReport {
	m.mu.Lock()
	batch := m.queue
	m.queue = nil
	m.mu.Unlock()

	type outcome struct {
		alert *Alert
		err   error
	}
	outcomes := make([]outcome, 0, len(batch))
	for _, a := range batch {
		var err error
		if err = ctx.Err(); err == nil {
			cp := *a
			start := time.Now()
			err = deliver(ctx, &cp)
			if m.metrics != nil {
				m.metrics.DeliveryDuration.Observe(time.Since(start).Seconds())
			}
		}
		outcomes = append(outcomes, outcome{alert: a, err: err})
	}

	var report DeliveryReport

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range outcomes {
		a := o.alert
		if o.err == nil {
			a.Status = StatusSent
			m.appendHistoryLocked(a)
			report.Sent++
			if m.metrics != nil {
				m.metrics.DeliveriesTotal.WithLabelValues("sent").Inc()
			}
			continue
		}

		a.RetryCount++
		if a.RetryCount < a.MaxRetries {
			// tail, not head: fresh alerts enqueued during delivery keep
			// their FIFO position ahead of retries
			m.queue = append(m.queue, a)
			report.Retried++
			if m.metrics != nil {
				m.metrics.DeliveriesTotal.WithLabelValues("retried").Inc()
			}
			m.logger.Warn(ctx, "alert delivery failed, requeued",
				"alert_id", a.ID,
				"retry_count", a.RetryCount,
				"max_retries", a.MaxRetries,
				"error", o.err.Error(),
			)
			continue
		}

		a.Status = StatusFailed
		m.appendHistoryLocked(a)
		report.Failed++
		if m.metrics != nil {
			m.metrics.DeliveriesTotal.WithLabelValues("failed").Inc()
		}
		m.logger.Error(ctx, o.err, "alert delivery failed permanently",
			"alert_id", a.ID,
			"retry_count", a.RetryCount,
		)
	}

	if m.metrics != nil {
		m.metrics.QueueDepth.Set(float64(len(m.queue)))
	}

	return report
}

// appendHistoryLocked appends to the capped history. Caller holds m.mu.
func (m *Manager) appendHistoryLocked(a *Alert) {
	m.history = append(m.history, a)
	m.byID[a.ID] = a
	if len(m.history) > HistoryCap {
		evicted := m.history[0]
		delete(m.byID, evicted.ID)
		m.history = m.history[1:]
	}
}

// Acknowledge transitions an alert in history to Acknowledged. It is
// idempotent: re-acknowledging succeeds as a no-op. An id with no match
// in history returns ErrNotFound.
func (m *Manager) Acknowledge(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("alert %q: %w", id, ErrNotFound)
	}
	if a.Status == StatusAcknowledged {
		return nil
	}
	a.Status = StatusAcknowledged
	if m.metrics != nil {
		m.metrics.AcksTotal.Inc()
	}
	return nil
}

// GetAlerts returns up to limit alerts from history, newest first,
// filtered by severity and status ("" = no filter). The pending queue is
// never touched. Returned alerts are copies.
func (m *Manager) GetAlerts(limit int, severity analysis.Severity, status Status) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		a := m.history[i]
		if severity != "" && a.Severity != severity {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, *a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// AlertsSince returns history entries created at or after cutoff, newest
// first. Used by the stats aggregator. History is appended in
// delivery-completion order, not creation order (a retried alert lands
// after fresher ones), so the whole slice is filtered.
func (m *Manager) AlertsSince(cutoff time.Time) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		a := m.history[i]
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, *a)
	}
	return out
}

// QueueDepth reports how many alerts are waiting for delivery.
func (m *Manager) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
