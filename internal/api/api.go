// Package api exposes the HTTP surface: log ingestion, issue and alert
// queries, alert acknowledgment, and activity statistics.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/sentinel/internal/alerting"
	"github.com/linnemanlabs/sentinel/internal/analysis"
	"github.com/linnemanlabs/sentinel/internal/event"
	"github.com/linnemanlabs/sentinel/internal/record"
	"github.com/linnemanlabs/sentinel/internal/stats"
)

// Analyzer defines the detection operations the API needs.
type Analyzer interface {
	Analyze(ctx context.Context, ev *event.LogEvent) ([]analysis.Issue, error)
	RecentIssues(limit int, severity analysis.Severity) []analysis.Issue
	Status() analysis.Status
}

// AlertService defines the alert lifecycle operations the API needs.
type AlertService interface {
	CreateFromIssue(ctx context.Context, issue *analysis.Issue) (id string, suppressed bool)
	Acknowledge(id string) error
	GetAlerts(limit int, severity analysis.Severity, status alerting.Status) []alerting.Alert
	QueueDepth() int
}

// Flusher triggers an immediate alert delivery pass.
type Flusher interface {
	Flush(ctx context.Context) alerting.DeliveryReport
}

// StatsProvider builds activity snapshots.
type StatsProvider interface {
	Snapshot(window time.Duration) *stats.Snapshot
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	engine  Analyzer
	alerts  AlertService
	flusher Flusher
	stats   StatsProvider
	events  record.Store
	window  time.Duration
}

// New creates a new API handler. events may be nil when event persistence
// is disabled.
func New(logger log.Logger, engine Analyzer, alerts AlertService, flusher Flusher, statsProvider StatsProvider, events record.Store, statsWindow time.Duration) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if engine == nil {
		panic(xerrors.New("analysis engine is required"))
	}
	if alerts == nil {
		panic(xerrors.New("alert service is required"))
	}
	if statsWindow <= 0 {
		statsWindow = stats.DefaultWindow
	}
	return &API{
		logger:  logger,
		engine:  engine,
		alerts:  alerts,
		flusher: flusher,
		stats:   statsProvider,
		events:  events,
		window:  statsWindow,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/logs", a.handleIngestLog)
		r.Get("/logs", a.handleListLogs)
		r.Get("/issues", a.handleListIssues)
		r.Get("/alerts", a.handleListAlerts)
		r.Post("/alerts/{id}/ack", a.handleAckAlert)
		r.Post("/alerts/flush", a.handleFlushAlerts)
		r.Get("/stats", a.handleStats)
		r.Get("/status", a.handleStatus)
	})
}

func (a *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error(ctx, err, "encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// queryLimit parses the limit query param; 0 means no limit.
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
