package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sentinel/internal/event"
)

// ingestRequest is the wire shape of a submitted log entry.
type ingestRequest struct {
	Message  string            `json:"message"`
	Source   string            `json:"source"`
	Level    string            `json:"level"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ingestResponse reports what the analysis pass found for one entry.
type ingestResponse struct {
	EventID          string         `json:"event_id"`
	Issues           []issueSummary `json:"issues"`
	AlertsCreated    []string       `json:"alerts_created"`
	AlertsSuppressed int            `json:"alerts_suppressed"`
}

type issueSummary struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence_score"`
}

func (a *API) handleIngestLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if req.Level == "" {
		req.Level = string(event.LevelInfo)
	}
	lvl, err := event.ParseLevel(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := &event.LogEvent{
		ID:         ulid.Make().String(),
		Message:    req.Message,
		Source:     req.Source,
		Level:      lvl,
		Metadata:   req.Metadata,
		ReceivedAt: time.Now().UTC(),
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("sentinel.event.id", ev.ID),
		attribute.String("sentinel.event.source", ev.Source),
	)

	if a.events != nil {
		if err := a.events.Put(ctx, ev); err != nil {
			a.logger.Error(ctx, err, "persist event", "event_id", ev.ID)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	issues, err := a.engine.Analyze(ctx, ev)
	if err != nil {
		a.logger.Error(ctx, err, "analyze event", "event_id", ev.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := ingestResponse{
		EventID:       ev.ID,
		Issues:        make([]issueSummary, 0, len(issues)),
		AlertsCreated: []string{},
	}
	for i := range issues {
		is := &issues[i]
		resp.Issues = append(resp.Issues, issueSummary{
			ID:         is.ID,
			Category:   string(is.Category),
			Severity:   string(is.Severity),
			Confidence: is.Confidence,
		})
		alertID, suppressed := a.alerts.CreateFromIssue(ctx, is)
		if suppressed {
			resp.AlertsSuppressed++
			continue
		}
		resp.AlertsCreated = append(resp.AlertsCreated, alertID)
	}

	span.SetAttributes(attribute.Int("sentinel.issues.count", len(issues)))

	a.writeJSON(ctx, w, http.StatusAccepted, resp)
}

func (a *API) handleListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if a.events == nil {
		writeError(w, http.StatusNotImplemented, "event persistence disabled")
		return
	}

	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	var lvl event.Level
	if raw := r.URL.Query().Get("level"); raw != "" {
		parsed, err := event.ParseLevel(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lvl = parsed
	}

	events, err := a.events.Recent(ctx, limit, r.URL.Query().Get("source"), lvl)
	if err != nil {
		a.logger.Error(ctx, err, "list events")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []*event.LogEvent{}
	}

	a.writeJSON(ctx, w, http.StatusOK, map[string]any{"events": events})
}
