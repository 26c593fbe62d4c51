package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sentinel/internal/alerting"
	"github.com/linnemanlabs/sentinel/internal/analysis"
)

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	var severity analysis.Severity
	if raw := r.URL.Query().Get("severity"); raw != "" {
		parsed, err := analysis.ParseSeverity(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		severity = parsed
	}

	var status alerting.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := alerting.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = parsed
	}

	alerts := a.alerts.GetAlerts(limit, severity, status)
	if alerts == nil {
		alerts = []alerting.Alert{}
	}

	a.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"alerts":      alerts,
		"queue_depth": a.alerts.QueueDepth(),
	})
}

func (a *API) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("sentinel.alert.id", id))

	if err := a.alerts.Acknowledge(id); err != nil {
		if errors.Is(err, alerting.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		a.logger.Error(ctx, err, "acknowledge alert", "alert_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.writeJSON(ctx, w, http.StatusOK, map[string]string{
		"id":     id,
		"status": string(alerting.StatusAcknowledged),
	})
}

func (a *API) handleFlushAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if a.flusher == nil {
		writeError(w, http.StatusNotImplemented, "alert delivery disabled")
		return
	}

	report := a.flusher.Flush(ctx)
	a.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"sent":        report.Sent,
		"failed":      report.Failed,
		"retried":     report.Retried,
		"queue_depth": a.alerts.QueueDepth(),
	})
}
