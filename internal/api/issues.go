package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/linnemanlabs/sentinel/internal/analysis"
)

func (a *API) handleListIssues(w http.ResponseWriter, r *http.Request) {
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

	issues := a.engine.RecentIssues(limit, severity)
	if issues == nil {
		issues = []analysis.Issue{}
	}

	a.writeJSON(ctx, w, http.StatusOK, map[string]any{"issues": issues})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if a.stats == nil {
		writeError(w, http.StatusNotImplemented, "stats disabled")
		return
	}

	window := a.window
	if raw := r.URL.Query().Get("hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "invalid hours")
			return
		}
		window = time.Duration(hours) * time.Hour
	}

	a.writeJSON(ctx, w, http.StatusOK, a.stats.Snapshot(window))
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := a.engine.Status()
	a.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"analysis":    status,
		"queue_depth": a.alerts.QueueDepth(),
	})
}
