// Package stats computes point-in-time summaries of recent detection and
// alerting activity. Snapshots are recomputed on request from the retained
// issue and alert windows, nothing is accumulated here.
package stats

import (
	"sort"
	"time"

	"github.com/linnemanlabs/sentinel/internal/alerting"
	"github.com/linnemanlabs/sentinel/internal/analysis"
)

// DefaultWindow is the reporting window when the caller does not pick one.
const DefaultWindow = 24 * time.Hour

const topSourceLimit = 5

// IssueSource provides the issues detected since a cutoff.
type IssueSource interface {
	IssuesSince(cutoff time.Time) []analysis.Issue
}

// AlertSource provides the alerts created since a cutoff and the current
// delivery backlog.
type AlertSource interface {
	AlertsSince(cutoff time.Time) []alerting.Alert
	QueueDepth() int
}

// SourceCount pairs an event source with how many issues it produced.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Snapshot summarizes activity inside one reporting window.
type Snapshot struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	TotalIssues      int            `json:"total_issues"`
	IssuesByCategory map[string]int `json:"issues_by_category"`
	IssuesBySeverity map[string]int `json:"issues_by_severity"`
	AvgConfidence    float64        `json:"avg_confidence"`
	TopSources       []SourceCount  `json:"top_sources"`

	TotalAlerts    int            `json:"total_alerts"`
	AlertsByStatus map[string]int `json:"alerts_by_status"`
	QueueDepth     int            `json:"queue_depth"`
}

// Aggregator builds snapshots from the analysis engine and alert manager.
type Aggregator struct {
	issues IssueSource
	alerts AlertSource
}

// NewAggregator wires the aggregator to its sources.
func NewAggregator(issues IssueSource, alerts AlertSource) *Aggregator {
	return &Aggregator{issues: issues, alerts: alerts}
}

// Snapshot summarizes the last window of activity. A non-positive window
// falls back to DefaultWindow.
func (a *Aggregator) Snapshot(window time.Duration) *Snapshot {
	if window <= 0 {
		window = DefaultWindow
	}
	now := time.Now().UTC()
	cutoff := now.Add(-window)

	snap := &Snapshot{
		WindowStart:      cutoff,
		WindowEnd:        now,
		IssuesByCategory: make(map[string]int),
		IssuesBySeverity: make(map[string]int),
		AlertsByStatus:   make(map[string]int),
	}

	var confidenceSum float64
	bySource := make(map[string]int)
	for _, is := range a.issues.IssuesSince(cutoff) {
		snap.TotalIssues++
		snap.IssuesByCategory[string(is.Category)]++
		snap.IssuesBySeverity[string(is.Severity)]++
		confidenceSum += is.Confidence
		if is.Source != "" {
			bySource[is.Source]++
		}
	}
	if snap.TotalIssues > 0 {
		snap.AvgConfidence = confidenceSum / float64(snap.TotalIssues)
	}
	snap.TopSources = topSources(bySource, topSourceLimit)

	for _, al := range a.alerts.AlertsSince(cutoff) {
		snap.TotalAlerts++
		snap.AlertsByStatus[string(al.Status)]++
	}
	snap.QueueDepth = a.alerts.QueueDepth()

	return snap
}

// topSources ranks sources by issue count, ties broken by name for a
// stable order.
func topSources(counts map[string]int, limit int) []SourceCount {
	out := make([]SourceCount, 0, len(counts))
	for src, n := range counts {
		out = append(out, SourceCount{Source: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
