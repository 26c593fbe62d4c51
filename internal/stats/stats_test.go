package stats

import (
	"testing"
	"time"

	"github.com/linnemanlabs/sentinel/internal/alerting"
	"github.com/linnemanlabs/sentinel/internal/analysis"
)

type fakeIssues struct {
	issues []analysis.Issue
}

func (f *fakeIssues) IssuesSince(cutoff time.Time) []analysis.Issue {
	var out []analysis.Issue
	for _, is := range f.issues {
		if !is.DetectedAt.Before(cutoff) {
			out = append(out, is)
		}
	}
	return out
}

type fakeAlerts struct {
	alerts []alerting.Alert
	depth  int
}

func (f *fakeAlerts) AlertsSince(cutoff time.Time) []alerting.Alert {
	var out []alerting.Alert
	for _, a := range f.alerts {
		if !a.CreatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeAlerts) QueueDepth() int { return f.depth }

func issueAt(cat analysis.Category, sev analysis.Severity, conf float64, source string, age time.Duration) analysis.Issue {
	return analysis.Issue{
		Category:   cat,
		Severity:   sev,
		Confidence: conf,
		Source:     source,
		DetectedAt: time.Now().UTC().Add(-age),
	}
}

func TestSnapshot_CountsAndAverages(t *testing.T) {
	t.Parallel()

	issues := &fakeIssues{issues: []analysis.Issue{
		issueAt(analysis.CategoryPiiLeakage, analysis.SeverityHigh, 0.9, "web", time.Minute),
		issueAt(analysis.CategoryPiiLeakage, analysis.SeverityMedium, 0.7, "web", 2*time.Minute),
		issueAt(analysis.CategorySqlInjection, analysis.SeverityHigh, 0.8, "api", 3*time.Minute),
	}}
	alerts := &fakeAlerts{
		alerts: []alerting.Alert{
			{Status: alerting.StatusSent, CreatedAt: time.Now().UTC().Add(-time.Minute)},
			{Status: alerting.StatusPending, CreatedAt: time.Now().UTC().Add(-time.Minute)},
		},
		depth: 1,
	}

	snap := NewAggregator(issues, alerts).Snapshot(time.Hour)

	if snap.TotalIssues != 3 {
		t.Errorf("total issues = %d, want 3", snap.TotalIssues)
	}
	if snap.IssuesByCategory["pii_leakage"] != 2 {
		t.Errorf("pii_leakage = %d, want 2", snap.IssuesByCategory["pii_leakage"])
	}
	if snap.IssuesBySeverity["high"] != 2 {
		t.Errorf("high = %d, want 2", snap.IssuesBySeverity["high"])
	}
	wantAvg := (0.9 + 0.7 + 0.8) / 3
	if diff := snap.AvgConfidence - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("avg confidence = %v, want %v", snap.AvgConfidence, wantAvg)
	}
	if snap.TotalAlerts != 2 {
		t.Errorf("total alerts = %d, want 2", snap.TotalAlerts)
	}
	if snap.AlertsByStatus["sent"] != 1 || snap.AlertsByStatus["pending"] != 1 {
		t.Errorf("alerts by status = %v", snap.AlertsByStatus)
	}
	if snap.QueueDepth != 1 {
		t.Errorf("queue depth = %d, want 1", snap.QueueDepth)
	}
}

func TestSnapshot_WindowExcludesOldEntries(t *testing.T) {
	t.Parallel()

	issues := &fakeIssues{issues: []analysis.Issue{
		issueAt(analysis.CategoryPiiLeakage, analysis.SeverityHigh, 0.9, "web", time.Minute),
		issueAt(analysis.CategoryPiiLeakage, analysis.SeverityHigh, 0.9, "web", 48*time.Hour),
	}}
	alerts := &fakeAlerts{}

	snap := NewAggregator(issues, alerts).Snapshot(time.Hour)
	if snap.TotalIssues != 1 {
		t.Errorf("total issues = %d, want 1 inside window", snap.TotalIssues)
	}
}

func TestSnapshot_DefaultWindow(t *testing.T) {
	t.Parallel()

	snap := NewAggregator(&fakeIssues{}, &fakeAlerts{}).Snapshot(0)

	got := snap.WindowEnd.Sub(snap.WindowStart)
	if got != DefaultWindow {
		t.Errorf("window = %v, want %v", got, DefaultWindow)
	}
}

func TestSnapshot_EmptySources(t *testing.T) {
	t.Parallel()

	snap := NewAggregator(&fakeIssues{}, &fakeAlerts{}).Snapshot(time.Hour)

	if snap.TotalIssues != 0 || snap.TotalAlerts != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
	if snap.AvgConfidence != 0 {
		t.Errorf("avg confidence = %v, want 0", snap.AvgConfidence)
	}
	if len(snap.TopSources) != 0 {
		t.Errorf("top sources = %v, want empty", snap.TopSources)
	}
}

func TestTopSources_RankingAndLimit(t *testing.T) {
	t.Parallel()

	var issues []analysis.Issue
	counts := map[string]int{"a": 1, "b": 3, "c": 2, "d": 3, "e": 1, "f": 5}
	for src, n := range counts {
		for i := 0; i < n; i++ {
			issues = append(issues, issueAt(analysis.CategorySuspiciousKeyword, analysis.SeverityMedium, 0.6, src, time.Minute))
		}
	}

	snap := NewAggregator(&fakeIssues{issues: issues}, &fakeAlerts{}).Snapshot(time.Hour)

	if len(snap.TopSources) != topSourceLimit {
		t.Fatalf("top sources = %d, want %d", len(snap.TopSources), topSourceLimit)
	}
	if snap.TopSources[0].Source != "f" || snap.TopSources[0].Count != 5 {
		t.Errorf("top source = %+v, want f/5", snap.TopSources[0])
	}
	// ties ranked by name for stability
	if snap.TopSources[1].Source != "b" || snap.TopSources[2].Source != "d" {
		t.Errorf("tie order = %+v", snap.TopSources[1:3])
	}
}
