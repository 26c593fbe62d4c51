package analysis

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/sentinel/internal/event"
)

// RecentIssueCap bounds the engine's recent-issue ring buffer.
const RecentIssueCap = 1000

// DefaultAuxThreshold is the minimum auxiliary-detector confidence that
// produces an llm_detected_threat issue.
const DefaultAuxThreshold = 0.7

// Engine runs every detector over one event, composes confidence scores,
// deduplicates, and retains results in a bounded ring buffer for the query
// and stats surfaces. Analyze is safe for concurrent callers; the ring
// buffer is the only shared mutable state and has its own lock.
type Engine struct {
	patterns     *Patterns
	aux          AuxiliaryDetector
	auxThreshold float64
	logger       log.Logger
	metrics      *Metrics

	ring *issueRing
}

// NewEngine creates an analysis engine. aux may be nil (the auxiliary
// category is then never emitted); metrics may be nil.
func NewEngine(patterns *Patterns, aux AuxiliaryDetector, auxThreshold float64, logger log.Logger, metrics *Metrics) *Engine {
	if patterns == nil {
		panic(xerrors.New("pattern library is required"))
	}
	if logger == nil {
		logger = log.Nop()
	}
	if auxThreshold <= 0 {
		auxThreshold = DefaultAuxThreshold
	}
	return &Engine{
		patterns:     patterns,
		aux:          aux,
		auxThreshold: auxThreshold,
		logger:       logger,
		metrics:      metrics,
		ring:         newIssueRing(RecentIssueCap),
	}
}

// Analyze scans one log event and returns the detected issues in detector
// order. It only errors on a nil event; adversarial or malformed message
// content yields zero issues at worst.
func (e *Engine) Analyze(ctx context.Context, ev *event.LogEvent) ([]Issue, error) {
	if ev == nil {
		return nil, xerrors.New("nil event")
	}

	start := time.Now()
	msg := normalize(ev.Message)

	var matches []rawMatch
	run := func(name string, fn func() []rawMatch) {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Warn(ctx, "detector failed, continuing with zero matches",
					"detector", name, "panic", r)
				if e.metrics != nil {
					e.metrics.DetectorPanicsTotal.WithLabelValues(name).Inc()
				}
			}
		}()
		matches = append(matches, fn()...)
	}

	run("pii", func() []rawMatch { return detectPii(msg, e.patterns.Pii) })
	for _, g := range e.patterns.Injection {
		run(string(g.Category), func() []rawMatch { return detectGroup(msg, g) })
	}

	var keywordHits int
	run("keywords", func() []rawMatch {
		kw := detectKeywords(msg, e.patterns.Keywords)
		keywordHits = len(kw)
		return kw
	})
	run(string(e.patterns.Auth.Category), func() []rawMatch { return detectGroup(msg, e.patterns.Auth) })

	issues := composeIssues(matches, keywordHits)

	if aux := e.auxiliaryIssue(ctx, ev); aux != nil {
		issues = append(issues, *aux)
	}

	now := time.Now()
	for i := range issues {
		issues[i].ID = ulid.Make().String()
		issues[i].EventID = ev.ID
		issues[i].Source = ev.Source
		issues[i].DetectedAt = now
	}

	e.ring.append(issues)

	if e.metrics != nil {
		e.metrics.AnalyzesTotal.Inc()
		e.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
		for i := range issues {
			e.metrics.IssuesTotal.WithLabelValues(string(issues[i].Category), string(issues[i].Severity)).Inc()
		}
	}

	if len(issues) > 0 {
		e.logger.Warn(ctx, "security issues detected",
			"event_id", ev.ID,
			"source", ev.Source,
			"issues", len(issues),
		)
	}

	return issues, nil
}

// auxiliaryIssue consults the optional auxiliary detector. Failures are
// isolated: an error or low-confidence verdict yields no issue.
func (e *Engine) auxiliaryIssue(ctx context.Context, ev *event.LogEvent) *Issue {
	if e.aux == nil {
		return nil
	}

	start := time.Now()
	res, err := e.aux.Analyze(ctx, ev.Message, ev.Source)
	if e.metrics != nil {
		e.metrics.AuxDuration.Observe(time.Since(start).Seconds())
	}
	outcome := "no_threat"
	defer func() {
		if e.metrics != nil {
			e.metrics.AuxCallsTotal.WithLabelValues(outcome).Inc()
		}
	}()

	if err != nil {
		outcome = "error"
		e.logger.Error(ctx, err, "auxiliary detector failed", "detector", e.aux.Name())
		return nil
	}
	if res == nil || !res.Enabled || !res.ThreatsDetected {
		return nil
	}
	if res.Confidence < e.auxThreshold {
		outcome = "below_threshold"
		return nil
	}

	outcome = "threat"
	sev := res.ThreatLevel
	if sev == "" {
		sev = SeverityForConfidence(res.Confidence)
	}
	desc := res.Explanation
	if desc == "" {
		desc = "Auxiliary detector reported a potential threat"
	}
	action := res.SuggestedAction
	if action == "" {
		action = "Review manually"
	}

	return &Issue{
		Category:        CategoryAuxiliaryThreat,
		Severity:        sev,
		Confidence:      clamp01(res.Confidence),
		Description:     desc,
		MatchedRule:     e.aux.Name(),
		SuggestedAction: action,
	}
}

// RecentIssues returns up to limit of the most recently detected issues,
// newest first, optionally filtered by severity. severity "" means no
// filter; limit <= 0 means no limit.
func (e *Engine) RecentIssues(limit int, severity Severity) []Issue {
	return e.ring.recent(limit, severity)
}

// IssuesSince returns retained issues detected at or after cutoff,
// newest first. Used by the stats aggregator.
func (e *Engine) IssuesSince(cutoff time.Time) []Issue {
	return e.ring.since(cutoff)
}

// Status describes the engine for the status endpoint.
type Status struct {
	PatternVersion      string         `json:"pattern_version"`
	PatternCounts       map[string]int `json:"pattern_counts"`
	AuxiliaryEnabled    bool           `json:"auxiliary_enabled"`
	AuxiliaryName       string         `json:"auxiliary_name,omitempty"`
	ConfidenceThreshold float64        `json:"confidence_threshold"`
	RetainedIssues      int            `json:"retained_issues"`
}

// Status reports the engine configuration and buffer occupancy.
func (e *Engine) Status() Status {
	s := Status{
		PatternVersion:      e.patterns.Version,
		PatternCounts:       e.patterns.Counts(),
		ConfidenceThreshold: e.auxThreshold,
		RetainedIssues:      e.ring.len(),
	}
	if e.aux != nil {
		s.AuxiliaryEnabled = true
		s.AuxiliaryName = e.aux.Name()
	}
	return s
}
