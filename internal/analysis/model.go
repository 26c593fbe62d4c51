package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Category identifies the kind of security concern an issue represents.
type Category string

const (
	CategoryPromptInjection   Category = "prompt_injection"
	CategoryPiiLeakage        Category = "pii_leakage"
	CategorySqlInjection      Category = "sql_injection"
	CategoryXssAttempt        Category = "xss_attempt"
	CategorySuspiciousKeyword Category = "suspicious_keyword"
	CategoryAuthFailure       Category = "auth_failure"

	// CategoryAuxiliaryThreat is only emitted when an auxiliary detector is
	// configured and reports a threat above the confidence threshold.
	CategoryAuxiliaryThreat Category = "llm_detected_threat"
)

// Severity ranks how urgent an issue or alert is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity normalizes a severity string, for API filters.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// SeverityForConfidence maps a composed confidence score onto a severity
// tier. Rule-based categories carry fixed tiers instead (see patterns.go);
// this table only decides for signals that arrive without one, such as an
// auxiliary verdict missing a threat level.
func SeverityForConfidence(score float64) Severity {
	switch {
	case score >= 0.8:
		return SeverityCritical
	case score >= 0.6:
		return SeverityHigh
	case score >= 0.4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Issue is a single detected security concern produced from one log event.
type Issue struct {
	ID              string    `json:"id"`
	Category        Category  `json:"category"`
	Severity        Severity  `json:"severity"`
	Confidence      float64   `json:"confidence_score"`
	Description     string    `json:"description"`
	MatchedRule     string    `json:"matched_rule,omitempty"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
	EventID         string    `json:"event_id"`
	Source          string    `json:"source"`
	DetectedAt      time.Time `json:"detected_at"`
}
