package alerting

import (
	"time"

	"github.com/linnemanlabs/sentinel/internal/analysis"
)

// Rule maps an issue category to alert creation policy. Rules are
// immutable for a process lifetime except lastTriggered, which only the
// manager mutates under its lock.
type Rule struct {
	ID       string
	Name     string
	Category analysis.Category
	Severity analysis.Severity
	Cooldown time.Duration

	lastTriggered time.Time
}

// DefaultRules covers every issue category the engine can emit. Injection
// style categories alert on every occurrence; noisier categories carry a
// cooldown to prevent alert storms.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			ID:       "prompt_injection",
			Name:     "Prompt Injection Attempt",
			Category: analysis.CategoryPromptInjection,
			Severity: analysis.SeverityCritical,
			Cooldown: 0,
		},
		{
			ID:       "pii_leakage",
			Name:     "PII Leakage Detected",
			Category: analysis.CategoryPiiLeakage,
			Severity: analysis.SeverityHigh,
			Cooldown: 10 * time.Minute,
		},
		{
			ID:       "sql_injection",
			Name:     "SQL Injection Attempt",
			Category: analysis.CategorySqlInjection,
			Severity: analysis.SeverityHigh,
			Cooldown: 0,
		},
		{
			ID:       "xss_attempt",
			Name:     "XSS Attempt",
			Category: analysis.CategoryXssAttempt,
			Severity: analysis.SeverityHigh,
			Cooldown: 0,
		},
		{
			ID:       "suspicious_keyword",
			Name:     "Suspicious Keyword",
			Category: analysis.CategorySuspiciousKeyword,
			Severity: analysis.SeverityMedium,
			Cooldown: 15 * time.Minute,
		},
		{
			ID:       "auth_failure",
			Name:     "Authentication Failure",
			Category: analysis.CategoryAuthFailure,
			Severity: analysis.SeverityMedium,
			Cooldown: 5 * time.Minute,
		},
		{
			ID:       "llm_detected_threat",
			Name:     "LLM Detected Threat",
			Category: analysis.CategoryAuxiliaryThreat,
			Severity: analysis.SeverityCritical,
			Cooldown: 0,
		},
	}
}
