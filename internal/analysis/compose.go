package analysis

// Confidence composition bonuses. A rule firing repeatedly in one message
// raises confidence by 0.1 per occurrence up to 0.3; suspicious keywords
// co-occurring with a non-keyword match add 0.05 per keyword up to 0.2.
const (
	frequencyStep = 0.1
	frequencyMax  = 0.3
	contextStep   = 0.05
	contextMax    = 0.2
)

// composeIssues turns raw detector matches into scored, deduplicated
// issues, preserving detector-execution order. keywordHits is the number
// of distinct suspicious keywords found in the same message.
//
// Dedup key is (category, rule) with first occurrence winning; duplicates
// are dropped, never merged.
func composeIssues(matches []rawMatch, keywordHits int) []Issue {
	seen := make(map[string]struct{}, len(matches))
	issues := make([]Issue, 0, len(matches))

	for _, m := range matches {
		key := m.rule
		if key == "" {
			key = m.description
		}
		key = string(m.category) + "\x00" + key
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		score := m.base + min(frequencyMax, float64(m.count)*frequencyStep)
		if m.category != CategorySuspiciousKeyword {
			score += min(contextMax, float64(keywordHits)*contextStep)
		}

		sev := m.severity
		if sev == "" {
			sev = SeverityForConfidence(score)
		}

		issues = append(issues, Issue{
			Category:        m.category,
			Severity:        sev,
			Confidence:      clamp01(score),
			Description:     m.description,
			MatchedRule:     m.rule,
			SuggestedAction: m.action,
		})
	}
	return issues
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
