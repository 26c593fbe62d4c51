package analysis

import (
	"fmt"
	"strings"
)

// rawMatch is a single detector hit before confidence composition.
type rawMatch struct {
	category    Category
	rule        string
	description string
	action      string
	severity    Severity
	base        float64
	count       int // occurrences of the rule in the message
}

// normalize lower-cases the message and collapses runs of whitespace to a
// single space. Detectors only ever see normalized text.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// detectPii scans for every PII subtype and reports at most one match per
// subtype. Subtype severity is fixed regardless of composed confidence.
func detectPii(msg string, rules []PiiRule) []rawMatch {
	if msg == "" {
		return nil
	}
	var out []rawMatch
	for _, r := range rules {
		hits := r.re.FindAllStringIndex(msg, -1)
		if len(hits) == 0 {
			continue
		}
		out = append(out, rawMatch{
			category:    CategoryPiiLeakage,
			rule:        r.Subtype,
			description: fmt.Sprintf("Potential %s leakage detected", strings.ToUpper(r.Subtype)),
			action:      fmt.Sprintf("Review and redact %s information from logs", r.Subtype),
			severity:    r.Severity,
			base:        piiBase,
			count:       len(hits),
		})
	}
	return out
}

// detectGroup scans one pattern group. With FirstMatchOnly set only the
// first rule that fires is reported for the whole group.
func detectGroup(msg string, g Group) []rawMatch {
	if msg == "" {
		return nil
	}
	var out []rawMatch
	for _, r := range g.Rules {
		hits := r.re.FindAllStringIndex(msg, -1)
		if len(hits) == 0 {
			continue
		}
		out = append(out, rawMatch{
			category:    g.Category,
			rule:        r.Name,
			description: g.Description,
			action:      g.Action,
			severity:    g.Severity,
			base:        g.Base,
			count:       len(hits),
		})
		if g.FirstMatchOnly {
			break
		}
	}
	return out
}

// detectKeywords reports one match per suspicious keyword value. Unlike the
// grouped detectors it never stops at the first hit.
func detectKeywords(msg string, keywords []Rule) []rawMatch {
	if msg == "" {
		return nil
	}
	var out []rawMatch
	for _, r := range keywords {
		hits := r.re.FindAllStringIndex(msg, -1)
		if len(hits) == 0 {
			continue
		}
		out = append(out, rawMatch{
			category:    CategorySuspiciousKeyword,
			rule:        r.Name,
			description: fmt.Sprintf("Suspicious keyword %q detected", r.Name),
			action:      "Review log context for potential security implications",
			severity:    SeverityMedium,
			base:        keywordBase,
			count:       len(hits),
		})
	}
	return out
}
