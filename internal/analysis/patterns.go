package analysis

import "regexp"

// PatternVersion identifies the built-in rule set. Bump when rules change
// so stored issues can be traced back to the library that produced them.
const PatternVersion = "2026.02"

// Rule is one named detection pattern within a group.
type Rule struct {
	Name string
	re   *regexp.Regexp
}

// Group is a set of rules for one category, scanned with a shared base
// confidence and a fixed severity tier.
//
// FirstMatchOnly is a deliberate anti-flood policy: categories with many
// phrasing variants (prompt injection has a dozen) report only the first
// rule that fires per scan. Reporting every variant would turn a single
// hostile message into a page of near-identical issues.
type Group struct {
	Category       Category
	Base           float64
	Severity       Severity
	FirstMatchOnly bool
	Description    string
	Action         string
	Rules          []Rule
}

// PiiRule detects one PII subtype. Severity is fixed per subtype and takes
// precedence over any confidence-derived tier.
type PiiRule struct {
	Subtype  string
	Severity Severity
	re       *regexp.Regexp
}

// Patterns is the immutable pattern library handed to the engine at
// startup. It has no behavior beyond lookup; detectors do the scanning.
// Field order mirrors detector execution order: Pii, then each Injection
// group, then Keywords, then Auth.
type Patterns struct {
	Version   string
	Pii       []PiiRule
	Injection []Group
	Keywords  []Rule
	Auth      Group
}

const piiBase = 0.9

// DefaultPatterns builds the built-in rule library. Compile happens once
// here, never during a scan.
func DefaultPatterns() *Patterns {
	return &Patterns{
		Version: PatternVersion,
		Pii: []PiiRule{
			{"email", SeverityMedium, regexp.MustCompile(`\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)},
			{"phone", SeverityMedium, regexp.MustCompile(`(\+?1[-.\s]?)?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}\b`)},
			{"ssn", SeverityHigh, regexp.MustCompile(`\b\d{3}-?\d{2}-?\d{4}\b`)},
			{"credit_card", SeverityHigh, regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)},
			{"ip_address", SeverityMedium, regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)},
			{"api_key", SeverityHigh, regexp.MustCompile(`\b(?:sk|pk|ak)[-_][a-z0-9]{16,}\b|\b[a-z0-9]{32,}\b`)},
			{"password", SeverityMedium, regexp.MustCompile(`password\s*[:=]\s*["']?[^"'\s]+`)},
			{"token", SeverityMedium, regexp.MustCompile(`token\s*[:=]\s*["']?[a-z0-9._-]+`)},
		},
		Injection: []Group{
			{
				Category:       CategoryPromptInjection,
				Base:           0.8,
				Severity:       SeverityCritical,
				FirstMatchOnly: true,
				Description:    "Potential prompt injection attempt detected",
				Action:         "Block request and investigate prompt injection attempt",
				Rules: []Rule{
					{"ignore_instructions", regexp.MustCompile(`ignore\s+(?:previous|above|all)\s+(?:instructions?|prompts?)`)},
					{"forget_context", regexp.MustCompile(`forget\s+(?:everything|all|previous)`)},
					{"disregard_instructions", regexp.MustCompile(`disregard\s+(?:all\s+)?(?:previous\s+)?(?:instructions?|prompts?)`)},
					{"identity_override", regexp.MustCompile(`you\s+are\s+now\s+(?:a\s+)?(?:different|new|free|unrestricted)`)},
					{"pretend", regexp.MustCompile(`pretend\s+(?:to\s+be|you\s+are)`)},
					{"act_as", regexp.MustCompile(`act\s+as\s+(?:if\s+)?(?:you\s+are\s+)?(?:a\s+)?(?:different|new|developer|admin|hacker)`)},
					{"system_role_override", regexp.MustCompile(`(?:system|role)\s*:\s*you\s+are\s+(?:now\s+)?(?:a\s+)?(?:different|new)`)},
					{"jailbreak", regexp.MustCompile(`jailbreak`)},
					{"override_safety", regexp.MustCompile(`override\s+(?:safety|security|instructions)`)},
					{"new_instructions", regexp.MustCompile(`new\s+instructions?`)},
					{"chatml_delimiter", regexp.MustCompile(`<\|im_start\|>\s*system`)},
					{"reveal_prompt", regexp.MustCompile(`(?:show|reveal|repeat|output)\s+(?:me\s+)?(?:your|the)\s+(?:system\s+)?prompt`)},
				},
			},
			{
				Category:       CategorySqlInjection,
				Base:           0.8,
				Severity:       SeverityHigh,
				FirstMatchOnly: true,
				Description:    "Potential SQL injection attempt detected",
				Action:         "Block request and investigate SQL injection attempt",
				Rules: []Rule{
					{"union_select", regexp.MustCompile(`\bunion\s+(?:all\s+)?select\b`)},
					{"stacked_statement", regexp.MustCompile(`;\s*(?:drop|delete|insert|update|create|alter)\b`)},
					{"tautology_numeric", regexp.MustCompile(`\b(?:or|and)\s+\d+\s*=\s*\d+`)},
					{"tautology_quoted", regexp.MustCompile(`\b(?:or|and)\s+["']\s*=\s*["']`)},
					{"statement_keywords", regexp.MustCompile(`\b(?:select|insert|update|delete|drop|create|alter)\b.*\b(?:from|into|where|values|table)\b`)},
					{"comment_suffix", regexp.MustCompile(`--\s*$`)},
				},
			},
			{
				Category:       CategoryXssAttempt,
				Base:           0.8,
				Severity:       SeverityHigh,
				FirstMatchOnly: true,
				Description:    "Potential XSS attempt detected",
				Action:         "Block request and investigate XSS attempt",
				Rules: []Rule{
					{"script_tag", regexp.MustCompile(`<script[^>]*>`)},
					{"javascript_uri", regexp.MustCompile(`javascript\s*:`)},
					{"iframe_tag", regexp.MustCompile(`<iframe[^>]*>`)},
					{"object_embed_tag", regexp.MustCompile(`<(?:object|embed)[^>]*>`)},
					{"event_handler", regexp.MustCompile(`\bon\w+\s*=`)},
					{"img_onerror", regexp.MustCompile(`<img[^>]*onerror\s*=`)},
					{"svg_onload", regexp.MustCompile(`<svg[^>]*onload\s*=`)},
				},
			},
		},
		Keywords: compileKeywords(
			"admin", "password", "token", "secret", "key", "credential",
			"hack", "exploit", "vulnerability", "bypass", "root",
			"escalate", "privilege", "backdoor", "malware", "virus",
			"inject", "payload", "shell", "cmd", "exec", "eval",
		),
		Auth: Group{
			Category:       CategoryAuthFailure,
			Base:           0.7,
			Severity:       SeverityMedium,
			FirstMatchOnly: true,
			Description:    "Authentication failure detected",
			Action:         "Monitor for brute force attacks",
			Rules: []Rule{
				{"authentication_failed", regexp.MustCompile(`authentication\s+failed`)},
				{"login_failed", regexp.MustCompile(`login\s+failed`)},
				{"invalid_credentials", regexp.MustCompile(`invalid\s+credentials`)},
				{"access_denied", regexp.MustCompile(`access\s+denied`)},
				{"unauthorized", regexp.MustCompile(`\bunauthorized\b`)},
			},
		},
	}
}

const keywordBase = 0.6

func compileKeywords(words ...string) []Rule {
	rules := make([]Rule, len(words))
	for i, w := range words {
		rules[i] = Rule{Name: w, re: regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)}
	}
	return rules
}

// Counts reports rule counts per concern, for the status endpoint.
func (p *Patterns) Counts() map[string]int {
	counts := map[string]int{
		"pii":      len(p.Pii),
		"keywords": len(p.Keywords),
	}
	for _, g := range p.Injection {
		counts[string(g.Category)] = len(g.Rules)
	}
	counts[string(p.Auth.Category)] = len(p.Auth.Rules)
	return counts
}
