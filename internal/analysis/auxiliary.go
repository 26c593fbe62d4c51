package analysis

import "context"

// AuxiliaryResult is an auxiliary detector's verdict for one message.
// ThreatLevel and Confidence are carried verbatim into the resulting
// issue; the engine never rescores them.
type AuxiliaryResult struct {
	Enabled         bool
	ThreatsDetected bool
	ThreatLevel     Severity
	Confidence      float64
	Explanation     string
	SuggestedAction string
}

// AuxiliaryDetector is an optional, pluggable classifier (typically
// LLM-backed) that contributes the llm_detected_threat issue category.
// A nil detector on the engine means the category is never emitted.
type AuxiliaryDetector interface {
	Name() string
	Analyze(ctx context.Context, message, source string) (*AuxiliaryResult, error)
}
