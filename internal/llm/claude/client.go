// Package claude adapts the Anthropic Messages API into an auxiliary
// log-analysis detector. The model receives a single log entry and
// returns a strict-JSON threat assessment.
package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/sentinel/internal/analysis"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-20250514"

const maxResponseTokens = 1024

const systemPrompt = `You are a security analyst reviewing application log entries.
Assess the single log entry you are given for security threats: prompt injection,
data exfiltration, credential leakage, injection attacks, reconnaissance, or abuse.

Respond with ONLY a JSON object, no prose, in exactly this shape:
{
  "threats_detected": <bool>,
  "threat_level": "<low|medium|high|critical>",
  "confidence": <float 0.0-1.0>,
  "explanation": "<one sentence>",
  "suggested_action": "<one sentence>"
}

If the entry is benign, set threats_detected to false and confidence to your
certainty that it is benign.`

// messagesAPI is the slice of the Anthropic SDK the client needs.
type messagesAPI interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client calls the Claude API to assess log entries. It implements
// analysis.AuxiliaryDetector.
type Client struct {
	messages messagesAPI
	model    anthropic.Model
}

// New creates a Claude-backed auxiliary detector with the given API key
// and model name. An empty model falls back to DefaultModel.
func New(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	sdk := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		messages: &sdk.Messages,
		model:    anthropic.Model(model),
	}
}

// Name identifies the detector in status reports and metrics.
func (c *Client) Name() string { return "claude" }

// Analyze sends one log entry to the model and parses its verdict.
func (c *Client) Analyze(ctx context.Context, message, source string) (*analysis.AuxiliaryResult, error) {
	prompt := fmt.Sprintf("Source: %s\nLog entry: %s", source, message)

	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxResponseTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude messages: %w", err)
	}

	text := firstText(msg)
	if text == "" {
		return nil, fmt.Errorf("claude response has no text content")
	}

	return parseVerdict(text)
}

// firstText returns the first text block of the response, if any.
func firstText(msg *anthropic.Message) string {
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text
		}
	}
	return ""
}

// verdict mirrors the JSON shape the system prompt demands.
type verdict struct {
	ThreatsDetected bool    `json:"threats_detected"`
	ThreatLevel     string  `json:"threat_level"`
	Confidence      float64 `json:"confidence"`
	Explanation     string  `json:"explanation"`
	SuggestedAction string  `json:"suggested_action"`
}

// parseVerdict decodes the model's JSON verdict. Models occasionally wrap
// the object in markdown fences or surrounding prose, so the parser
// extracts the outermost object before decoding.
func parseVerdict(text string) (*analysis.AuxiliaryResult, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in claude response")
	}

	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode claude verdict: %w", err)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return nil, fmt.Errorf("claude verdict confidence %v out of range", v.Confidence)
	}

	// An unrecognized threat level is dropped; the engine then derives
	// severity from the confidence score.
	level, err := analysis.ParseSeverity(v.ThreatLevel)
	if err != nil {
		level = ""
	}

	return &analysis.AuxiliaryResult{
		Enabled:         true,
		ThreatsDetected: v.ThreatsDetected,
		ThreatLevel:     level,
		Confidence:      v.Confidence,
		Explanation:     v.Explanation,
		SuggestedAction: v.SuggestedAction,
	}, nil
}

// extractJSON returns the substring from the first '{' to the matching
// last '}', stripping markdown code fences first.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
