// Package event defines the log event model ingested by Sentinel.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Level is the log level reported by the emitting application.
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// ParseLevel normalizes a level string. Unknown values are rejected so the
// transport layer can return a 400 instead of storing garbage.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelWarning:
		return LevelWarning, nil
	case LevelError:
		return LevelError, nil
	case LevelCritical:
		return LevelCritical, nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

// LogEvent is a single free-text log event received from an external
// application. It is immutable once constructed; the analysis engine and
// stores only ever read it.
type LogEvent struct {
	ID         string            `json:"id"`
	Message    string            `json:"message"`
	Source     string            `json:"source"`
	Level      Level             `json:"level"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	ReceivedAt time.Time         `json:"received_at"`
}

// Validate checks the fields the ingestion layer must reject on.
func (e *LogEvent) Validate() error {
	if e == nil {
		return fmt.Errorf("nil event")
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Errorf("missing required field: message")
	}
	if strings.TrimSpace(e.Source) == "" {
		return fmt.Errorf("missing required field: source")
	}
	if _, err := ParseLevel(string(e.Level)); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	return nil
}
