// Package record persists ingested log events for later inspection.
package record

import (
	"context"
	"time"

	"github.com/linnemanlabs/sentinel/internal/event"
)

// Store is the persistence interface for ingested log events.
type Store interface {
	Put(ctx context.Context, ev *event.LogEvent) error
	Get(ctx context.Context, id string) (*event.LogEvent, bool, error)
	Recent(ctx context.Context, limit int, source string, level event.Level) ([]*event.LogEvent, error)
	CountSince(ctx context.Context, cutoff time.Time) (int, error)
}
