// Package memstore provides an in-memory implementation of record.Store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/sentinel/internal/event"
)

// DefaultCap bounds how many events are retained before old ones are evicted.
const DefaultCap = 10000

// Store holds log events in memory. Suitable for dev/testing.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*event.LogEvent
	order  []string // insertion order, oldest first
	maxCap int
}

// New initializes a new in-memory Store retaining up to DefaultCap events.
func New() *Store {
	return NewWithCap(DefaultCap)
}

// NewWithCap initializes a Store with a custom retention cap.
func NewWithCap(maxCap int) *Store {
	if maxCap <= 0 {
		maxCap = DefaultCap
	}
	return &Store{
		byID:   make(map[string]*event.LogEvent),
		maxCap: maxCap,
	}
}

// Put stores a copy of the event, evicting the oldest when over capacity.
func (s *Store) Put(_ context.Context, ev *event.LogEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[ev.ID]; !exists {
		s.order = append(s.order, ev.ID)
	}
	cp := *ev
	s.byID[ev.ID] = &cp

	for len(s.order) > s.maxCap {
		evict := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, evict)
	}
	return nil
}

// Get retrieves an event by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*event.LogEvent, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.byID[id]
	if !ok {
		return nil, false, nil
	}
	cp := *ev
	return &cp, true, nil
}

// Recent returns up to limit events newest-first, optionally filtered by
// source and level. A non-positive limit returns all retained events.
func (s *Store) Recent(_ context.Context, limit int, source string, level event.Level) ([]*event.LogEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*event.LogEvent
	for i := len(s.order) - 1; i >= 0; i-- {
		ev := s.byID[s.order[i]]
		if source != "" && ev.Source != source {
			continue
		}
		if level != "" && ev.Level != level {
			continue
		}
		cp := *ev
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CountSince reports how many retained events were received at or after cutoff.
func (s *Store) CountSince(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, ev := range s.byID {
		if !ev.ReceivedAt.Before(cutoff) {
			n++
		}
	}
	return n, nil
}
