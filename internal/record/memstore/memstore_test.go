package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/linnemanlabs/sentinel/internal/event"
)

func testEvent(id, source string, level event.Level) *event.LogEvent {
	return &event.LogEvent{
		ID:         id,
		Message:    "message for " + id,
		Source:     source,
		Level:      level,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	ev := testEvent("ev-1", "web", event.LevelInfo)
	if err := s.Put(ctx, ev); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := s.Get(ctx, "ev-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Message != ev.Message || got.Source != "web" {
		t.Errorf("got %+v", got)
	}

	// returned value is a copy
	got.Message = "mutated"
	again, _, _ := s.Get(ctx, "ev-1")
	if again.Message == "mutated" {
		t.Error("Get should return a copy")
	}
}

func TestGet_Missing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("expected not found")
	}
}

func TestPut_Overwrite(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	s.Put(ctx, testEvent("ev-1", "web", event.LevelInfo))
	updated := testEvent("ev-1", "api", event.LevelError)
	s.Put(ctx, updated)

	got, _, _ := s.Get(ctx, "ev-1")
	if got.Source != "api" {
		t.Errorf("source = %q, want api", got.Source)
	}

	all, _ := s.Recent(ctx, 0, "", "")
	if len(all) != 1 {
		t.Errorf("events = %d, want 1 after overwrite", len(all))
	}
}

func TestRecent_OrderAndFilters(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	s.Put(ctx, testEvent("ev-1", "web", event.LevelInfo))
	s.Put(ctx, testEvent("ev-2", "api", event.LevelError))
	s.Put(ctx, testEvent("ev-3", "web", event.LevelError))

	all, err := s.Recent(ctx, 0, "", "")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(all) != 3 || all[0].ID != "ev-3" || all[2].ID != "ev-1" {
		t.Errorf("order = %v, want newest first", ids(all))
	}

	web, _ := s.Recent(ctx, 0, "web", "")
	if len(web) != 2 {
		t.Errorf("web events = %d, want 2", len(web))
	}

	errs, _ := s.Recent(ctx, 0, "", event.LevelError)
	if len(errs) != 2 {
		t.Errorf("error events = %d, want 2", len(errs))
	}

	limited, _ := s.Recent(ctx, 1, "", "")
	if len(limited) != 1 || limited[0].ID != "ev-3" {
		t.Errorf("limited = %v, want [ev-3]", ids(limited))
	}
}

func TestEviction(t *testing.T) {
	t.Parallel()

	s := NewWithCap(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		s.Put(ctx, testEvent(fmt.Sprintf("ev-%d", i), "web", event.LevelInfo))
	}

	all, _ := s.Recent(ctx, 0, "", "")
	if len(all) != 3 {
		t.Fatalf("events = %d, want 3", len(all))
	}
	if _, ok, _ := s.Get(ctx, "ev-1"); ok {
		t.Error("oldest event should be evicted")
	}
	if _, ok, _ := s.Get(ctx, "ev-5"); !ok {
		t.Error("newest event should be retained")
	}
}

func TestCountSince(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	old := testEvent("ev-old", "web", event.LevelInfo)
	old.ReceivedAt = time.Now().UTC().Add(-2 * time.Hour)
	s.Put(ctx, old)
	s.Put(ctx, testEvent("ev-new", "web", event.LevelInfo))

	n, err := s.CountSince(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func ids(evs []*event.LogEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.ID
	}
	return out
}
