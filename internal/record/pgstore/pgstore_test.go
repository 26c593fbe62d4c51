package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linnemanlabs/sentinel/internal/event"
	"github.com/linnemanlabs/sentinel/internal/postgres"
	"github.com/linnemanlabs/sentinel/internal/record/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("SENTINEL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SENTINEL_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	ev := &event.LogEvent{
		ID:      "test-put-get-001",
		Message: "User email: john@example.com",
		Source:  "web-frontend",
		Level:   event.LevelWarning,
		Metadata: map[string]string{
			"request_id": "req-123",
		},
		ReceivedAt: now,
	}

	if err := s.Put(ctx, ev); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "ID", ev.ID, got.ID)
	assertEqual(t, "Message", ev.Message, got.Message)
	assertEqual(t, "Source", ev.Source, got.Source)
	assertEqual(t, "Level", string(ev.Level), string(got.Level))
	if !got.ReceivedAt.Equal(now) {
		t.Errorf("ReceivedAt = %v, want %v", got.ReceivedAt, now)
	}
	if got.Metadata["request_id"] != "req-123" {
		t.Errorf("Metadata = %v", got.Metadata)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("expected ok=false for missing id")
	}
}

func TestPut_Upsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	ev := &event.LogEvent{
		ID:         "test-upsert-001",
		Message:    "original",
		Source:     "api",
		Level:      event.LevelInfo,
		ReceivedAt: time.Now().Truncate(time.Microsecond).UTC(),
	}
	if err := s.Put(ctx, ev); err != nil {
		t.Fatalf("Put: %v", err)
	}

	ev.Message = "updated"
	ev.Level = event.LevelError
	if err := s.Put(ctx, ev); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, _, err := s.Get(ctx, ev.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	assertEqual(t, "Message", "updated", got.Message)
	assertEqual(t, "Level", string(event.LevelError), string(got.Level))
}

func TestRecent_FiltersAndOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Now().Truncate(time.Microsecond).UTC()
	events := []*event.LogEvent{
		{ID: "test-recent-1", Message: "a", Source: "recent-web", Level: event.LevelInfo, ReceivedAt: base.Add(-3 * time.Second)},
		{ID: "test-recent-2", Message: "b", Source: "recent-api", Level: event.LevelError, ReceivedAt: base.Add(-2 * time.Second)},
		{ID: "test-recent-3", Message: "c", Source: "recent-web", Level: event.LevelError, ReceivedAt: base.Add(-1 * time.Second)},
	}
	for _, ev := range events {
		if err := s.Put(ctx, ev); err != nil {
			t.Fatalf("Put %s: %v", ev.ID, err)
		}
	}

	web, err := s.Recent(ctx, 10, "recent-web", "")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(web) != 2 {
		t.Fatalf("web events = %d, want 2", len(web))
	}
	if web[0].ID != "test-recent-3" {
		t.Errorf("first = %s, want newest", web[0].ID)
	}

	errs, err := s.Recent(ctx, 10, "recent-web", event.LevelError)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(errs) != 1 || errs[0].ID != "test-recent-3" {
		t.Errorf("filtered = %v", errs)
	}
}

func TestCountSince(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	if err := s.Put(ctx, &event.LogEvent{
		ID: "test-count-1", Message: "x", Source: "count-src", Level: event.LevelInfo, ReceivedAt: now,
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	n, err := s.CountSince(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n < 1 {
		t.Errorf("count = %d, want >= 1", n)
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}
