// Package pgstore provides a PostgreSQL implementation of record.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/sentinel/internal/event"
)

var tracer = otel.Tracer("github.com/linnemanlabs/sentinel/internal/record/pgstore")

//go:embed schema.sql
var schema string

// Store persists log events in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
// The pool remains owned by the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const eventColumns = `id, message, source, level, metadata, received_at`

// Put inserts or updates a log event.
func (s *Store) Put(ctx context.Context, ev *event.LogEvent) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	metadataJSON, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `INSERT INTO log_events (` + eventColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (id) DO UPDATE SET
		message     = EXCLUDED.message,
		source      = EXCLUDED.source,
		level       = EXCLUDED.level,
		metadata    = EXCLUDED.metadata,
		received_at = EXCLUDED.received_at`

	if _, err := s.pool.Exec(ctx, query,
		ev.ID, ev.Message, ev.Source, string(ev.Level), metadataJSON, ev.ReceivedAt,
	); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// Get retrieves a log event by ID.
func (s *Store) Get(ctx context.Context, id string) (*event.LogEvent, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + eventColumns + ` FROM log_events WHERE id = $1`
	ev, err := scanEventRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if ev == nil {
		return nil, false, nil
	}
	return ev, true, nil
}

// Recent returns up to limit events newest-first, optionally filtered by
// source and level. A non-positive limit falls back to 100.
func (s *Store) Recent(ctx context.Context, limit int, source string, level event.Level) ([]*event.LogEvent, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Recent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + eventColumns + ` FROM log_events
	WHERE ($1 = '' OR source = $1) AND ($2 = '' OR level = $2)
	ORDER BY received_at DESC LIMIT $3`

	rows, err := s.pool.Query(ctx, query, source, string(level), limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []*event.LogEvent
	for rows.Next() {
		ev, err := scanEventRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// CountSince reports how many events were received at or after cutoff.
func (s *Store) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "pgstore.CountSince", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM log_events WHERE received_at >= $1`, cutoff,
	).Scan(&n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// scanEventRow scans a single row into a LogEvent.
// Returns (nil, nil) when no row is found.
func scanEventRow(row pgx.Row) (*event.LogEvent, error) {
	var (
		ev           event.LogEvent
		level        string
		metadataJSON []byte
	)

	err := row.Scan(&ev.ID, &ev.Message, &ev.Source, &level, &metadataJSON, &ev.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	ev.Level = event.Level(level)
	if err := json.Unmarshal(metadataJSON, &ev.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &ev, nil
}
