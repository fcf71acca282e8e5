package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/dialect-gateway/pkg/events"
)

const repoLogPrefix = "db:repository"

// Repository provides access to the call log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordCall inserts one completed call.
func (r *Repository) RecordCall(ctx context.Context, event *events.CallCompletedEvent) error {
	entry := entryFromEvent(event)
	slog.Debug(fmt.Sprintf("%s - RecordCall dialect=%s method=%s", repoLogPrefix, entry.Dialect, entry.Method))

	_, err := r.pool.Exec(ctx,
		`INSERT INTO call_log (id, session_id, dialect, method, success, error, duration_ms, created)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.SessionID, entry.Dialect, entry.Method, entry.Success, entry.Error, entry.DurationMs, entry.Created)
	if err != nil {
		return fmt.Errorf("%s - failed to insert call: %w", repoLogPrefix, err)
	}
	return nil
}

// ListRecentCalls returns the newest calls first.
func (r *Repository) ListRecentCalls(ctx context.Context, params ListCallsParams) ([]CallLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, dialect, method, success, error, duration_ms, created
		 FROM call_log
		 WHERE ($1::text = '' OR dialect = $1) AND ($2::text = '' OR method = $2)
		 ORDER BY created DESC
		 LIMIT $3`,
		params.Dialect, params.Method, params.limit())
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list calls: %w", repoLogPrefix, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CallLogEntry, error) {
		var e CallLogEntry
		err := row.Scan(&e.ID, &e.SessionID, &e.Dialect, &e.Method, &e.Success, &e.Error, &e.DurationMs, &e.Created)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to scan calls: %w", repoLogPrefix, err)
	}
	return out, nil
}

// entryFromEvent converts an event into a row. A missing or unparsable
// timestamp falls back to now.
func entryFromEvent(event *events.CallCompletedEvent) CallLogEntry {
	created, err := time.Parse(time.RFC3339Nano, event.Timestamp)
	if err != nil {
		created = time.Now().UTC()
	}
	e := CallLogEntry{
		ID:         uuid.NewString(),
		SessionID:  event.SessionID,
		Dialect:    event.Dialect,
		Method:     event.Method,
		Success:    event.Success,
		DurationMs: event.DurationMs,
		Created:    created,
	}
	if event.Error != "" {
		msg := event.Error
		e.Error = &msg
	}
	return e
}
