// Package outbox stores entity change events in a PostgreSQL table and feeds them to
// indexing plans. Applications insert events in the same transaction as their entity
// writes; workers drain the table and update the indexes.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DefaultTable is the outbox table name used when none is configured
const DefaultTable = "searchmap_outbox"

var (
	// ErrNoEvents is returned by Dequeue when no event is ready
	ErrNoEvents = errors.New("no events available")
	// ErrEventNotFound is returned when an event id does not exist
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidTable is returned for table names that are not plain identifiers
	ErrInvalidTable = errors.New("invalid outbox table name")
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

const eventColumns = `id, entity_type, entity_id, operation, paths, status, attempts, max_attempts,
		error, created_at, run_at, started_at, completed_at, locked_by, locked_at`

// Queue provides PostgreSQL-backed outbox operations
type Queue struct {
	db    *sql.DB
	table string
}

// NewQueue creates an outbox queue over table. An empty table means DefaultTable.
func NewQueue(db *sql.DB, table string) (*Queue, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &Queue{db: db, table: table}, nil
}

// Table returns the outbox table name
func (q *Queue) Table() string { return q.table }

// CreateTable creates the outbox table and its polling index when missing
func (q *Queue) CreateTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id UUID PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			paths JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			max_attempts INT NOT NULL DEFAULT 3,
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			run_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			locked_by TEXT,
			locked_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS %[1]s_polling ON %[1]s (status, run_at, created_at)
	`, q.table)

	if _, err := q.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create outbox table: %w", err)
	}
	return nil
}

// Enqueue adds a new event to the outbox
func (q *Queue) Enqueue(ctx context.Context, event *Event) error {
	return q.EnqueueTx(ctx, q.db, event)
}

// Execer is implemented by *sql.DB and *sql.Tx
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// EnqueueTx adds a new event through exec, typically the transaction writing the entity
func (q *Queue) EnqueueTx(ctx context.Context, exec Execer, event *Event) error {
	paths := event.Paths
	if paths == nil {
		paths = []string{}
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to marshal paths: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, entity_type, entity_id, operation, paths, status,
			attempts, max_attempts, created_at, run_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, q.table)

	_, err = exec.ExecContext(ctx, query,
		event.ID, event.EntityType, event.EntityID, event.Operation, pathsJSON, event.Status,
		event.Attempts, event.MaxAttempts, event.CreatedAt, event.RunAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row scanner) (*Event, error) {
	var event Event
	var pathsJSON []byte

	err := row.Scan(
		&event.ID, &event.EntityType, &event.EntityID, &event.Operation, &pathsJSON,
		&event.Status, &event.Attempts, &event.MaxAttempts, &event.Error, &event.CreatedAt,
		&event.RunAt, &event.StartedAt, &event.CompletedAt, &event.LockedBy, &event.LockedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(pathsJSON) > 0 {
		if err := json.Unmarshal(pathsJSON, &event.Paths); err != nil {
			return nil, fmt.Errorf("failed to unmarshal paths: %w", err)
		}
	}
	return &event, nil
}

// Dequeue retrieves and locks the oldest ready event
func (q *Queue) Dequeue(ctx context.Context, workerID string) (*Event, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s
		SET status = $1, locked_by = $2, locked_at = $3, started_at = $4, attempts = attempts + 1
		WHERE id = (
			SELECT id FROM %[1]s
			WHERE status = $5
				AND run_at <= $6
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING %[2]s
	`, q.table, eventColumns)

	now := time.Now()
	event, err := scanEvent(q.db.QueryRowContext(ctx, query,
		StatusRunning, workerID, now, now,
		StatusPending, now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoEvents
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue event: %w", err)
	}
	return event, nil
}

func (q *Queue) update(ctx context.Context, eventID uuid.UUID, action, query string, args ...interface{}) error {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s event: %w", action, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return nil
}

// Complete marks an event as indexed
func (q *Queue) Complete(ctx context.Context, eventID uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, completed_at = $2, locked_by = NULL, locked_at = NULL
		WHERE id = $3
	`, q.table)
	return q.update(ctx, eventID, "complete", query, StatusCompleted, time.Now(), eventID)
}

// Fail marks an event as failed with an error message
func (q *Queue) Fail(ctx context.Context, eventID uuid.UUID, errMsg string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, error = $2, completed_at = $3, locked_by = NULL, locked_at = NULL
		WHERE id = $4
	`, q.table)
	return q.update(ctx, eventID, "fail", query, StatusFailed, errMsg, time.Now(), eventID)
}

// Retry reschedules an event with exponential backoff while it has attempts left
func (q *Queue) Retry(ctx context.Context, eventID uuid.UUID) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2,
			run_at = $3 + (INTERVAL '1 minute' * (1 << LEAST(attempts - 1, 10))),
			locked_by = NULL,
			locked_at = NULL,
			error = NULL
		WHERE id = $1
		  AND attempts < max_attempts
		RETURNING attempts, max_attempts
	`, q.table)

	var attempts, maxAttempts int
	err := q.db.QueryRowContext(ctx, query, eventID, StatusPending, time.Now()).Scan(&attempts, &maxAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w or exceeded max attempts: %s", ErrEventNotFound, eventID)
	}
	if err != nil {
		return fmt.Errorf("failed to retry event: %w", err)
	}
	return nil
}

// RetryFailed moves every failed event back to pending with fresh attempts
func (q *Queue) RetryFailed(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, attempts = 0, error = NULL, run_at = $2, completed_at = NULL
		WHERE status = $3
	`, q.table)

	result, err := q.db.ExecContext(ctx, query, StatusPending, time.Now(), StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("failed to retry failed events: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// GetEvent retrieves an event by ID
func (q *Queue) GetEvent(ctx context.Context, eventID uuid.UUID) (*Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, eventColumns, q.table)

	event, err := scanEvent(q.db.QueryRowContext(ctx, query, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListFailed returns up to limit failed events, oldest first
func (q *Queue) ListFailed(ctx context.Context, limit int) ([]*Event, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, eventColumns, q.table)

	rows, err := q.db.QueryContext(ctx, query, StatusFailed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// PurgeCompleted removes completed events older than the specified duration
func (q *Queue) PurgeCompleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE status = $1 AND completed_at < $2`, q.table)

	result, err := q.db.ExecContext(ctx, query, StatusCompleted, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to purge events: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// Stats holds event counts per status
type Stats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Stats returns the event counts of the outbox
func (q *Queue) Stats(ctx context.Context) (*Stats, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE status = $1) as pending,
			COUNT(*) FILTER (WHERE status = $2) as running,
			COUNT(*) FILTER (WHERE status = $3) as completed,
			COUNT(*) FILTER (WHERE status = $4) as failed
		FROM %s
	`, q.table)

	var stats Stats
	err := q.db.QueryRowContext(ctx, query,
		StatusPending, StatusRunning, StatusCompleted, StatusFailed,
	).Scan(&stats.Pending, &stats.Running, &stats.Completed, &stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox stats: %w", err)
	}
	return &stats, nil
}
