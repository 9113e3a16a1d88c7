// internal/journal/postgres.go
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore persists dispatch entries in PostgreSQL for deployments that
// need history to survive restarts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool for the given DSN.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Ping verifies the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the dispatches table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS dispatches (
			id UUID PRIMARY KEY,
			event_id VARCHAR(64) NOT NULL,
			pipeline_id VARCHAR(255) NOT NULL,
			application VARCHAR(255),
			pipeline VARCHAR(255),
			trigger_id VARCHAR(255),
			artifact TEXT,
			status VARCHAR(16) NOT NULL,
			error_msg TEXT,
			duration_ms BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_event ON dispatches(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_pipeline ON dispatches(pipeline_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dispatches_created ON dispatches(created_at DESC)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("journal: ensure schema: %w", err)
		}
	}
	return nil
}

// Record inserts one dispatch entry.
func (s *PostgresStore) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO dispatches (
			id, event_id, pipeline_id, application, pipeline,
			trigger_id, artifact, status, error_msg, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.EventID,
		entry.PipelineID,
		nullString(entry.Application),
		nullString(entry.Pipeline),
		nullString(entry.TriggerID),
		nullString(entry.Artifact),
		entry.Status,
		nullString(entry.Error),
		entry.Duration.Milliseconds(),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("journal: insert dispatch: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *PostgresStore) List(ctx context.Context, q Query) ([]*Entry, error) {
	sqlQuery := `
		SELECT id, event_id, pipeline_id, application, pipeline,
		       trigger_id, artifact, status, error_msg, duration_ms, created_at
		FROM dispatches
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if q.EventID != nil {
		sqlQuery += fmt.Sprintf(" AND event_id = $%d", argIdx)
		args = append(args, *q.EventID)
		argIdx++
	}
	if q.PipelineID != nil {
		sqlQuery += fmt.Sprintf(" AND pipeline_id = $%d", argIdx)
		args = append(args, *q.PipelineID)
		argIdx++
	}
	if q.Application != nil {
		sqlQuery += fmt.Sprintf(" AND application = $%d", argIdx)
		args = append(args, *q.Application)
		argIdx++
	}
	if q.Status != nil {
		sqlQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *q.Status)
		argIdx++
	}

	sqlQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)
	args = append(args, q.limit())

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query dispatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var application, pipeline, triggerID, artifact, errMsg sql.NullString
		var durationMS int64

		if err := rows.Scan(
			&e.ID, &e.EventID, &e.PipelineID, &application, &pipeline,
			&triggerID, &artifact, &e.Status, &errMsg, &durationMS, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("journal: scan dispatch: %w", err)
		}

		e.Application = application.String
		e.Pipeline = pipeline.String
		e.TriggerID = triggerID.String
		e.Artifact = artifact.String
		e.Error = errMsg.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Stats counts entries by status.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM dispatches GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("journal: query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("journal: scan stats: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusDispatched:
			stats.Dispatched = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
