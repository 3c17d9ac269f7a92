// Package db provides PostgreSQL access to the applications system of record.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS applications (
	id              TEXT PRIMARY KEY,
	job_id          TEXT NOT NULL,
	candidate_name  TEXT NOT NULL,
	candidate_email TEXT NOT NULL DEFAULT '',
	stage           TEXT NOT NULL,
	fit_score       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (fit_score >= 0 AND fit_score <= 100),
	source          TEXT NOT NULL DEFAULT '',
	starred         BOOLEAN NOT NULL DEFAULT FALSE,
	labels          TEXT[] NOT NULL DEFAULT '{}',
	metadata        JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_applications_job ON applications (job_id, created_at, id);

CREATE TABLE IF NOT EXISTS transition_events (
	id             UUID PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications (id),
	from_stage     TEXT NOT NULL,
	to_stage       TEXT NOT NULL,
	actor          TEXT NOT NULL DEFAULT '',
	note           TEXT NOT NULL DEFAULT '',
	occurred_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transition_events_app ON transition_events (application_id, occurred_at);
`

// Migrate creates the tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
