package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps the SQL connection pool
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection pool and verifies connectivity
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Migrate creates the schema if it does not exist
func (db *DB) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id UUID PRIMARY KEY,
		video_url TEXT NOT NULL,
		status TEXT NOT NULL,
		current_stage TEXT,
		progress DOUBLE PRECISION NOT NULL DEFAULT 0,
		final_score DOUBLE PRECISION,
		grade TEXT,
		results JSONB,
		error TEXT,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS analysis_stage_events (
		id BIGSERIAL PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
		stage TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		duration_ms BIGINT NOT NULL,
		error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		total_count INT NOT NULL,
		analyzed_count INT NOT NULL DEFAULT 0,
		processed_count INT NOT NULL DEFAULT 0,
		failed_count INT NOT NULL DEFAULT 0,
		config JSONB,
		output_folder TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS batch_items (
		batch_id TEXT NOT NULL REFERENCES batches(id) ON DELETE CASCADE,
		video_id TEXT NOT NULL,
		title TEXT,
		status TEXT NOT NULL,
		score DOUBLE PRECISION,
		processed_path TEXT,
		error TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (batch_id, video_id)
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_runs_status ON analysis_runs(status);
	CREATE INDEX IF NOT EXISTS idx_stage_events_run ON analysis_stage_events(run_id);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
