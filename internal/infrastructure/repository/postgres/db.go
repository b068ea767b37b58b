// Package postgres persists sessions, pages and text regions. Layout,
// region coordinates, style directions and audio clip lists are stored as
// JSONB columns; clips are base64 strings in region order.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	target_lang TEXT NOT NULL,
	voice TEXT NOT NULL DEFAULT '',
	total_pages INTEGER NOT NULL DEFAULT 0,
	is_ongoing BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS pages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	page_index INTEGER NOT NULL,
	image_ref TEXT NOT NULL,
	layout JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_front_page BOOLEAN NOT NULL DEFAULT FALSE,
	submitted_at TIMESTAMPTZ NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	audio_ready_at TIMESTAMPTZ,
	UNIQUE (session_id, page_index)
);

CREATE TABLE IF NOT EXISTS text_regions (
	id TEXT PRIMARY KEY,
	page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	region_index INTEGER NOT NULL,
	original_text TEXT NOT NULL,
	translated_text TEXT NOT NULL DEFAULT '',
	coordinates JSONB NOT NULL,
	directions JSONB NOT NULL DEFAULT '[]'::jsonb,
	audio_clips JSONB NOT NULL DEFAULT '[]'::jsonb,
	UNIQUE (page_id, region_index)
);

CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id, page_index);
CREATE INDEX IF NOT EXISTS idx_regions_page ON text_regions(page_id, region_index);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
