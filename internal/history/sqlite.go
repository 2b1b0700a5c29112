package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the build history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		rendered_pages INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		content_hash TEXT NOT NULL,
		start_ts INTEGER NOT NULL,
		end_ts INTEGER NOT NULL,
		report BLOB
	);
	CREATE INDEX IF NOT EXISTS idx_builds_build_id ON builds(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_start ON builds(start_ts);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild inserts a build record.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, outcome, pages, rendered_pages, assets, errors, warnings, content_hash, start_ts, end_ts, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Outcome, rec.Pages, rec.RenderedPages, rec.Assets,
		rec.Errors, rec.Warnings, rec.ContentHash,
		rec.Start.UnixMilli(), rec.End.UnixMilli(), rec.Report,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

const selectColumns = `id, build_id, outcome, pages, rendered_pages, assets, errors, warnings, content_hash, start_ts, end_ts, report`

// Recent returns the most recent builds, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM builds ORDER BY start_ts DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ByBuildID returns a single build record.
func (s *SQLiteStore) ByBuildID(ctx context.Context, buildID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM builds WHERE build_id = ?", buildID)
	if err != nil {
		return nil, fmt.Errorf("query build: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Range returns builds whose start time falls in [start, end], oldest first.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM builds WHERE start_ts >= ? AND start_ts <= ? ORDER BY start_ts, id",
		start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var r Record
		var startMilli, endMilli int64
		if err := rows.Scan(&r.ID, &r.BuildID, &r.Outcome, &r.Pages, &r.RenderedPages, &r.Assets,
			&r.Errors, &r.Warnings, &r.ContentHash, &startMilli, &endMilli, &r.Report); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		r.Start = time.UnixMilli(startMilli)
		r.End = time.UnixMilli(endMilli)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
