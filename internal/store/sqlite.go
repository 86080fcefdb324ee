package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the default durable backend, a local single-file database.
type SQLite struct {
	readDB    *sql.DB
	writeDB   *sql.DB
	ttl       time.Duration
	retention time.Duration
}

func OpenSQLite(dbPath string, ttl, retention time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &SQLite{readDB: readDB, writeDB: writeDB, ttl: ttl, retention: retention}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS digests (
			id         TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_digests_created ON digests(created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *SQLite) GetCached(ctx context.Context) ([]byte, error) {
	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	var data []byte
	err := s.readDB.QueryRowContext(ctx,
		"SELECT data FROM digests WHERE created_at > ? ORDER BY created_at DESC LIMIT 1",
		cutoff).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached digest: %w", err)
	}
	return data, nil
}

func (s *SQLite) Cache(ctx context.Context, id string, data []byte) error {
	_, err := s.writeDB.ExecContext(ctx,
		"INSERT OR REPLACE INTO digests (id, data, created_at) VALUES (?, ?, ?)",
		id, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("caching digest %s: %w", id, err)
	}

	// Cleanup piggybacks on writes rather than running as a separate job.
	horizon := time.Now().Add(-s.retention).UnixMilli()
	if _, err := s.writeDB.ExecContext(ctx, "DELETE FROM digests WHERE created_at < ?", horizon); err != nil {
		return fmt.Errorf("pruning old digests: %w", err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.writeDB.ExecContext(ctx, "DELETE FROM digests"); err != nil {
		return fmt.Errorf("clearing digests: %w", err)
	}
	return nil
}

func (s *SQLite) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.readDB.QueryContext(ctx,
		"SELECT id, data, created_at FROM digests ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdMs int64
		if err := rows.Scan(&e.ID, (*[]byte)(&e.Digest), &createdMs); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
