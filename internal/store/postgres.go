package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres backs the digest cache with a shared database, for deployments
// where the process filesystem is ephemeral.
type Postgres struct {
	pool      *pgxpool.Pool
	ttl       time.Duration
	retention time.Duration
}

func OpenPostgres(ctx context.Context, connStr string, ttl, retention time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	p := &Postgres{pool: pool, ttl: ttl, retention: retention}
	if err := p.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) init(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS digests (
			id         TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) GetCached(ctx context.Context) ([]byte, error) {
	cutoff := time.Now().Add(-p.ttl).UnixMilli()
	var data []byte
	err := p.pool.QueryRow(ctx,
		"SELECT data FROM digests WHERE created_at > $1 ORDER BY created_at DESC LIMIT 1",
		cutoff).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached digest: %w", err)
	}
	return data, nil
}

func (p *Postgres) Cache(ctx context.Context, id string, data []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO digests (id, data, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET data = $2, created_at = $3`,
		id, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("caching digest %s: %w", id, err)
	}

	horizon := time.Now().Add(-p.retention).UnixMilli()
	if _, err := p.pool.Exec(ctx, "DELETE FROM digests WHERE created_at < $1", horizon); err != nil {
		return fmt.Errorf("pruning old digests: %w", err)
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM digests"); err != nil {
		return fmt.Errorf("clearing digests: %w", err)
	}
	return nil
}

func (p *Postgres) History(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.pool.Query(ctx,
		"SELECT id, data, created_at FROM digests ORDER BY created_at DESC LIMIT $1", limit)
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
