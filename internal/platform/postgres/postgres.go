// Package postgres exposes a pgx connection pool for raw SQL access to the
// database behind the Supabase project.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrMissingURL is returned by Connect when no connection string is configured.
var ErrMissingURL = errors.New("postgres: connection string is required")

// Config holds pool settings.
type Config struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// Querier is the query method of a connection pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DB wraps a pool. It is safe for concurrent use.
type DB struct {
	q     Querier
	close func()
}

// Connect creates the pool. No connection is opened until the first query.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, ErrMissingURL
	}
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return &DB{q: pool, close: pool.Close}, nil
}

// New wraps an existing Querier.
func New(q Querier) *DB {
	return &DB{q: q}
}

// Query forwards sql and params to the pool and returns its result unchanged.
func (db *DB) Query(ctx context.Context, sql string, params ...any) (pgx.Rows, error) {
	return db.q.Query(ctx, sql, params...)
}

// Close releases every pooled connection.
func (db *DB) Close() {
	if db != nil && db.close != nil {
		db.close()
	}
}

// Ping runs a trivial query through Query and drains the result.
func (db *DB) Ping(ctx context.Context) error {
	rows, err := db.Query(ctx, "select 1")
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}
