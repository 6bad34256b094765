package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns        = 2
	defaultApplicationName = "sqlaltery"
)

// PoolOption tunes the pool NewPool builds.
type PoolOption func(*pgxpool.Config)

// WithMaxConns caps the pool size. Values below one are ignored.
func WithMaxConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// WithApplicationName sets application_name, which shows up in
// pg_stat_activity next to the migration's locks.
func WithApplicationName(name string) PoolOption {
	return func(c *pgxpool.Config) {
		if name != "" {
			c.ConnConfig.RuntimeParams["application_name"] = name
		}
	}
}

// PoolConfig parses databaseURL and applies opts on top of sqlaltery's
// defaults. A migration needs one connection plus one for status queries.
func PoolConfig(databaseURL string, opts ...PoolOption) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDatabaseURL, err)
	}

	cfg.MaxConns = defaultMaxConns

	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = defaultApplicationName
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg, nil
}

// NewPool opens a pool and pings the server so a bad URL or unreachable host
// fails before any migration work starts.
func NewPool(ctx context.Context, databaseURL string, opts ...PoolOption) (*pgxpool.Pool, error) {
	cfg, err := PoolConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return pool, nil
}

// Acquire checks a dedicated connection out of the pool. Session settings such
// as lock_timeout stick to it until it is released.
func Acquire(ctx context.Context, pool *pgxpool.Pool) (PooledConn, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring connection: %w", ErrConnectionFailed, err)
	}

	return conn, nil
}
