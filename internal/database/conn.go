package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer executes a single SQL statement. *pgx.Conn, pgx.Tx, *pgxpool.Conn
// and *pgxpool.Pool all satisfy it, as does Recorder.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Conn is the live connection a migrator is bound to.
type Conn interface {
	Execer
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PooledConn is a Conn that must be handed back when its owner is done.
// *pgxpool.Conn satisfies it.
type PooledConn interface {
	Conn
	Release()
}
