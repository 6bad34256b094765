// Package tracker reads and appends the per-database revision records.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aqasim81/sqlaltery/internal/database"
)

// Record is one row of the revision table.
type Record struct {
	Order       int
	Revision    int
	DateApplied time.Time
}

// Tracker manages the revision table over a single connection.
// Rows are only ever inserted, never updated or deleted.
type Tracker struct {
	conn database.Conn
}

// New creates a Tracker bound to conn.
func New(conn database.Conn) *Tracker {
	return &Tracker{conn: conn}
}

// Exists reports whether the revision table has been created.
func (t *Tracker) Exists(ctx context.Context) (bool, error) {
	var exists bool

	if err := t.conn.QueryRow(ctx, existsSQL).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking for %s table: %w", TableName, err)
	}

	return exists, nil
}

// EnsureTable creates the revision table if it does not exist.
func (t *Tracker) EnsureTable(ctx context.Context) error {
	if _, err := t.conn.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrTableCreation, err)
	}

	return nil
}

// Current returns the revision of the row with the highest order. ok is false
// when the table is missing or empty.
func (t *Tracker) Current(ctx context.Context) (revision int, ok bool, err error) {
	exists, err := t.Exists(ctx)
	if err != nil || !exists {
		return 0, false, err
	}

	if err := t.conn.QueryRow(ctx, currentSQL).Scan(&revision); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, fmt.Errorf("reading current revision: %w", err)
	}

	return revision, true, nil
}

// Stamp appends a row recording revision, creating the table first if needed.
// The new row's order is one past the highest existing order, or 0.
func (t *Tracker) Stamp(ctx context.Context, revision int) (Record, error) {
	if err := t.EnsureTable(ctx); err != nil {
		return Record{}, err
	}

	var r Record

	if err := t.conn.QueryRow(ctx, stampSQL, revision).Scan(&r.Order, &r.Revision, &r.DateApplied); err != nil {
		return Record{}, fmt.Errorf("stamping revision %d: %w", revision, err)
	}

	return r, nil
}

// History returns every row ordered by order. A missing table yields no rows.
func (t *Tracker) History(ctx context.Context) ([]Record, error) {
	exists, err := t.Exists(ctx)
	if err != nil || !exists {
		return nil, err
	}

	rows, err := t.conn.Query(ctx, historySQL)
	if err != nil {
		return nil, fmt.Errorf("querying revision history: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		if scanErr := row.Scan(&r.Order, &r.Revision, &r.DateApplied); scanErr != nil {
			return Record{}, fmt.Errorf("scanning revision row: %w", scanErr)
		}

		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning revision history: %w", err)
	}

	return records, nil
}
