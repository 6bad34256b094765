package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/aqasim81/sqlaltery/internal/database"
)

// SetLockTimeout sets lock_timeout for the session or transaction behind ex.
// This causes the migration to fail fast if it cannot acquire a lock
// within the specified duration, instead of blocking other queries.
func SetLockTimeout(ctx context.Context, ex database.Execer, timeout time.Duration) error {
	sql := fmt.Sprintf("SET lock_timeout = '%dms'", timeout.Milliseconds())

	if _, err := ex.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting lock_timeout: %w", err)
	}

	return nil
}

// SetStatementTimeout sets statement_timeout for the session or transaction behind ex.
// This prevents runaway DDL from holding locks indefinitely.
func SetStatementTimeout(ctx context.Context, ex database.Execer, timeout time.Duration) error {
	sql := fmt.Sprintf("SET statement_timeout = '%dms'", timeout.Milliseconds())

	if _, err := ex.Exec(ctx, sql); err != nil {
		return fmt.Errorf("setting statement_timeout: %w", err)
	}

	return nil
}

// ResetTimeouts resets both lock_timeout and statement_timeout to zero (unlimited).
func ResetTimeouts(ctx context.Context, ex database.Execer) error {
	if _, err := ex.Exec(ctx, "SET lock_timeout = '0'"); err != nil {
		return fmt.Errorf("resetting lock_timeout: %w", err)
	}

	if _, err := ex.Exec(ctx, "SET statement_timeout = '0'"); err != nil {
		return fmt.Errorf("resetting statement_timeout: %w", err)
	}

	return nil
}
