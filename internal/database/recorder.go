package database

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
)

// Recorder is an Execer that collects statements instead of running them.
// It backs dry runs and plan output.
type Recorder struct {
	mu         sync.Mutex
	statements []string
}

// Exec records sql and reports success.
func (r *Recorder) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = append(r.statements, sql)

	return pgconn.NewCommandTag("RECORDED"), nil
}

// Statements returns a copy of everything recorded so far.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.statements))
	copy(out, r.statements)

	return out
}

// Reset discards recorded statements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = nil
}
