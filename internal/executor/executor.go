// Package executor implements the Migrator: a session bound to one live
// connection that reads and stamps the database revision and runs slices of
// the migration chain against it.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aqasim81/sqlaltery/internal/database"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
	"github.com/aqasim81/sqlaltery/internal/tracker"
)

// Latest asks Migrate to go to the last known migration.
const Latest = -1

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// ProgressEvent is emitted for each operation of a migrate run.
type ProgressEvent struct {
	From       int // revision the run started at
	To         int // revision the run is heading to
	Index      int // 1-based position of Operation in the run
	Total      int
	Operation  ops.Operation
	Status     string
	Statements []string
	Duration   time.Duration
	Error      error
}

// Result summarises a migrate run.
type Result struct {
	From       int
	To         int
	Operations []ops.Operation
	Statements []string
}

// Chain is the loaded migration chain a Migrator replays.
type Chain interface {
	Head() int
	CollectOps(start, end int) ([]ops.Operation, error)
}

// RevisionTracker abstracts the revision table for testability.
type RevisionTracker interface {
	Current(ctx context.Context) (int, bool, error)
	Stamp(ctx context.Context, revision int) (tracker.Record, error)
}

// Migrator applies slices of a migration chain over one connection. It is
// not safe for concurrent use, and nothing stops two migrators on different
// connections from racing on the same database.
type Migrator struct {
	conn             database.Conn
	chain            Chain
	tracker          RevisionTracker
	lockTimeout      time.Duration
	statementTimeout time.Duration
	dryRun           bool
	onProgress       func(ProgressEvent)
	logger           *slog.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithLockTimeout sets lock_timeout on the connection before running DDL.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Migrator) { m.lockTimeout = d }
}

// WithStatementTimeout sets statement_timeout on the connection before running DDL.
func WithStatementTimeout(d time.Duration) Option {
	return func(m *Migrator) { m.statementTimeout = d }
}

// WithDryRun renders statements without executing them or stamping a revision.
func WithDryRun(b bool) Option {
	return func(m *Migrator) { m.dryRun = b }
}

// WithProgressCallback sets a function called for each operation processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(m *Migrator) { m.onProgress = fn }
}

// WithLogger sets the logger. Defaults to discarding everything.
func WithLogger(l *slog.Logger) Option {
	return func(m *Migrator) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracker replaces the revision table tracker.
func WithTracker(t RevisionTracker) Option {
	return func(m *Migrator) { m.tracker = t }
}

// New binds a Migrator to conn. conn may be a pooled connection or a pgx.Tx
// when the caller wants the whole run in one transaction.
func New(conn database.Conn, chain Chain, opts ...Option) *Migrator {
	m := &Migrator{
		conn:   conn,
		chain:  chain,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.tracker == nil {
		m.tracker = tracker.New(conn)
	}

	return m
}

// Revision returns the revision the database was last stamped with. ok is
// false when the database has never been stamped.
func (m *Migrator) Revision(ctx context.Context) (revision int, ok bool, err error) {
	return m.tracker.Current(ctx)
}

// setRevision appends a revision record.
func (m *Migrator) setRevision(ctx context.Context, revision int) error {
	rec, err := m.tracker.Stamp(ctx, revision)
	if err != nil {
		return err
	}

	m.logger.Debug("stamped revision", "revision", rec.Revision, "order", rec.Order)

	return nil
}

// Migrate moves the database to target, or to the head of the chain when
// target is Latest. A database that was never stamped is first stamped with
// initial, adopting it at that revision without replaying history against it.
// Revisions are validated before anything is executed.
func (m *Migrator) Migrate(ctx context.Context, target, initial int) (Result, error) {
	head := m.chain.Head()

	if target == Latest {
		target = head
	}

	if err := checkRevision("target", target, head); err != nil {
		return Result{}, err
	}

	if err := checkRevision("initial", initial, head); err != nil {
		return Result{}, err
	}

	current, err := m.currentOrInitial(ctx, initial)
	if err != nil {
		return Result{}, err
	}

	if err := checkRevision("recorded", current, head); err != nil {
		return Result{}, err
	}

	snapshot, err := m.replay(current)
	if err != nil {
		return Result{}, err
	}

	operations, err := m.chain.CollectOps(current, target)
	if err != nil {
		return Result{}, err
	}

	res := Result{From: current, To: target, Operations: operations}

	m.logger.Info("migrating", "from", current, "to", target, "operations", len(operations), "dry_run", m.dryRun)

	if res.Statements, err = m.execute(ctx, snapshot, res); err != nil {
		return res, err
	}

	if m.dryRun {
		return res, nil
	}

	if err := m.setRevision(ctx, target); err != nil {
		return res, fmt.Errorf("stamping revision %d: %w", target, err)
	}

	return res, nil
}

func checkRevision(what string, revision, head int) error {
	if revision < 0 || revision > head {
		return fmt.Errorf("%w: %s revision %d outside 0..%d", ErrInvalidRevision, what, revision, head)
	}

	return nil
}

func (m *Migrator) currentOrInitial(ctx context.Context, initial int) (int, error) {
	current, ok, err := m.Revision(ctx)
	if err != nil {
		return 0, err
	}

	if ok {
		return current, nil
	}

	m.logger.Info("database has no revision, adopting it", "initial", initial)

	if !m.dryRun {
		if err := m.setRevision(ctx, initial); err != nil {
			return 0, fmt.Errorf("stamping initial revision %d: %w", initial, err)
		}
	}

	return initial, nil
}

// replay rebuilds the snapshot at revision in memory so operations validate
// and render against the structure the database already has.
func (m *Migrator) replay(revision int) (*schema.Schema, error) {
	operations, err := m.chain.CollectOps(0, revision)
	if err != nil {
		return nil, err
	}

	s := schema.New()
	if err := ops.Replay(s, operations); err != nil {
		return nil, fmt.Errorf("replaying chain to revision %d: %w", revision, err)
	}

	return s, nil
}

func (m *Migrator) execute(ctx context.Context, s *schema.Schema, res Result) ([]string, error) {
	var ex database.Execer = m.conn

	recorder := &database.Recorder{}
	if m.dryRun {
		ex = recorder
	}

	if len(res.Operations) > 0 && !m.dryRun {
		if err := m.applyTimeouts(ctx); err != nil {
			return nil, err
		}

		if m.lockTimeout > 0 || m.statementTimeout > 0 {
			defer func() {
				if err := ResetTimeouts(ctx, m.conn); err != nil {
					m.logger.Warn("resetting timeouts", "error", err)
				}
			}()
		}
	}

	var all []string

	for i, op := range res.Operations {
		event := ProgressEvent{From: res.From, To: res.To, Index: i + 1, Total: len(res.Operations), Operation: op}

		event.Status = StatusStarting
		m.fireProgress(event)

		start := time.Now()
		stmts, err := ops.Apply(ctx, op, s, ex)
		event.Duration = time.Since(start)
		event.Statements = stmts

		if err != nil {
			event.Status = StatusFailed
			event.Error = err
			m.fireProgress(event)
			m.logger.Error("operation failed", "operation", op.String(), "error", err)

			return all, fmt.Errorf("migrating %d to %d: %w", res.From, res.To, err)
		}

		all = append(all, stmts...)

		event.Status = StatusCompleted
		if m.dryRun {
			event.Status = StatusSkipped
		}

		m.fireProgress(event)
		m.logger.Debug("operation applied", "operation", op.String(), "statements", len(stmts), "duration", event.Duration)
	}

	return all, nil
}

func (m *Migrator) applyTimeouts(ctx context.Context) error {
	if m.lockTimeout > 0 {
		if err := SetLockTimeout(ctx, m.conn, m.lockTimeout); err != nil {
			return err
		}
	}

	if m.statementTimeout > 0 {
		if err := SetStatementTimeout(ctx, m.conn, m.statementTimeout); err != nil {
			return err
		}
	}

	return nil
}

func (m *Migrator) fireProgress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
