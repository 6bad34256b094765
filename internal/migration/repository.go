package migration

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aqasim81/sqlaltery/internal/database"
	"github.com/aqasim81/sqlaltery/internal/diff"
	"github.com/aqasim81/sqlaltery/internal/executor"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

// DefaultDir is the migrations directory used when none is configured.
const DefaultDir = "migrations"

// Differ computes the operations turning one snapshot into another.
type Differ interface {
	Diff(from, to *schema.Schema) []ops.Operation
}

// Repository owns the on-disk migration chain. It is not safe for concurrent
// use, and two repositories writing the same directory race on numbering.
type Repository struct {
	dir    string
	codec  Codec
	differ Differ
	logger *slog.Logger

	loaded     bool
	loadErr    error
	migrations []Migration
}

// Option configures a Repository.
type Option func(*Repository)

// WithCodec sets the migration file codec. Defaults to YAMLCodec.
func WithCodec(c Codec) Option {
	return func(r *Repository) {
		r.codec = c
	}
}

// WithDiffer replaces the default diff oracle.
func WithDiffer(d Differ) Option {
	return func(r *Repository) {
		r.differ = d
	}
}

// WithLogger sets the logger. Defaults to discarding everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// NewRepository creates a Repository for dir. Nothing is read until the chain
// is first needed.
func NewRepository(dir string, opts ...Option) *Repository {
	if dir == "" {
		dir = DefaultDir
	}

	r := &Repository{
		dir:    dir,
		codec:  YAMLCodec{},
		differ: diff.New(),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Dir returns the migrations directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Load reads every migration file and runs the single forward pass that
// computes each operation's reverse. It only does the work once; later calls
// return the first result.
func (r *Repository) Load() error {
	return r.ensureLoaded()
}

func (r *Repository) ensureLoaded() error {
	if !r.loaded {
		r.loaded = true
		r.loadErr = r.load()
	}

	return r.loadErr
}

func (r *Repository) load() error {
	found, err := LoadFromDir(r.dir, r.codec)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	sorted := Sort(found)
	if err := Verify(sorted); err != nil {
		return err
	}

	s := schema.New()

	for _, m := range sorted {
		for _, op := range m.Ops {
			if _, err := ops.GenerateReverse(op, s); err != nil {
				return fmt.Errorf("migration %d: %w", m.Number, err)
			}
		}
	}

	r.migrations = sorted
	r.logger.Debug("loaded migration chain", "dir", r.dir, "head", len(sorted))

	return nil
}

// Head returns the number of the last migration, 0 for an empty chain.
// It reflects the chain as of the last successful Load.
func (r *Repository) Head() int {
	return len(r.migrations)
}

// Migrations returns the loaded chain in order.
func (r *Repository) Migrations() ([]Migration, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)

	return out, nil
}

// Generate diffs the schema reconstructed from the chain against head and
// persists the result as the next migration. It returns nil when there is
// nothing to change.
func (r *Repository) Generate(head *schema.Schema) (*Migration, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	if head == nil {
		return nil, fmt.Errorf("head schema: %w: no schema given", schema.ErrInvalid)
	}

	if err := head.Validate(); err != nil {
		return nil, fmt.Errorf("head schema: %w", err)
	}

	current, err := r.Snapshot(r.Head())
	if err != nil {
		return nil, err
	}

	operations := r.differ.Diff(current, head)
	if len(operations) == 0 {
		r.logger.Info("schema unchanged, no migration generated", "head", r.Head())

		return nil, nil
	}

	for _, op := range operations {
		if _, err := ops.GenerateReverse(op, current); err != nil {
			return nil, fmt.Errorf("new migration: %w", err)
		}
	}

	if !schema.Equal(current, head) {
		return nil, ErrDiffIncomplete
	}

	m, err := r.write(r.Head()+1, operations)
	if err != nil {
		return nil, err
	}

	r.migrations = append(r.migrations, *m)
	r.logger.Info("generated migration", "number", m.Number, "path", m.Path, "operations", len(m.Ops))

	return m, nil
}

func (r *Repository) write(number int, operations []ops.Operation) (*Migration, error) {
	var buf bytes.Buffer
	if err := r.codec.Encode(&buf, operations); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil { //nolint:mnd // conventional directory mode
		return nil, fmt.Errorf("creating migrations directory %s: %w", r.dir, err)
	}

	path := filepath.Join(r.dir, FileName(number, r.codec))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) //nolint:mnd // conventional file mode
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrMigrationExists, path)
		}

		return nil, fmt.Errorf("creating migration file: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()

		return nil, fmt.Errorf("writing migration file %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing migration file %s: %w", path, err)
	}

	return &Migration{
		Number:   number,
		Ops:      operations,
		Path:     path,
		Checksum: ComputeChecksum(buf.Bytes()),
	}, nil
}

// CollectOps returns the operations leading from revision start to end.
// Moving forward yields the forward operations of migrations (start, end] in
// ascending order. Moving backward yields the reverses of migrations
// (end, start] in descending order, each migration's operations also reversed.
func (r *Repository) CollectOps(start, end int) ([]ops.Operation, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}

	head := r.Head()
	if start < 0 || start > head || end < 0 || end > head {
		return nil, fmt.Errorf("%w: %d..%d with head %d", ErrRevisionOutOfRange, start, end, head)
	}

	var out []ops.Operation

	if start <= end {
		for _, m := range r.migrations[start:end] {
			out = append(out, m.Ops...)
		}

		return out, nil
	}

	for i := start - 1; i >= end; i-- {
		m := r.migrations[i]

		for j := len(m.Ops) - 1; j >= 0; j-- {
			rev, err := m.Ops[j].Reverse()
			if err != nil {
				return nil, fmt.Errorf("migration %d: %s: %w", m.Number, m.Ops[j], err)
			}

			out = append(out, rev)
		}
	}

	return out, nil
}

// Snapshot reconstructs the schema at revision by replaying the chain from
// an empty snapshot without a connection.
func (r *Repository) Snapshot(revision int) (*schema.Schema, error) {
	operations, err := r.CollectOps(0, revision)
	if err != nil {
		return nil, err
	}

	s := schema.New()
	if err := ops.Replay(s, operations); err != nil {
		return nil, err
	}

	return s, nil
}

// ConnectTo binds a Migrator to conn for the duration of fn. The connection
// is released when ConnectTo returns, whether fn succeeds, fails or panics.
func (r *Repository) ConnectTo(conn database.PooledConn, fn func(m *executor.Migrator) error, opts ...executor.Option) error {
	defer conn.Release()

	if err := r.ensureLoaded(); err != nil {
		return err
	}

	opts = append([]executor.Option{executor.WithLogger(r.logger)}, opts...)

	return fn(executor.New(conn, r, opts...))
}
