package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/analyzer/rules"
	"github.com/aqasim81/sqlaltery/internal/config"
	"github.com/aqasim81/sqlaltery/internal/database"
	"github.com/aqasim81/sqlaltery/internal/executor"
	"github.com/aqasim81/sqlaltery/internal/migration"
)

// errDatabaseURLRequired is returned when no database URL is configured.
var errDatabaseURLRequired = errors.New( //nolint:gochecknoglobals // sentinel error
	"database URL is required (set --database-url, SQLALTERY_DATABASE_URL, or database_url in config)",
)

// errInvalidRevisionArg is returned for revision arguments that are neither a
// number nor "head".
var errInvalidRevisionArg = errors.New("revision must be a non-negative number or \"head\"")

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func newRepository(cfg *config.Config) *migration.Repository {
	return migration.NewRepository(cfg.MigrationsDir,
		migration.WithCodec(migration.YAMLCodec{Indent: cfg.Indent}),
		migration.WithLogger(appLogger),
	)
}

// loadRepository returns the loaded chain for cfg.
func loadRepository(cfg *config.Config) (*migration.Repository, error) {
	repo := newRepository(cfg)
	if err := repo.Load(); err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	return repo, nil
}

func newAnalyzer(cfg *config.Config) *analyzer.Analyzer {
	return analyzer.New(
		analyzer.WithRegistry(rules.NewDefaultRegistry()),
		analyzer.WithPGVersion(cfg.TargetPGVersion),
	)
}

// parseRevision reads a revision argument. "head" and "latest" mean the last
// migration.
func parseRevision(arg string) (int, error) {
	switch strings.ToLower(arg) {
	case "head", "latest":
		return executor.Latest, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidRevisionArg, arg)
	}

	return n, nil
}

func connectDB(ctx context.Context, cfg *config.Config, out io.Writer) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errDatabaseURLRequired
	}

	if cfg.Format == "text" {
		fmt.Fprintf(out, "Connecting to %s\n", config.RedactDSN(cfg.DatabaseURL))
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return pool, nil
}

// withMigrator connects, checks out one connection and runs fn with a
// Migrator bound to it.
func withMigrator(
	cmd *cobra.Command,
	cfg *config.Config,
	repo *migration.Repository,
	fn func(ctx context.Context, pool *pgxpool.Pool, m *executor.Migrator) error,
	opts ...executor.Option,
) error {
	ctx := commandContext(cmd)

	pool, err := connectDB(ctx, cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := database.Acquire(ctx, pool)
	if err != nil {
		return err
	}

	return repo.ConnectTo(conn, func(m *executor.Migrator) error {
		return fn(ctx, pool, m)
	}, opts...)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	return nil
}
