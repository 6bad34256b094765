package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/database"
	"github.com/aqasim81/sqlaltery/internal/executor"
	"github.com/aqasim81/sqlaltery/internal/migration"
)

// errConcurrentInTransaction is returned when --single-transaction is asked
// for a run that builds or drops an index concurrently.
var errConcurrentInTransaction = errors.New("concurrent index operations cannot run inside a transaction; drop --single-transaction")

var migrateCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "migrate [revision]",
	Short: "Move the database to a revision (default: head)",
	Long: `Move the database forward or backward along the migration chain to the
given revision, or to the head when none is given. A database that has never
been stamped is adopted at --initial first. Operations are analyzed before
anything runs; dangerous ones block the run unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addRunFlags(migrateCmd)
	migrateCmd.Flags().Int("initial", 0, "revision to stamp an unversioned database with before migrating")
	rootCmd.AddCommand(migrateCmd)
}

// addRunFlags registers the flags shared by commands that execute DDL.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "print the statements without executing or stamping anything")
	cmd.Flags().Bool("force", false, "run even when the analysis reports dangerous operations")
	cmd.Flags().Bool("single-transaction", false, "run every operation and the stamp in one transaction")
	cmd.Flags().String("fail-on", "", "severity that blocks the run (low, medium, high, critical)")
	cmd.Flags().Duration("lock-timeout", 0, "override lock timeout (e.g., 10s, 1m)")
	cmd.Flags().Duration("statement-timeout", 0, "override statement timeout (e.g., 30s, 5m)")
}

// runOpts collects the settings of one migrate or rollback run.
type runOpts struct {
	target            int
	initial           int
	dryRun            bool
	force             bool
	singleTransaction bool
	lockTimeout       time.Duration
	stmtTimeout       time.Duration
}

func runOptsFromFlags(cmd *cobra.Command) runOpts {
	cfg := AppConfig

	opts := runOpts{
		initial:     cfg.InitialRevision,
		lockTimeout: cfg.LockTimeout,
		stmtTimeout: cfg.StatementTimeout,
	}

	opts.dryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.force, _ = cmd.Flags().GetBool("force")
	opts.singleTransaction, _ = cmd.Flags().GetBool("single-transaction")

	if cmd.Flags().Changed("initial") {
		opts.initial, _ = cmd.Flags().GetInt("initial")
	}

	if cmd.Flags().Changed("lock-timeout") {
		opts.lockTimeout, _ = cmd.Flags().GetDuration("lock-timeout")
	}

	if cmd.Flags().Changed("statement-timeout") {
		opts.stmtTimeout, _ = cmd.Flags().GetDuration("statement-timeout")
	}

	return opts
}

func runMigrate(cmd *cobra.Command, args []string) error {
	opts := runOptsFromFlags(cmd)
	opts.target = executor.Latest

	if len(args) > 0 {
		target, err := parseRevision(args[0])
		if err != nil {
			return err
		}

		opts.target = target
	}

	if AppConfig.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	repo, err := loadRepository(AppConfig)
	if err != nil {
		return err
	}

	return withMigrator(cmd, AppConfig, repo, func(ctx context.Context, pool *pgxpool.Pool, m *executor.Migrator) error {
		current, ok, err := m.Revision(ctx)
		if err != nil {
			return err
		}

		if !ok {
			current = opts.initial
		}

		return execute(ctx, cmd, pool, m, repo, current, opts)
	}, migratorOptions(cmd.OutOrStdout(), opts)...)
}

func migratorOptions(out io.Writer, opts runOpts) []executor.Option {
	return []executor.Option{
		executor.WithLockTimeout(opts.lockTimeout),
		executor.WithStatementTimeout(opts.stmtTimeout),
		executor.WithDryRun(opts.dryRun),
		executor.WithProgressCallback(progressPrinter(out)),
	}
}

// execute analyzes the operations between current and opts.target, then runs
// them through m or, with --single-transaction, through a Migrator bound to a
// transaction on pool.
func execute(
	ctx context.Context,
	cmd *cobra.Command,
	pool *pgxpool.Pool,
	m *executor.Migrator,
	repo *migration.Repository,
	current int,
	opts runOpts,
) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()

	target := opts.target
	if target == executor.Latest {
		target = repo.Head()
	}

	operations, err := repo.CollectOps(current, target)
	if err != nil {
		return fmt.Errorf("%w: %w", executor.ErrInvalidRevision, err)
	}

	if !opts.dryRun {
		if err := checkDangerousOperations(cmd, repo, current, target, opts.force); err != nil {
			return err
		}
	}

	if opts.dryRun {
		fmt.Fprintln(out, "\n--- DRY RUN (no changes will be made) ---")
	}

	run := func(m *executor.Migrator) (executor.Result, error) {
		return m.Migrate(ctx, opts.target, opts.initial)
	}

	var res executor.Result

	if opts.singleTransaction && !opts.dryRun {
		noTx, err := executor.RequiresNoTransaction(operations)
		if err != nil {
			return err
		}

		if noTx {
			return errConcurrentInTransaction
		}

		err = database.InTransaction(ctx, pool, func(tx pgx.Tx) error {
			var runErr error
			res, runErr = run(executor.New(tx, repo, append(migratorOptions(out, opts), executor.WithLogger(appLogger))...))

			return runErr
		})
		if err != nil {
			return err
		}
	} else {
		if res, err = run(m); err != nil {
			return err
		}
	}

	if opts.dryRun {
		for _, stmt := range res.Statements {
			fmt.Fprintf(out, "%s;\n", stmt)
		}

		fmt.Fprintf(out, "\nDry run complete: %d operation(s) would move revision %d to %d.\n",
			len(res.Operations), res.From, res.To)

		return nil
	}

	if cfg.Format == "json" {
		return writeJSON(out, map[string]any{"from": res.From, "to": res.To, "operations": len(res.Operations)})
	}

	fmt.Fprintf(out, "\nMigrated revision %d to %d: %d operation(s) applied.\n", res.From, res.To, len(res.Operations))

	return nil
}

// checkDangerousOperations analyzes the run and returns errDangerousMigrations
// when a finding reaches the fail-on threshold and force is not set.
func checkDangerousOperations(cmd *cobra.Command, repo *migration.Repository, from, to int, force bool) error {
	threshold, err := failOnThreshold(cmd, AppConfig.FailOn)
	if err != nil {
		return err
	}

	result, err := analyzeRange(repo, from, to)
	if err != nil {
		return err
	}

	if len(result.Findings) == 0 {
		return nil
	}

	if err := printAnalysisResults(cmd.OutOrStdout(), "text", []analyzer.AnalysisResult{*result}); err != nil {
		return err
	}

	if result.AtLeast(threshold) && !force {
		return errDangerousMigrations
	}

	return nil
}

func progressPrinter(out io.Writer) func(executor.ProgressEvent) {
	return func(event executor.ProgressEvent) {
		switch event.Status {
		case executor.StatusStarting:
			fmt.Fprintf(out, "  [%d/%d] %s ... ", event.Index, event.Total, event.Operation)
		case executor.StatusCompleted:
			fmt.Fprintf(out, "done (%s)\n", event.Duration.Truncate(time.Millisecond))
		case executor.StatusSkipped:
			fmt.Fprintln(out, "skipped")
		case executor.StatusFailed:
			fmt.Fprintf(out, "FAILED\n")
			fmt.Fprintf(out, "    Error: %v\n", event.Error)
		}
	}
}
