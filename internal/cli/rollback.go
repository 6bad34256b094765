package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/executor"
)

var (
	errNotStamped   = errors.New("database has no revision yet; nothing to roll back")
	errInvalidSteps = errors.New("--steps must be positive")
)

var rollbackCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "rollback",
	Short: "Move the database back by a number of migrations",
	Long: `Move the database back --steps migrations from its current revision by
running the reverse of each operation, newest first.`,
	Args: cobra.NoArgs,
	RunE: runRollback,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	addRunFlags(rollbackCmd)
	rollbackCmd.Flags().Int("steps", 1, "number of migrations to roll back")
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, _ []string) error {
	steps, _ := cmd.Flags().GetInt("steps")
	if steps < 1 {
		return errInvalidSteps
	}

	if AppConfig.DatabaseURL == "" {
		return errDatabaseURLRequired
	}

	opts := runOptsFromFlags(cmd)

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
			return errNotStamped
		}

		target, err := rollbackTarget(current, steps)
		if err != nil {
			return err
		}

		opts.target = target
		opts.initial = current

		return execute(ctx, cmd, pool, m, repo, current, opts)
	}, migratorOptions(cmd.OutOrStdout(), opts)...)
}

func rollbackTarget(current, steps int) (int, error) {
	if steps > current {
		return 0, fmt.Errorf("%w: cannot roll back %d migration(s) from revision %d", executor.ErrInvalidRevision, steps, current)
	}

	return current - steps, nil
}
