package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/executor"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show the database revision against the head of the chain",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(statusCmd)
}

// status is the outcome of comparing a database with the chain.
type status struct {
	Revision *int `json:"revision"`
	Head     int  `json:"head"`
	Pending  int  `json:"pending"`
}

func newStatus(revision int, ok bool, head int) status {
	s := status{Head: head, Pending: head}

	if ok {
		s.Revision = &revision
		s.Pending = head - revision
	}

	return s
}

func (s status) String() string {
	if s.Revision == nil {
		return fmt.Sprintf("Database has no revision. Head is %d (%d migration(s) pending).", s.Head, s.Pending)
	}

	switch {
	case s.Pending == 0:
		return fmt.Sprintf("Database is at revision %d, the head.", *s.Revision)
	case s.Pending < 0:
		return fmt.Sprintf("Database is at revision %d, beyond the head %d known here.", *s.Revision, s.Head)
	default:
		return fmt.Sprintf("Database is at revision %d of %d (%d migration(s) pending).", *s.Revision, s.Head, s.Pending)
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	repo, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	return withMigrator(cmd, cfg, repo, func(ctx context.Context, _ *pgxpool.Pool, m *executor.Migrator) error {
		revision, ok, err := m.Revision(ctx)
		if err != nil {
			return err
		}

		st := newStatus(revision, ok, repo.Head())

		if cfg.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), st)
		}

		fmt.Fprintln(cmd.OutOrStdout(), st)

		return nil
	})
}
