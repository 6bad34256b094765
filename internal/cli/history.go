package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/config"
	"github.com/aqasim81/sqlaltery/internal/database"
	"github.com/aqasim81/sqlaltery/internal/tracker"
)

var historyCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "history",
	Short: "List every revision the database has been stamped with",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(historyCmd)
}

type historyRow struct {
	Order       int       `json:"order"`
	Revision    int       `json:"revision"`
	DateApplied time.Time `json:"date_applied"`
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
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
	defer conn.Release()

	records, err := tracker.New(conn).History(ctx)
	if err != nil {
		return err
	}

	return printHistory(cmd, cfg, records)
}

func printHistory(cmd *cobra.Command, cfg *config.Config, records []tracker.Record) error {
	out := cmd.OutOrStdout()

	if cfg.Format == "json" {
		rows := make([]historyRow, 0, len(records))
		for _, r := range records {
			rows = append(rows, historyRow(r))
		}

		return writeJSON(out, rows)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No revisions recorded.")

		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0) //nolint:mnd // column padding
	fmt.Fprintln(w, "ORDER\tREVISION\tAPPLIED")

	for _, r := range records {
		fmt.Fprintf(w, "%d\t%d\t%s\n", r.Order, r.Revision, r.DateApplied.Format(time.RFC3339))
	}

	return w.Flush()
}
