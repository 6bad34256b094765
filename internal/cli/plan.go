package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/executor"
	"github.com/aqasim81/sqlaltery/internal/migration"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

var planCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "plan [revision]",
	Short: "Show the DDL a migrate would run, without running it",
	Long: `Render the statements that moving to the given revision (default: head)
would execute, together with the safety analysis of each operation. The
starting revision is read from the database unless --from is given, in which
case no connection is made.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	planCmd.Flags().Int("from", -1, "starting revision; skips reading it from the database")
	planCmd.Flags().Int("initial", 0, "revision assumed for an unversioned database")
	rootCmd.AddCommand(planCmd)
}

// planMigration identifies a migration file a plan passes through. The
// checksum lets a reviewer confirm the file was not edited after review.
type planMigration struct {
	Number   int    `json:"number"`
	File     string `json:"file"`
	Checksum string `json:"checksum"`
}

// planStep is one operation of a plan with the statements it renders to.
type planStep struct {
	Operation  string   `json:"operation"`
	Statements []string `json:"statements"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := AppConfig

	target := executor.Latest

	if len(args) > 0 {
		t, err := parseRevision(args[0])
		if err != nil {
			return err
		}

		target = t
	}

	repo, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	if target == executor.Latest {
		target = repo.Head()
	}

	if cmd.Flags().Changed("from") {
		from, _ := cmd.Flags().GetInt("from")

		return printPlan(cmd, repo, from, target)
	}

	initial, _ := cmd.Flags().GetInt("initial")
	if !cmd.Flags().Changed("initial") {
		initial = cfg.InitialRevision
	}

	return withMigrator(cmd, cfg, repo, func(ctx context.Context, _ *pgxpool.Pool, m *executor.Migrator) error {
		current, ok, err := m.Revision(ctx)
		if err != nil {
			return err
		}

		if !ok {
			current = initial
		}

		return printPlan(cmd, repo, current, target)
	})
}

func printPlan(cmd *cobra.Command, repo *migration.Repository, from, to int) error {
	steps, err := renderSteps(repo, from, to)
	if err != nil {
		return err
	}

	result, err := analyzeRange(repo, from, to)
	if err != nil {
		return err
	}

	files, err := touchedMigrations(repo, from, to)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if AppConfig.Format == "json" {
		return writeJSON(out, map[string]any{"from": from, "to": to, "migrations": files, "steps": steps})
	}

	if len(steps) == 0 {
		fmt.Fprintf(out, "Nothing to do: already at revision %d.\n", to)

		return nil
	}

	fmt.Fprintf(out, "Plan: revision %d -> %d, %d operation(s)\n", from, to, len(steps))

	for _, f := range files {
		fmt.Fprintf(out, "  %03d  %s  sha256:%s\n", f.Number, filepath.Base(f.File), f.Checksum[:12])
	}

	fmt.Fprintln(out)

	for i, step := range steps {
		fmt.Fprintf(out, "-- [%d] %s\n", i+1, step.Operation)

		for _, stmt := range step.Statements {
			fmt.Fprintf(out, "%s;\n", stmt)
		}

		fmt.Fprintln(out)
	}

	return printAnalysisResults(out, "text", []analyzer.AnalysisResult{*result})
}

// touchedMigrations lists the migrations between from and to in ascending
// order, whichever direction the plan runs.
func touchedMigrations(repo *migration.Repository, from, to int) ([]planMigration, error) {
	all, err := repo.Migrations()
	if err != nil {
		return nil, err
	}

	lo, hi := min(from, to), max(from, to)

	var out []planMigration

	for _, m := range all {
		if m.Number > lo && m.Number <= hi {
			out = append(out, planMigration{Number: m.Number, File: m.Path, Checksum: m.Checksum})
		}
	}

	return out, nil
}

// renderSteps renders the operations between from and to against the
// snapshot at from without touching a database.
func renderSteps(repo *migration.Repository, from, to int) ([]planStep, error) {
	operations, err := repo.CollectOps(from, to)
	if err != nil {
		return nil, err
	}

	s, err := repo.Snapshot(from)
	if err != nil {
		return nil, err
	}

	steps := make([]planStep, 0, len(operations))

	for _, op := range operations {
		stmts, err := ops.Apply(context.Background(), op, s, nil)
		if err != nil {
			return nil, err
		}

		steps = append(steps, planStep{Operation: op.String(), Statements: stmts})
	}

	return steps, nil
}

// analyzeRange runs the default rules over the operations between from and to.
// A single forward step is reported under its migration number.
func analyzeRange(repo *migration.Repository, from, to int) (*analyzer.AnalysisResult, error) {
	operations, err := repo.CollectOps(from, to)
	if err != nil {
		return nil, err
	}

	s, err := repo.Snapshot(from)
	if err != nil {
		return nil, err
	}

	number := 0
	if to == from+1 {
		number = to
	}

	return newAnalyzer(AppConfig).AnalyzeOps(number, operations, s)
}
