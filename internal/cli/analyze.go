package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
)

var analyzeCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "analyze",
	Short: "Analyze the migration chain for dangerous operations",
	Long: `Analyze every migration in the chain for operations that could cause
table locks, downtime, or data loss. Reports findings with severity levels and
suggests safe alternatives.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	analyzeCmd.Flags().String("fail-on", "", "exit non-zero when a finding reaches this severity (low, medium, high, critical)")
	rootCmd.AddCommand(analyzeCmd)
}

// errDangerousMigrations is returned when findings reach the fail-on threshold.
var errDangerousMigrations = errors.New("dangerous operations detected (use --force to override)")

// findingJSON is the machine-readable form of a finding.
type findingJSON struct {
	Migration  int    `json:"migration"`
	Operation  int    `json:"operation"`
	Rule       string `json:"rule"`
	Severity   string `json:"severity"`
	Table      string `json:"table,omitempty"`
	Statement  string `json:"statement,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	LockType   string `json:"lock_type,omitempty"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	threshold, err := failOnThreshold(cmd, cfg.FailOn)
	if err != nil {
		return err
	}

	repo, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	migrations, err := repo.Migrations()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(migrations) == 0 && cfg.Format == "text" {
		fmt.Fprintln(out, "No migration files found.")

		return nil
	}

	results, err := newAnalyzer(cfg).AnalyzeAll(migrations)
	if err != nil {
		return fmt.Errorf("analyzing migrations: %w", err)
	}

	if err := printAnalysisResults(out, cfg.Format, results); err != nil {
		return err
	}

	if reachesThreshold(results, threshold) {
		return errDangerousMigrations
	}

	return nil
}

// failOnThreshold resolves the --fail-on flag, falling back to fallback.
func failOnThreshold(cmd *cobra.Command, fallback string) (analyzer.Severity, error) {
	label := fallback
	if cmd.Flags().Changed("fail-on") {
		label, _ = cmd.Flags().GetString("fail-on")
	}

	return analyzer.ParseSeverity(label)
}

func reachesThreshold(results []analyzer.AnalysisResult, threshold analyzer.Severity) bool {
	for i := range results {
		if results[i].AtLeast(threshold) {
			return true
		}
	}

	return false
}

func printAnalysisResults(out io.Writer, format string, results []analyzer.AnalysisResult) error {
	if format == "json" {
		findings := []findingJSON{}

		for _, r := range results {
			for _, f := range r.Findings {
				findings = append(findings, findingJSON{
					Migration:  f.Migration,
					Operation:  f.OpIndex,
					Rule:       f.Rule,
					Severity:   f.Severity.String(),
					Table:      f.Table,
					Statement:  f.Statement,
					Message:    f.Message,
					Suggestion: f.Suggestion,
					LockType:   f.LockType,
				})
			}
		}

		return writeJSON(out, findings)
	}

	totalFindings := 0

	for _, r := range results {
		if len(r.Findings) == 0 {
			continue
		}

		if r.Migration > 0 {
			fmt.Fprintf(out, "\n=== migration %03d ===\n", r.Migration)
		} else {
			fmt.Fprintln(out, "\n=== planned operations ===")
		}

		for _, f := range r.Findings {
			fmt.Fprintf(out, "  [%s] %s\n", f.Severity, f.Message)
			fmt.Fprintf(out, "    Op:    %s\n", f.Operation)
			fmt.Fprintf(out, "    Rule:  %s\n", f.Rule)

			if f.Statement != "" {
				fmt.Fprintf(out, "    SQL:   %s\n", f.Statement)
			}

			fmt.Fprintf(out, "    Fix:   %s\n\n", f.Suggestion)
		}

		totalFindings += len(r.Findings)
	}

	if totalFindings == 0 {
		fmt.Fprintln(out, "No dangerous operations detected.")
	} else {
		fmt.Fprintf(out, "Found %d finding(s) across %d migration(s).\n", totalFindings, countMigrationsWithFindings(results))
	}

	return nil
}

func countMigrationsWithFindings(results []analyzer.AnalysisResult) int {
	count := 0

	for _, r := range results {
		if len(r.Findings) > 0 {
			count++
		}
	}

	return count
}
