package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

var generateCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "generate [schema-file]",
	Short: "Write the next migration from the head schema",
	Long: `Load the head schema (PostgreSQL DDL in a .sql file, or a .yml/.yaml
table document), compare it with the schema the migration chain builds, and
write the difference as the next numbered migration file. Nothing is written
when the two already match.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := AppConfig

	path := cfg.SchemaFile
	if len(args) > 0 {
		path = args[0]
	}

	head, err := schema.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading head schema: %w", err)
	}

	repo, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	m, err := repo.Generate(head)
	if err != nil {
		return fmt.Errorf("generating migration: %w", err)
	}

	out := cmd.OutOrStdout()

	if m == nil {
		fmt.Fprintf(out, "No changes: revision %d already matches %s.\n", repo.Head(), path)

		return nil
	}

	fmt.Fprintf(out, "Created %s (%d operation(s)):\n", m.Path, len(m.Ops))

	for _, op := range m.Ops {
		fmt.Fprintf(out, "  - %s\n", op)
	}

	return nil
}
