package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/config"
	"github.com/aqasim81/sqlaltery/internal/executor"
	"github.com/aqasim81/sqlaltery/internal/tracker"
)

const (
	usersSQL = `CREATE TABLE users (id integer PRIMARY KEY, email text NOT NULL);`
	ordersSQL = usersSQL + `
CREATE TABLE orders (id integer PRIMARY KEY, user_id integer REFERENCES users);
CREATE INDEX orders_user_id_idx ON orders (user_id);`
	droppedSQL = `CREATE TABLE users (id integer PRIMARY KEY);`
)

// useConfig points the global AppConfig at a fresh migrations directory.
func useConfig(t *testing.T) *config.Config {
	t.Helper()

	old := AppConfig
	t.Cleanup(func() { AppConfig = old })

	cfg := config.New()
	cfg.MigrationsDir = filepath.Join(t.TempDir(), "migrations")
	AppConfig = cfg

	return cfg
}

func writeSchema(t *testing.T, sql string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(sql), 0o600))

	return path
}

// newCmd builds a command with the flags of cmd registered but unset.
func newCmd(register func(*cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)

	if register != nil {
		register(cmd)
	}

	return cmd, buf
}

func generate(t *testing.T, sql string) string {
	t.Helper()

	cmd, buf := newCmd(nil)
	require.NoError(t, runGenerate(cmd, []string{writeSchema(t, sql)}))

	return buf.String()
}

func TestParseRevision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg     string
		want    int
		wantErr bool
	}{
		{arg: "0", want: 0},
		{arg: "12", want: 12},
		{arg: "head", want: executor.Latest},
		{arg: "LATEST", want: executor.Latest},
		{arg: "-1", wantErr: true},
		{arg: "two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			t.Parallel()

			got, err := parseRevision(tt.arg)
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidRevisionArg)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunGenerate_writesThenReportsNoChanges(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	cfg := useConfig(t)

	out := generate(t, usersSQL)
	assert.Contains(t, out, filepath.Join(cfg.MigrationsDir, "001.yml"))
	assert.Contains(t, out, "create table users")

	out = generate(t, usersSQL)
	assert.Contains(t, out, "No changes: revision 1")

	out = generate(t, ordersSQL)
	assert.Contains(t, out, "002.yml")

	entries, err := os.ReadDir(cfg.MigrationsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunGenerate_usesConfiguredSchemaFile(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	cfg := useConfig(t)
	cfg.SchemaFile = writeSchema(t, usersSQL)

	cmd, buf := newCmd(nil)
	require.NoError(t, runGenerate(cmd, nil))
	assert.Contains(t, buf.String(), "001.yml")
}

func TestRunGenerate_badSchemaFile(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)

	cmd, _ := newCmd(nil)
	err := runGenerate(cmd, []string{filepath.Join(t.TempDir(), "schema.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading head schema")
}

func TestRunPlan_offline(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)
	generate(t, usersSQL)
	generate(t, ordersSQL)

	cmd, buf := newCmd(func(c *cobra.Command) { c.Flags().Int("from", -1, "") })
	require.NoError(t, cmd.Flags().Set("from", "1"))
	require.NoError(t, runPlan(cmd, nil))

	out := buf.String()
	assert.Contains(t, out, "Plan: revision 1 -> 2")
	assert.Contains(t, out, "002  002.yml  sha256:")
	assert.NotContains(t, out, "001.yml")
	assert.Contains(t, out, `CREATE INDEX "orders_user_id_idx" ON "orders" ("user_id");`)
	assert.Contains(t, out, "No dangerous operations detected.", "index on a table created in the same run")
}

func TestRunPlan_downgradeIsAnalyzed(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)
	generate(t, usersSQL)
	generate(t, ordersSQL)

	cmd, buf := newCmd(func(c *cobra.Command) { c.Flags().Int("from", -1, "") })
	require.NoError(t, cmd.Flags().Set("from", "2"))
	require.NoError(t, runPlan(cmd, []string{"0"}))

	out := buf.String()
	assert.Contains(t, out, "Plan: revision 2 -> 0")
	assert.Contains(t, out, "001  001.yml  sha256:")
	assert.Contains(t, out, "002  002.yml  sha256:")
	assert.Contains(t, out, `DROP TABLE "users";`)
	assert.Contains(t, out, "[CRITICAL]")
}

func TestRunPlan_outOfRange(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)
	generate(t, usersSQL)

	cmd, _ := newCmd(func(c *cobra.Command) { c.Flags().Int("from", -1, "") })
	require.NoError(t, cmd.Flags().Set("from", "0"))
	require.Error(t, runPlan(cmd, []string{"5"}))
}

func TestRunPlan_json(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	cfg := useConfig(t)
	cfg.Format = "json"
	generate(t, usersSQL)

	cmd, buf := newCmd(func(c *cobra.Command) { c.Flags().Int("from", -1, "") })
	require.NoError(t, cmd.Flags().Set("from", "0"))
	require.NoError(t, runPlan(cmd, nil))

	assert.Contains(t, buf.String(), `"to": 1`)
	assert.Contains(t, buf.String(), `"operation": "create table users"`)
	assert.Regexp(t, `"checksum": "[0-9a-f]{64}"`, buf.String())
}

func TestRunAnalyze(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)
	generate(t, usersSQL)
	generate(t, droppedSQL)

	cmd, buf := newCmd(func(c *cobra.Command) { c.Flags().String("fail-on", "", "") })
	err := runAnalyze(cmd, nil)
	require.ErrorIs(t, err, errDangerousMigrations)
	assert.Contains(t, buf.String(), "=== migration 002 ===")
	assert.Contains(t, buf.String(), "drop-column")

	cmd, _ = newCmd(func(c *cobra.Command) { c.Flags().String("fail-on", "", "") })
	require.NoError(t, cmd.Flags().Set("fail-on", "critical"))
	require.NoError(t, runAnalyze(cmd, nil))
}

func TestRunAnalyze_emptyChain(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)

	cmd, buf := newCmd(func(c *cobra.Command) { c.Flags().String("fail-on", "", "") })
	require.NoError(t, runAnalyze(cmd, nil))
	assert.Contains(t, buf.String(), "No migration files found.")
}

func TestRunMigrate_noDatabaseURL(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)

	cmd, _ := newCmd(func(c *cobra.Command) {
		addRunFlags(c)
		c.Flags().Int("initial", 0, "")
	})

	require.ErrorIs(t, runMigrate(cmd, nil), errDatabaseURLRequired)
	require.ErrorIs(t, runMigrate(cmd, []string{"nope"}), errInvalidRevisionArg)
}

func TestRunRollback_validatesSteps(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	useConfig(t)

	cmd, _ := newCmd(func(c *cobra.Command) {
		addRunFlags(c)
		c.Flags().Int("steps", 1, "")
	})

	require.ErrorIs(t, runRollback(cmd, nil), errDatabaseURLRequired)

	require.NoError(t, cmd.Flags().Set("steps", "0"))
	require.ErrorIs(t, runRollback(cmd, nil), errInvalidSteps)
}

func TestRollbackTarget(t *testing.T) {
	t.Parallel()

	got, err := rollbackTarget(3, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = rollbackTarget(3, 3)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = rollbackTarget(1, 2)
	require.ErrorIs(t, err, executor.ErrInvalidRevision)
}

func TestRunOptsFromFlags(t *testing.T) { //nolint:paralleltest // writes global AppConfig
	cfg := useConfig(t)
	cfg.InitialRevision = 2

	cmd, _ := newCmd(func(c *cobra.Command) {
		addRunFlags(c)
		c.Flags().Int("initial", 0, "")
	})

	opts := runOptsFromFlags(cmd)
	assert.Equal(t, 2, opts.initial)
	assert.Equal(t, config.DefaultLockTimeout, opts.lockTimeout)

	require.NoError(t, cmd.Flags().Set("initial", "1"))
	require.NoError(t, cmd.Flags().Set("lock-timeout", "1s"))
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))

	opts = runOptsFromFlags(cmd)
	assert.Equal(t, 1, opts.initial)
	assert.Equal(t, time.Second, opts.lockTimeout)
	assert.True(t, opts.dryRun)
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		revision int
		ok       bool
		head     int
		want     string
	}{
		{name: "unstamped", head: 3, want: "Database has no revision. Head is 3 (3 migration(s) pending)."},
		{name: "at head", revision: 3, ok: true, head: 3, want: "Database is at revision 3, the head."},
		{name: "behind", revision: 1, ok: true, head: 3, want: "Database is at revision 1 of 3 (2 migration(s) pending)."},
		{name: "ahead", revision: 4, ok: true, head: 3, want: "Database is at revision 4, beyond the head 3 known here."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, newStatus(tt.revision, tt.ok, tt.head).String())
		})
	}
}

func TestPrintHistory(t *testing.T) {
	t.Parallel()

	applied := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []tracker.Record{
		{Order: 0, Revision: 0, DateApplied: applied},
		{Order: 1, Revision: 3, DateApplied: applied},
	}

	cmd, buf := newCmd(nil)
	require.NoError(t, printHistory(cmd, config.New(), records))
	assert.Contains(t, buf.String(), "ORDER")
	assert.Contains(t, buf.String(), "2026-01-02T03:04:05Z")

	jsonCfg := config.New()
	jsonCfg.Format = "json"

	cmd, buf = newCmd(nil)
	require.NoError(t, printHistory(cmd, jsonCfg, records))
	assert.Contains(t, buf.String(), `"revision": 3`)

	cmd, buf = newCmd(nil)
	require.NoError(t, printHistory(cmd, config.New(), nil))
	assert.Contains(t, buf.String(), "No revisions recorded.")
}

func TestReachesThreshold(t *testing.T) {
	t.Parallel()

	results := []analyzer.AnalysisResult{
		{},
		{Findings: []analyzer.Finding{{Severity: analyzer.Medium}}, MaxSeverity: analyzer.Medium},
	}

	assert.True(t, reachesThreshold(results, analyzer.Medium))
	assert.False(t, reachesThreshold(results, analyzer.High))
}
