package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

const existingSQL = `
CREATE TABLE users (
	id integer PRIMARY KEY,
	email varchar(255) NOT NULL,
	name text
);
CREATE TABLE orders (
	id integer PRIMARY KEY,
	user_id integer,
	total numeric
);`

// existing returns the schema a migration under test starts from.
func existing(t *testing.T) *schema.Schema {
	t.Helper()

	s, err := schema.FromSQL(existingSQL)
	require.NoError(t, err)

	return s
}

// check runs a single rule over operations applied on top of existing.
func check(t *testing.T, rule analyzer.Rule, pgVersion int, operations ...ops.Operation) []analyzer.Finding {
	t.Helper()

	registry := analyzer.NewRegistry()
	registry.Register(rule)

	a := analyzer.New(analyzer.WithRegistry(registry), analyzer.WithPGVersion(pgVersion))

	res, err := a.AnalyzeOps(7, operations, existing(t))
	require.NoError(t, err)

	for _, f := range res.Findings {
		require.Equal(t, rule.ID(), f.Rule)
		require.Equal(t, 7, f.Migration)
	}

	return res.Findings
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func newTable(name string) *ops.CreateTable {
	return &ops.CreateTable{Definition: schema.Table{
		Name:    name,
		Columns: []schema.Column{{Name: "id", Type: "integer"}, {Name: "code", Type: "varchar(10)"}},
	}}
}
