package parser_test

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/parser"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sql     string
		wantErr bool
		want    int
		check   func(t *testing.T, s *parser.Script)
	}{
		{
			name: "create table",
			sql:  "CREATE TABLE users (id integer PRIMARY KEY, name text NOT NULL);",
			want: 1,
			check: func(t *testing.T, s *parser.Script) {
				t.Helper()
				assert.NotNil(t, s.Statements[0].GetStmt().GetCreateStmt())
			},
		},
		{
			name: "several statements",
			sql:  "CREATE TABLE a (id int); CREATE TABLE b (id int); CREATE TABLE c (id int);",
			want: 3,
		},
		{
			name: "concurrent index keeps its flag",
			sql:  "CREATE INDEX CONCURRENTLY users_email_idx ON users (email);",
			want: 1,
			check: func(t *testing.T, s *parser.Script) {
				t.Helper()
				ix := s.Statements[0].GetStmt().GetIndexStmt()
				require.NotNil(t, ix)
				assert.True(t, ix.GetConcurrent())
			},
		},
		{
			name: "data backfill",
			sql:  "UPDATE users SET name = 'n/a' WHERE name IS NULL;",
			want: 1,
			check: func(t *testing.T, s *parser.Script) {
				t.Helper()
				assert.NotNil(t, s.Statements[0].GetStmt().GetUpdateStmt())
			},
		},
		{
			name: "truncate",
			sql:  "TRUNCATE audit_log;",
			want: 1,
			check: func(t *testing.T, s *parser.Script) {
				t.Helper()
				_, ok := s.Statements[0].GetStmt().GetNode().(*pg_query.Node_TruncateStmt)
				assert.True(t, ok)
			},
		},
		{
			name:    "syntax error",
			sql:     "SELECT * FROM WHERE;",
			wantErr: true,
		},
		{
			name: "empty",
			sql:  "",
		},
		{
			name: "whitespace only",
			sql:  "  \n\t ",
			check: func(t *testing.T, s *parser.Script) {
				t.Helper()
				assert.Empty(t, s.Source)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := parser.Parse(tt.sql)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, s)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Len())

			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestScript_Text(t *testing.T) {
	t.Parallel()

	s, err := parser.Parse("\n  VACUUM FULL a;\n LOCK TABLE b;\nSELECT 1")
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	assert.Equal(t, "VACUUM FULL a;", s.Text(0))
	assert.Equal(t, "LOCK TABLE b;", s.Text(1))
	assert.Equal(t, "SELECT 1", s.Text(2))
	assert.Empty(t, s.Text(3))
	assert.Empty(t, s.Text(-1))

	empty, err := parser.Parse("")
	require.NoError(t, err)
	assert.Empty(t, empty.Text(0))
}

func TestRelation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rv   *pg_query.RangeVar
		want string
	}{
		{"nil", nil, "<unknown>"},
		{"bare", &pg_query.RangeVar{Relname: "users"}, "users"},
		{"qualified", &pg_query.RangeVar{Schemaname: "app", Relname: "users"}, "app.users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parser.Relation(tt.rv))
		})
	}
}
