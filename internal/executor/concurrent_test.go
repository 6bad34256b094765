package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

func TestContainsConcurrentIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sql  string
		want bool
	}{
		{name: "create concurrently", sql: "CREATE INDEX CONCURRENTLY idx_users_email ON users (email);", want: true},
		{name: "unique concurrently", sql: "CREATE UNIQUE INDEX CONCURRENTLY idx_users_email ON users (email);", want: true},
		{name: "drop concurrently", sql: "DROP INDEX CONCURRENTLY idx_users_email;", want: true},
		{name: "regular index", sql: "CREATE INDEX idx_users_email ON users (email);"},
		{name: "no index", sql: "ALTER TABLE users ADD COLUMN age INTEGER;"},
		{
			name: "multiple statements",
			sql:  "ALTER TABLE users ADD COLUMN email TEXT;\nCREATE INDEX CONCURRENTLY idx_users_email ON users (email);",
			want: true,
		},
		{name: "empty", sql: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := containsConcurrentIndex(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainsConcurrentIndex_invalidSQL_returnsError(t *testing.T) {
	t.Parallel()

	_, err := containsConcurrentIndex("NOT VALID SQL ;;; @@@ !!!")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing SQL")
}

func TestRequiresNoTransaction(t *testing.T) {
	t.Parallel()

	ix := schema.Index{Name: "users_email_idx", Columns: []string{"email"}}

	tests := []struct {
		name       string
		operations []ops.Operation
		want       bool
		wantErr    bool
	}{
		{name: "no operations"},
		{name: "plain index", operations: []ops.Operation{&ops.AddIndex{Table: "users", Index: ix}}},
		{name: "concurrent add", operations: []ops.Operation{&ops.AddIndex{Table: "users", Index: ix, Concurrently: true}}, want: true},
		{name: "concurrent drop", operations: []ops.Operation{&ops.DropIndex{Table: "users", Index: ix.Name, Concurrently: true}}, want: true},
		{
			name:       "hand written concurrent index",
			operations: []ops.Operation{&ops.ExecuteSQL{Forward: "CREATE INDEX CONCURRENTLY i ON users (email)"}},
			want:       true,
		},
		{name: "hand written plain sql", operations: []ops.Operation{&ops.ExecuteSQL{Forward: "UPDATE users SET email = lower(email)"}}},
		{name: "unparseable sql", operations: []ops.Operation{&ops.ExecuteSQL{Forward: "NOT SQL @@"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RequiresNoTransaction(tt.operations)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
