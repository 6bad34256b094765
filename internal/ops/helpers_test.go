package ops_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

// fakeExecer records statements and optionally fails on the n-th call.
type fakeExecer struct {
	stmts  []string
	failAt int
	err    error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.stmts = append(f.stmts, sql)
	if f.err != nil && len(f.stmts) == f.failAt {
		return pgconn.CommandTag{}, f.err
	}

	return pgconn.NewCommandTag("OK"), nil
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func usersTable() schema.Table {
	return schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", NotNull: true},
			{Name: "email", Type: "text", NotNull: true},
			{Name: "status", Type: "text", Default: strPtr("'active'")},
		},
		Constraints: []schema.Constraint{
			{Name: "users_pkey", Type: schema.PrimaryKey, Columns: []string{"id"}},
		},
		Indexes: []schema.Index{
			{Name: "users_email_idx", Columns: []string{"email"}, Unique: true},
		},
	}
}

func ordersTable() schema.Table {
	return schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: "integer", NotNull: true},
			{Name: "user_id", Type: "integer"},
		},
		Constraints: []schema.Constraint{
			{
				Name: "orders_user_id_fkey", Type: schema.ForeignKey,
				Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"},
				OnDelete: "CASCADE",
			},
		},
	}
}

func snapshot(t *testing.T, tables ...schema.Table) *schema.Schema {
	t.Helper()

	s := schema.New()
	for _, tbl := range tables {
		require.NoError(t, s.AddTable(tbl))
	}

	return s
}
