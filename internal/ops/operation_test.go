package ops_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

// TestGenerateReverse_UndoesOperation applies every operation kind forward and
// then its reverse, expecting the snapshot to return to where it started.
func TestGenerateReverse_UndoesOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start []schema.Table
		op    ops.Operation
		kind  ops.Kind
	}{
		{name: "create table", op: &ops.CreateTable{Definition: usersTable()}, kind: ops.KindDropTable},
		{name: "drop table", start: []schema.Table{usersTable()}, op: &ops.DropTable{Table: "users"}, kind: ops.KindCreateTable},
		{
			name: "rename table", start: []schema.Table{usersTable(), ordersTable()},
			op: &ops.RenameTable{Table: "users", To: "accounts"}, kind: ops.KindRenameTable,
		},
		{
			name: "add column", start: []schema.Table{usersTable()},
			op:   &ops.AddColumn{Table: "users", Column: schema.Column{Name: "age", Type: "integer"}}, kind: ops.KindDropColumn,
		},
		{name: "drop column", start: []schema.Table{usersTable()}, op: &ops.DropColumn{Table: "users", Column: "status"}, kind: ops.KindAddColumn},
		{
			name: "alter column every attribute", start: []schema.Table{usersTable()},
			op: &ops.AlterColumn{
				Table: "users", Column: "status", Rename: strPtr("state"),
				Type: strPtr("varchar(20)"), NotNull: boolPtr(true), DropDefault: true,
			},
			kind: ops.KindAlterColumn,
		},
		{
			name: "alter column set default where none", start: []schema.Table{usersTable()},
			op: &ops.AlterColumn{Table: "users", Column: "email", SetDefault: strPtr("''")}, kind: ops.KindAlterColumn,
		},
		{
			name: "add index", start: []schema.Table{usersTable()},
			op:   &ops.AddIndex{Table: "users", Index: schema.Index{Name: "users_status_idx", Columns: []string{"status"}}}, kind: ops.KindDropIndex,
		},
		{name: "drop index", start: []schema.Table{usersTable()}, op: &ops.DropIndex{Table: "users", Index: "users_email_idx"}, kind: ops.KindAddIndex},
		{
			name: "add constraint", start: []schema.Table{usersTable()},
			op: &ops.AddConstraint{Table: "users", Constraint: schema.Constraint{
				Name: "users_email_key", Type: schema.Unique, Columns: []string{"email"},
			}},
			kind: ops.KindDropConstraint,
		},
		{
			name: "drop constraint", start: []schema.Table{usersTable(), ordersTable()},
			op: &ops.DropConstraint{Table: "orders", Constraint: "orders_user_id_fkey"}, kind: ops.KindAddConstraint,
		},
		{name: "execute sql", op: &ops.ExecuteSQL{Forward: "SELECT 1", Backward: "SELECT 2"}, kind: ops.KindExecuteSQL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := snapshot(t, tt.start...)
			before := s.Clone()

			rev, err := ops.GenerateReverse(tt.op, s)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, rev.Kind())

			_, err = ops.Apply(context.Background(), rev, s, nil)
			require.NoError(t, err)
			assert.True(t, schema.Equal(before, s), "reverse must restore the pre-state")
		})
	}
}

func TestGenerateReverse_LinksBothWays(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	op := &ops.DropColumn{Table: "users", Column: "email"}

	_, err := op.Reverse()
	require.ErrorIs(t, err, ops.ErrReverseNotComputed)

	rev, err := ops.GenerateReverse(op, s)
	require.NoError(t, err)

	cached, err := op.Reverse()
	require.NoError(t, err)
	assert.Same(t, rev, cached)

	back, err := rev.Reverse()
	require.NoError(t, err)
	assert.Same(t, op, back)

	added, ok := rev.(*ops.AddColumn)
	require.True(t, ok)
	assert.Equal(t, schema.Column{Name: "email", Type: "text", NotNull: true}, added.Column)
}

func TestGenerateReverse_SecondCallIsNoOp(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	op := &ops.DropColumn{Table: "users", Column: "email"}

	first, err := ops.GenerateReverse(op, s)
	require.NoError(t, err)

	after := s.Clone()

	second, err := ops.GenerateReverse(op, s)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, schema.Equal(after, s), "snapshot not advanced again")

	back, err := first.Reverse()
	require.NoError(t, err)
	assert.Same(t, op, back)
}

func TestGenerateReverse_AdvancesSnapshot(t *testing.T) {
	t.Parallel()

	s := schema.New()

	_, err := ops.GenerateReverse(&ops.CreateTable{Definition: usersTable()}, s)
	require.NoError(t, err)
	assert.True(t, s.HasTable("users"))
}

func TestGenerateReverse_DropTableCapturesDefinition(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())

	rev, err := ops.GenerateReverse(&ops.DropTable{Table: "users"}, s)
	require.NoError(t, err)

	create, ok := rev.(*ops.CreateTable)
	require.True(t, ok)
	assert.Equal(t, usersTable(), create.Definition)
}

func TestGenerateReverse_AlterColumnOnlyRestoresChangedAttributes(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	op := &ops.AlterColumn{Table: "users", Column: "status", Type: strPtr("varchar(10)")}

	rev, err := ops.GenerateReverse(op, s)
	require.NoError(t, err)

	alter, ok := rev.(*ops.AlterColumn)
	require.True(t, ok)
	require.NotNil(t, alter.Type)
	assert.Equal(t, "text", *alter.Type)
	assert.Nil(t, alter.NotNull)
	assert.Nil(t, alter.SetDefault)
	assert.False(t, alter.DropDefault)
	assert.Nil(t, alter.Rename)
}

func TestGenerateReverse_MissingObjects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		op   ops.Operation
		want error
	}{
		{name: "drop unknown table", op: &ops.DropTable{Table: "ghost"}, want: schema.ErrNotFound},
		{name: "drop unknown column", op: &ops.DropColumn{Table: "users", Column: "ghost"}, want: schema.ErrNotFound},
		{name: "drop unknown index", op: &ops.DropIndex{Table: "users", Index: "ghost"}, want: schema.ErrNotFound},
		{name: "drop unknown constraint", op: &ops.DropConstraint{Table: "users", Constraint: "ghost"}, want: schema.ErrNotFound},
		{name: "create existing table", op: &ops.CreateTable{Definition: usersTable()}, want: schema.ErrExists},
		{name: "rename onto existing", op: &ops.AlterColumn{Table: "users", Column: "id", Rename: strPtr("email")}, want: schema.ErrExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := snapshot(t, usersTable())
			before := s.Clone()

			_, err := ops.GenerateReverse(tt.op, s)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, schema.Equal(before, s), "failed operation must not touch the snapshot")

			_, err = tt.op.Reverse()
			assert.ErrorIs(t, err, ops.ErrReverseNotComputed)
		})
	}
}

func TestApply_ExecutesDDLThenMutates(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	ex := &fakeExecer{}

	stmts, err := ops.Apply(context.Background(),
		&ops.AddColumn{Table: "users", Column: schema.Column{Name: "age", Type: "integer", NotNull: true, Default: strPtr("0")}},
		s, ex)
	require.NoError(t, err)

	want := []string{`ALTER TABLE "users" ADD COLUMN "age" integer NOT NULL DEFAULT 0`}
	assert.Equal(t, want, stmts)
	assert.Equal(t, want, ex.stmts)

	users, err := s.Table("users")
	require.NoError(t, err)
	_, err = users.Column("age")
	assert.NoError(t, err)
}

func TestApply_ValidationFailureIssuesNoDDL(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	ex := &fakeExecer{}

	_, err := ops.Apply(context.Background(), &ops.DropColumn{Table: "users", Column: "ghost"}, s, ex)
	require.ErrorIs(t, err, schema.ErrNotFound)
	assert.Empty(t, ex.stmts)
}

func TestApply_ExecFailureLeavesSnapshot(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	before := s.Clone()
	ex := &fakeExecer{failAt: 1, err: errBoom}

	_, err := ops.Apply(context.Background(), &ops.DropTable{Table: "users"}, s, ex)
	require.ErrorIs(t, err, errBoom)
	assert.True(t, schema.Equal(before, s))
}

func TestApply_ExecuteSQLWithoutStatement(t *testing.T) {
	t.Parallel()

	s := schema.New()
	op := &ops.ExecuteSQL{Backward: "DELETE FROM users"}

	_, err := ops.Apply(context.Background(), op, s, nil)
	require.NoError(t, err, "dry replay of an empty statement is fine")

	_, err = ops.Apply(context.Background(), op, s, &fakeExecer{})
	assert.ErrorIs(t, err, ops.ErrIrreversible)
}

func TestApply_EmptyAlterColumnIsNoOp(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	before := s.Clone()
	ex := &fakeExecer{}
	op := &ops.AlterColumn{Table: "users", Column: "email"}

	assert.True(t, op.Empty())

	stmts, err := ops.Apply(context.Background(), op, s, ex)
	require.NoError(t, err)
	assert.Empty(t, stmts)
	assert.Empty(t, ex.stmts)
	assert.True(t, schema.Equal(before, s))
}

func TestApply_AlterColumnConflictingDefault(t *testing.T) {
	t.Parallel()

	s := snapshot(t, usersTable())
	op := &ops.AlterColumn{Table: "users", Column: "email", SetDefault: strPtr("''"), DropDefault: true}

	_, err := ops.Apply(context.Background(), op, s, nil)
	assert.ErrorIs(t, err, ops.ErrInvalidOperation)
}

func TestReplay(t *testing.T) {
	t.Parallel()

	s := schema.New()
	err := ops.Replay(s, []ops.Operation{
		&ops.CreateTable{Definition: usersTable()},
		&ops.CreateTable{Definition: ordersTable()},
		&ops.RenameTable{Table: "users", To: "accounts"},
	})
	require.NoError(t, err)

	orders, err := s.Table("orders")
	require.NoError(t, err)
	assert.Equal(t, "accounts", orders.Constraints[0].RefTable)
}

func TestCreateTable_ForeignKeyToUnknownTable(t *testing.T) {
	t.Parallel()

	_, err := ops.Apply(context.Background(), &ops.CreateTable{Definition: ordersTable()}, schema.New(), nil)
	assert.ErrorIs(t, err, schema.ErrNotFound)
}

func TestGenerateReverse_DroppedCheckAfterRenameUsesNewName(t *testing.T) {
	t.Parallel()

	items := schema.Table{
		Name:        "items",
		Columns:     []schema.Column{{Name: "price", Type: "numeric"}},
		Constraints: []schema.Constraint{{Name: "items_price_check", Type: schema.Check, Expr: "price > 0"}},
	}

	chain := []ops.Operation{
		&ops.CreateTable{Definition: items},
		&ops.AlterColumn{Table: "items", Column: "price", Rename: strPtr("amount")},
		&ops.DropConstraint{Table: "items", Constraint: "items_price_check"},
	}

	s := schema.New()
	for _, op := range chain {
		_, err := ops.GenerateReverse(op, s)
		require.NoError(t, err)
	}

	rev, err := chain[2].Reverse()
	require.NoError(t, err)

	stmts, err := ops.Apply(context.Background(), rev, s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`ALTER TABLE "items" ADD CONSTRAINT "items_price_check" CHECK (amount > 0)`}, stmts)

	renameBack, err := chain[1].Reverse()
	require.NoError(t, err)
	_, err = ops.Apply(context.Background(), renameBack, s, nil)
	require.NoError(t, err)

	want := snapshot(t, items)
	assert.True(t, schema.Equal(want, s), "backward replay restores the original check")
}
