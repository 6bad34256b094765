package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/parser"
)

func TestTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		column string
		want   string
	}{
		{column: "a int", want: "integer"},
		{column: "a bigint", want: "bigint"},
		{column: "a boolean", want: "boolean"},
		{column: "a varchar(40)", want: "varchar(40)"},
		{column: "a numeric(10,2)", want: "numeric(10,2)"},
		{column: "a text[]", want: "text[]"},
		{column: "a double precision", want: "double precision"},
		{column: "a uuid", want: "uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			t.Parallel()

			result, err := parser.Parse("CREATE TABLE t (" + tt.column + ");")
			require.NoError(t, err)

			def := result.Statements[0].GetStmt().GetCreateStmt().GetTableElts()[0].GetColumnDef()
			require.NotNil(t, def)
			assert.Equal(t, tt.want, parser.TypeString(def.GetTypeName()))
		})
	}
}

func TestDeparseExpr(t *testing.T) {
	t.Parallel()

	result, err := parser.Parse("CREATE TABLE t (a integer DEFAULT 0, b timestamptz DEFAULT now(), c integer CHECK (c > 0));")
	require.NoError(t, err)

	elts := result.Statements[0].GetStmt().GetCreateStmt().GetTableElts()

	var got []string

	for _, e := range elts {
		for _, n := range e.GetColumnDef().GetConstraints() {
			s, err := parser.DeparseExpr(n.GetConstraint().GetRawExpr())
			require.NoError(t, err)
			got = append(got, s)
		}
	}

	assert.Equal(t, []string{"0", "now()", "c > 0"}, got)

	empty, err := parser.DeparseExpr(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseExpr(t *testing.T) {
	t.Parallel()

	node, err := parser.ParseExpr("now()")
	require.NoError(t, err)
	assert.NotNil(t, node.GetFuncCall())

	node, err = parser.ParseExpr("'active'::text")
	require.NoError(t, err)
	assert.NotNil(t, node.GetTypeCast())

	_, err = parser.ParseExpr("1, 2")
	require.Error(t, err)

	_, err = parser.ParseExpr("(((")
	require.Error(t, err)
}

func TestRenameColumnRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		expr    string
		want    string
		changed bool
	}{
		{name: "bare reference", expr: "price > 0", want: "amount > 0", changed: true},
		{name: "qualified with the table", expr: "items.price > items.cost", want: "items.amount > items.cost", changed: true},
		{name: "qualified with another relation", expr: "other.price > 0", want: "other.price > 0"},
		{name: "inside a function call", expr: "abs(price) > 0", want: "abs(amount) > 0", changed: true},
		{name: "string literal untouched", expr: "label <> 'price'", want: "label <> 'price'"},
		{name: "no reference", expr: "cost >= 0", want: "cost >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, changed, err := parser.RenameColumnRef(tt.expr, "items", "price", "amount")
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err := parser.RenameColumnRef("price >", "items", "price", "amount")
	require.Error(t, err)
}
