package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// typeAliases maps catalog type names to the spelling used in generated DDL.
//
//nolint:gochecknoglobals // read-only lookup table
var typeAliases = map[string]string{
	"int2":        "smallint",
	"int4":        "integer",
	"int8":        "bigint",
	"bool":        "boolean",
	"float4":      "real",
	"float8":      "double precision",
	"bpchar":      "char",
	"timestamptz": "timestamptz",
	"timetz":      "timetz",
}

// DeparseExpr renders a single expression node (a DEFAULT value or CHECK
// condition) back to SQL text.
func DeparseExpr(node *pg_query.Node) (string, error) {
	if node == nil {
		return "", nil
	}

	target := &pg_query.Node{Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: node}}}
	stmt := &pg_query.SelectStmt{
		TargetList:  []*pg_query.Node{target},
		Op:          pg_query.SetOperation_SETOP_NONE,
		LimitOption: pg_query.LimitOption_LIMIT_OPTION_DEFAULT,
	}
	tree := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: stmt}}}},
	}

	out, err := pg_query.Deparse(tree)
	if err != nil {
		return "", fmt.Errorf("deparsing expression: %w", err)
	}

	return strings.TrimPrefix(out, "SELECT "), nil
}

// ParseExpr parses a standalone expression such as a stored DEFAULT value.
func ParseExpr(expr string) (*pg_query.Node, error) {
	tree, err := pg_query.Parse("SELECT " + expr)
	if err != nil {
		return nil, fmt.Errorf("parsing expression %q: %w", expr, err)
	}

	stmts := tree.GetStmts()
	if len(stmts) != 1 || len(stmts[0].GetStmt().GetSelectStmt().GetTargetList()) != 1 {
		return nil, fmt.Errorf("parsing expression %q: not a single expression", expr)
	}

	return stmts[0].GetStmt().GetSelectStmt().GetTargetList()[0].GetResTarget().GetVal(), nil
}

// TypeString renders a column type, normalizing catalog names such as int4 or
// pg_catalog.varchar and keeping type modifiers and array bounds.
func TypeString(tn *pg_query.TypeName) string {
	if tn == nil {
		return ""
	}

	names := Strings(tn.GetNames())
	if len(names) == 2 && names[0] == "pg_catalog" {
		names = names[1:]
	}

	name := strings.Join(names, ".")
	if alias, ok := typeAliases[name]; ok {
		name = alias
	}

	var mods []string

	for _, m := range tn.GetTypmods() {
		if c := m.GetAConst(); c != nil && c.GetIval() != nil {
			mods = append(mods, strconv.Itoa(int(c.GetIval().GetIval())))
		}
	}

	if len(mods) > 0 {
		name += "(" + strings.Join(mods, ",") + ")"
	}

	for range tn.GetArrayBounds() {
		name += "[]"
	}

	return name
}

// Strings extracts the values of a list of String nodes, skipping anything else.
func Strings(nodes []*pg_query.Node) []string {
	out := make([]string, 0, len(nodes))

	for _, n := range nodes {
		if s := n.GetString_(); s != nil {
			out = append(out, s.GetSval())
		}
	}

	return out
}

// RenameColumnRef rewrites references to column from as to inside expr, the
// way PostgreSQL rewrites stored CHECK expressions on RENAME COLUMN. A
// reference qualified with a relation name only matches when it names table.
// changed is false, and expr is returned as given, when nothing matched.
func RenameColumnRef(expr, table, from, to string) (out string, changed bool, err error) {
	node, err := ParseExpr(expr)
	if err != nil {
		return "", false, err
	}

	walkMessages(node.ProtoReflect(), func(m protoreflect.Message) {
		ref, ok := m.Interface().(*pg_query.ColumnRef)
		if !ok {
			return
		}

		fields := ref.GetFields()

		switch {
		case len(fields) == 1:
		case len(fields) == 2 && fields[0].GetString_().GetSval() == table:
		default:
			return
		}

		if last := fields[len(fields)-1].GetString_(); last != nil && last.GetSval() == from {
			last.Sval = to
			changed = true
		}
	})

	if !changed {
		return expr, false, nil
	}

	out, err = DeparseExpr(node)
	if err != nil {
		return "", false, err
	}

	return out, true, nil
}

// walkMessages calls fn on m and on every message nested inside it.
func walkMessages(m protoreflect.Message, fn func(protoreflect.Message)) {
	fn(m)

	m.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		switch {
		case fd.IsMap() || fd.Message() == nil:
		case fd.IsList():
			list := v.List()
			for i := range list.Len() {
				walkMessages(list.Get(i).Message(), fn)
			}
		default:
			walkMessages(v.Message(), fn)
		}

		return true
	})
}
