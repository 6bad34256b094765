package rules

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/parser"
)

const pgVersionSafeNonVolatileDefault = 11

// AddColumnRule detects ADD COLUMN with a DEFAULT that rewrites the table.
type AddColumnRule struct{}

// NewAddColumnRule creates a new AddColumnRule.
func NewAddColumnRule() *AddColumnRule { return &AddColumnRule{} }

// ID returns the rule identifier.
func (r *AddColumnRule) ID() string { return "add-column-volatile-default" }

// Check examines an operation for ADD COLUMN with volatile DEFAULT.
func (r *AddColumnRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	add, ok := op.(*ops.AddColumn)
	if !ok || add.Column.Default == nil || ctx.IsNew(add.Table) {
		return nil
	}

	volatile := isVolatileDefault(*add.Column.Default)
	if ctx.TargetPGVersion >= pgVersionSafeNonVolatileDefault && !volatile {
		return nil // PG 11+ stores non-volatile defaults in the catalog
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.High
	f.Message = "ADD COLUMN with volatile DEFAULT rewrites the entire table"
	f.Suggestion = "Add column without DEFAULT, then backfill in batches"
	f.LockType = "ACCESS EXCLUSIVE"

	if ctx.TargetPGVersion < pgVersionSafeNonVolatileDefault {
		f.Message = "ADD COLUMN with DEFAULT rewrites the entire table on PG < 11"
	}

	return []analyzer.Finding{f}
}

// isVolatileDefault reports whether a stored DEFAULT expression may differ
// per row. Constants and casts of constants are non-volatile; everything else
// (function calls like now() or gen_random_uuid()) is assumed volatile, as is
// anything that fails to parse.
func isVolatileDefault(expr string) bool {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return true
	}

	switch n := node.GetNode().(type) {
	case *pg_query.Node_AConst:
		return false
	case *pg_query.Node_TypeCast:
		return n.TypeCast.GetArg().GetAConst() == nil
	default:
		return true
	}
}

// NotNullColumnRule detects adding a NOT NULL column with no DEFAULT to an
// existing table, which fails as soon as the table has rows.
type NotNullColumnRule struct{}

// NewNotNullColumnRule creates a new NotNullColumnRule.
func NewNotNullColumnRule() *NotNullColumnRule { return &NotNullColumnRule{} }

// ID returns the rule identifier.
func (r *NotNullColumnRule) ID() string { return "add-column-not-null-without-default" }

// Check examines an operation for ADD COLUMN ... NOT NULL without DEFAULT.
func (r *NotNullColumnRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	add, ok := op.(*ops.AddColumn)
	if !ok || !add.Column.NotNull || add.Column.Default != nil || ctx.IsNew(add.Table) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.Critical
	f.Message = "ADD COLUMN NOT NULL without DEFAULT fails on any table that has rows"
	f.Suggestion = "Add the column nullable, backfill it, then SET NOT NULL; or give it a constant DEFAULT"
	f.LockType = "ACCESS EXCLUSIVE"

	return []analyzer.Finding{f}
}
