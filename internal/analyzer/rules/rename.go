package rules

import (
	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

// RenameRule detects table and column renames, which break running code.
type RenameRule struct{}

// NewRenameRule creates a new RenameRule.
func NewRenameRule() *RenameRule { return &RenameRule{} }

// ID returns the rule identifier.
func (r *RenameRule) ID() string { return "rename" }

// Check examines an operation for RENAME TABLE or RENAME COLUMN.
func (r *RenameRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	f := ctx.Finding(r, op)
	f.Severity = analyzer.Medium
	f.LockType = "ACCESS EXCLUSIVE"

	switch o := op.(type) {
	case *ops.RenameTable:
		if ctx.IsNew(o.Table) {
			return nil
		}

		f.Message = "RENAME TABLE breaks application code that references the old name"
		f.Suggestion = "Use a staged approach: add new name (view), update app code, remove old name"
	case *ops.AlterColumn:
		if o.Rename == nil || ctx.IsNew(o.Table) {
			return nil
		}

		f.Message = "RENAME COLUMN breaks application code that references the old column name"
		f.Suggestion = "Use a staged approach: add new column, backfill, update app code, drop old column"
	default:
		return nil
	}

	return []analyzer.Finding{f}
}
