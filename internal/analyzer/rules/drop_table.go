package rules

import (
	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

// DropTableRule flags dropping a table that existed before the run.
type DropTableRule struct{}

// NewDropTableRule creates a new DropTableRule.
func NewDropTableRule() *DropTableRule { return &DropTableRule{} }

// ID returns the rule identifier.
func (r *DropTableRule) ID() string { return "drop-table" }

// Check examines an operation for DROP TABLE.
func (r *DropTableRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	drop, ok := op.(*ops.DropTable)
	if !ok || ctx.IsNew(drop.Table) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.Critical
	f.Message = "DROP TABLE permanently deletes all data; migrating back recreates an empty table"
	f.Suggestion = "Ensure you have a backup and that no application code references this table"
	f.LockType = "ACCESS EXCLUSIVE"

	return []analyzer.Finding{f}
}

// DropColumnRule flags dropping a column of an existing table.
type DropColumnRule struct{}

// NewDropColumnRule creates a new DropColumnRule.
func NewDropColumnRule() *DropColumnRule { return &DropColumnRule{} }

// ID returns the rule identifier.
func (r *DropColumnRule) ID() string { return "drop-column" }

// Check examines an operation for DROP COLUMN.
func (r *DropColumnRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	drop, ok := op.(*ops.DropColumn)
	if !ok || ctx.IsNew(drop.Table) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.High
	f.Message = "DROP COLUMN " + drop.Column + " deletes its data; migrating back restores the column empty"
	f.Suggestion = "Stop reading and writing the column in application code and deploy that before dropping it"
	f.LockType = "ACCESS EXCLUSIVE"

	return []analyzer.Finding{f}
}
