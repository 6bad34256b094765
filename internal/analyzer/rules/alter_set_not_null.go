package rules

import (
	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

const pgVersionSafeSetNotNull = 12

// SetNotNullRule detects SET NOT NULL, which scans the whole table under lock.
type SetNotNullRule struct{}

// NewSetNotNullRule creates a new SetNotNullRule.
func NewSetNotNullRule() *SetNotNullRule { return &SetNotNullRule{} }

// ID returns the rule identifier.
func (r *SetNotNullRule) ID() string { return "set-not-null" }

// Check examines an operation for SET NOT NULL.
func (r *SetNotNullRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	alter, ok := op.(*ops.AlterColumn)
	if !ok || alter.NotNull == nil || !*alter.NotNull || ctx.IsNew(alter.Table) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.High
	f.Message = "SET NOT NULL on " + alter.Column + " requires a full table scan to verify no NULL values exist"
	f.Suggestion = "Requires full table scan. Consider application-level enforcement instead."
	f.LockType = "ACCESS EXCLUSIVE"

	if ctx.TargetPGVersion >= pgVersionSafeSetNotNull {
		f.Severity = analyzer.Medium
		f.Suggestion = "First add CHECK (col IS NOT NULL) NOT VALID, then VALIDATE CONSTRAINT, then SET NOT NULL"
	}

	return []analyzer.Finding{f}
}
