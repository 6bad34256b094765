package rules

import (
	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

// AddConstraintRule detects ADD CONSTRAINT forms that scan or index the whole
// table while holding a lock.
type AddConstraintRule struct{}

// NewAddConstraintRule creates a new AddConstraintRule.
func NewAddConstraintRule() *AddConstraintRule { return &AddConstraintRule{} }

// ID returns the rule identifier.
func (r *AddConstraintRule) ID() string { return "add-constraint-validates" }

// Check examines an operation for ADD CONSTRAINT.
func (r *AddConstraintRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	add, ok := op.(*ops.AddConstraint)
	if !ok || ctx.IsNew(add.Table) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.High

	switch add.Constraint.Type {
	case schema.ForeignKey, schema.Check:
		if add.NotValid {
			return nil
		}

		f.Message = "ADD CONSTRAINT without NOT VALID scans the entire table while holding a lock"
		f.Suggestion = "Add with NOT VALID, then VALIDATE CONSTRAINT in a separate statement"
		f.LockType = "SHARE ROW EXCLUSIVE"
	case schema.PrimaryKey, schema.Unique:
		f.Message = "ADD " + string(add.Constraint.Type) + " builds its index while blocking writes"
		f.Suggestion = "CREATE UNIQUE INDEX CONCURRENTLY first, then ADD CONSTRAINT ... USING INDEX"
		f.LockType = "ACCESS EXCLUSIVE"
	default:
		return nil
	}

	return []analyzer.Finding{f}
}
