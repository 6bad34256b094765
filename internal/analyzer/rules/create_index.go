package rules

import (
	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

// CreateIndexRule detects index builds on existing tables that block writes.
type CreateIndexRule struct{}

// NewCreateIndexRule creates a new CreateIndexRule.
func NewCreateIndexRule() *CreateIndexRule { return &CreateIndexRule{} }

// ID returns the rule identifier.
func (r *CreateIndexRule) ID() string { return "create-index-not-concurrent" }

// Check examines an operation for a non-concurrent index build.
func (r *CreateIndexRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	add, ok := op.(*ops.AddIndex)
	if !ok || add.Concurrently || ctx.IsNew(add.Table) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.High
	f.Message = "CREATE INDEX without CONCURRENTLY locks the table for writes"
	f.Suggestion = "Set concurrently: true on the operation and run the migration outside a transaction"
	f.LockType = "SHARE"

	return []analyzer.Finding{f}
}
