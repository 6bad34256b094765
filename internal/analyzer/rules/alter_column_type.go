package rules

import (
	"regexp"
	"strconv"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

// AlterColumnTypeRule detects column type changes that rewrite the table.
type AlterColumnTypeRule struct{}

// NewAlterColumnTypeRule creates a new AlterColumnTypeRule.
func NewAlterColumnTypeRule() *AlterColumnTypeRule { return &AlterColumnTypeRule{} }

// ID returns the rule identifier.
func (r *AlterColumnTypeRule) ID() string { return "alter-column-type" }

// Check examines an operation for ALTER COLUMN TYPE.
func (r *AlterColumnTypeRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	alter, ok := op.(*ops.AlterColumn)
	if !ok || alter.Type == nil || ctx.IsNew(alter.Table) {
		return nil
	}

	if from := currentType(ctx, alter.Table, alter.Column); from != "" && isBinaryCoercible(from, *alter.Type) {
		return nil
	}

	f := ctx.Finding(r, op)
	f.Severity = analyzer.High
	f.Message = "ALTER COLUMN TYPE rewrites the entire table while holding an ACCESS EXCLUSIVE lock"
	f.Suggestion = "Use a staged approach: add new column, backfill data, swap columns, drop old column"
	f.LockType = "ACCESS EXCLUSIVE"

	return []analyzer.Finding{f}
}

func currentType(ctx *analyzer.RuleContext, table, column string) string {
	if ctx.Schema == nil {
		return ""
	}

	t, err := ctx.Schema.Table(table)
	if err != nil {
		return ""
	}

	c, err := t.Column(column)
	if err != nil {
		return ""
	}

	return c.Type
}

//nolint:gochecknoglobals // compiled once
var varcharPattern = regexp.MustCompile(`^(?:varchar|character varying)\((\d+)\)$`)

// isBinaryCoercible reports type changes PostgreSQL performs without a
// rewrite: widening a varchar or relaxing it to text.
func isBinaryCoercible(from, to string) bool {
	fm := varcharPattern.FindStringSubmatch(from)
	if fm == nil {
		return false
	}

	if to == "text" || to == "varchar" || to == "character varying" {
		return true
	}

	tm := varcharPattern.FindStringSubmatch(to)
	if tm == nil {
		return false
	}

	fromLen, _ := strconv.Atoi(fm[1])
	toLen, _ := strconv.Atoi(tm[1])

	return toLen >= fromLen
}
