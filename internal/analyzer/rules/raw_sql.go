package rules

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/parser"
)

// RawSQLRule inspects hand-written SQL steps, which the snapshot cannot see
// into, for statements that destroy data or take heavy locks.
type RawSQLRule struct{}

// NewRawSQLRule creates a new RawSQLRule.
func NewRawSQLRule() *RawSQLRule { return &RawSQLRule{} }

// ID returns the rule identifier.
func (r *RawSQLRule) ID() string { return "raw-sql" }

// Check parses the SQL of an execute_sql step and examines each statement.
func (r *RawSQLRule) Check(op ops.Operation, ctx *analyzer.RuleContext) []analyzer.Finding {
	step, ok := op.(*ops.ExecuteSQL)
	if !ok {
		return nil
	}

	base := ctx.Finding(r, op)

	if strings.TrimSpace(step.Forward) == "" {
		base.Severity = analyzer.Critical
		base.Message = "This step has no SQL to run; migrating over it fails"
		base.Suggestion = "Add reverse_sql to the execute_sql operation, or do not migrate below this revision"

		return []analyzer.Finding{base}
	}

	result, err := parser.Parse(step.Forward)
	if err != nil {
		base.Severity = analyzer.Medium
		base.Message = "SQL could not be parsed and was not checked: " + err.Error()
		base.Suggestion = "Review the statement by hand"

		return []analyzer.Finding{base}
	}

	var findings []analyzer.Finding

	for i, stmt := range result.Statements {
		f, ok := checkRawStmt(stmt, base)
		if !ok {
			continue
		}

		f.Statement = result.Text(i)
		findings = append(findings, f)
	}

	return findings
}

func checkRawStmt(stmt *pg_query.RawStmt, f analyzer.Finding) (analyzer.Finding, bool) {
	switch node := stmt.GetStmt().GetNode().(type) {
	case *pg_query.Node_VacuumStmt:
		if !isVacuumFull(node.VacuumStmt) {
			return f, false
		}

		f.Severity = analyzer.High
		f.Table = vacuumTable(node.VacuumStmt)
		f.Message = "VACUUM FULL rewrites the entire table and holds an ACCESS EXCLUSIVE lock"
		f.Suggestion = "Use regular VACUUM instead, which does not block reads or writes"
		f.LockType = "ACCESS EXCLUSIVE"
	case *pg_query.Node_LockStmt:
		f.Severity = analyzer.High
		f.Table = strings.Join(rangeVarNames(node.LockStmt.GetRelations()), ", ")
		f.Message = "Explicit LOCK TABLE can block other queries and cause downtime"
		f.Suggestion = "Avoid explicit table locks. Let PostgreSQL manage locking through normal operations"
		f.LockType = "EXPLICIT"
	case *pg_query.Node_TruncateStmt:
		f.Severity = analyzer.Critical
		f.Table = strings.Join(rangeVarNames(node.TruncateStmt.GetRelations()), ", ")
		f.Message = "TRUNCATE removes all data from the table and is difficult to reverse"
		f.Suggestion = "Ensure you have a backup before truncating production tables"
		f.LockType = "ACCESS EXCLUSIVE"
	case *pg_query.Node_DropStmt:
		if node.DropStmt.GetRemoveType() != pg_query.ObjectType_OBJECT_TABLE {
			return f, false
		}

		f.Severity = analyzer.Critical
		f.Table = strings.Join(dropTableNames(node.DropStmt), ", ")
		f.Message = "DROP TABLE in raw SQL is invisible to the snapshot and permanently deletes all data"
		f.Suggestion = "Use a drop_table operation so the schema history stays consistent"
		f.LockType = "ACCESS EXCLUSIVE"
	default:
		return f, false
	}

	return f, true
}

func isVacuumFull(v *pg_query.VacuumStmt) bool {
	for _, opt := range v.GetOptions() {
		if opt.GetDefElem().GetDefname() == "full" {
			return true
		}
	}

	return false
}

func vacuumTable(v *pg_query.VacuumStmt) string {
	for _, rel := range v.GetRels() {
		if rv := rel.GetVacuumRelation().GetRelation(); rv != nil {
			return parser.Relation(rv)
		}
	}

	return "<all tables>"
}

func rangeVarNames(nodes []*pg_query.Node) []string {
	var names []string

	for _, n := range nodes {
		if rv := n.GetRangeVar(); rv != nil {
			names = append(names, parser.Relation(rv))
		}
	}

	return names
}

func dropTableNames(drop *pg_query.DropStmt) []string {
	var tables []string

	for _, obj := range drop.GetObjects() {
		parts := parser.Strings(obj.GetList().GetItems())
		if len(parts) > 0 {
			tables = append(tables, strings.Join(parts, "."))
		}
	}

	return tables
}
