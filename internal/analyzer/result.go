package analyzer

// Finding represents a single dangerous pattern detected in a migration.
type Finding struct {
	Rule       string   // Rule ID (e.g., "create-index-not-concurrent")
	Severity   Severity // Danger level
	Table      string   // Affected table name
	Operation  string   // The operation, as printed in plans
	Statement  string   // Rendered DDL (truncated for display)
	Message    string   // Human-readable description of the danger
	Suggestion string   // Safe alternative approach
	LockType   string   // PostgreSQL lock type acquired (e.g., "ACCESS EXCLUSIVE")
	Migration  int      // Migration number, 0 for an ad hoc run
	OpIndex    int      // Index in the migration's operation list (0-based)
}

// AnalysisResult holds all findings for a single migration.
type AnalysisResult struct {
	Migration   int
	Findings    []Finding
	MaxSeverity Severity // Highest severity across all findings
}

// HasHighOrCritical returns true if any finding is High or Critical severity.
func (r *AnalysisResult) HasHighOrCritical() bool {
	return r.AtLeast(High)
}

// AtLeast reports whether any finding reaches threshold.
func (r *AnalysisResult) AtLeast(threshold Severity) bool {
	return len(r.Findings) > 0 && r.MaxSeverity >= threshold
}

// TruncateSQL truncates a SQL string to maxLen characters for display.
// Strings are returned whole when maxLen leaves no room for the ellipsis.
func TruncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen || maxLen < 4 { //nolint:mnd // room for one character plus "..."
		return sql
	}

	return sql[:maxLen-3] + "..."
}
