package rules

import "github.com/aqasim81/sqlaltery/internal/analyzer"

// NewDefaultRegistry returns every built-in rule, destructive ones last so
// that lock warnings print before data-loss warnings for the same operation.
func NewDefaultRegistry() *analyzer.Registry {
	return analyzer.NewRegistry(
		NewCreateIndexRule(),
		NewAddColumnRule(),
		NewNotNullColumnRule(),
		NewAddConstraintRule(),
		NewAlterColumnTypeRule(),
		NewSetNotNullRule(),
		NewRenameRule(),
		NewRawSQLRule(),
		NewDropColumnRule(),
		NewDropTableRule(),
	)
}
