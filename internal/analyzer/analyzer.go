package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/aqasim81/sqlaltery/internal/migration"
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

const (
	defaultPGVersion = 14
	maxStatementLen  = 120
)

// Option configures the Analyzer.
type Option func(*Analyzer)

// Analyzer runs registered rules against the operations of a migration chain.
type Analyzer struct {
	registry  *Registry
	pgVersion int
}

// New creates a new Analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		registry:  NewRegistry(),
		pgVersion: defaultPGVersion,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithRegistry sets a custom rule registry.
func WithRegistry(r *Registry) Option {
	return func(a *Analyzer) { a.registry = r }
}

// WithPGVersion sets the target PostgreSQL major version.
func WithPGVersion(v int) Option {
	return func(a *Analyzer) {
		if v > 0 {
			a.pgVersion = v
		}
	}
}

// Analyze checks one migration. s must be the snapshot the migration starts
// from; it is advanced through the migration's operations.
func (a *Analyzer) Analyze(m *migration.Migration, s *schema.Schema) (*AnalysisResult, error) {
	res, err := a.AnalyzeOps(m.Number, m.Ops, s)
	if err != nil {
		return nil, fmt.Errorf("analyzing migration %d: %w", m.Number, err)
	}

	return res, nil
}

// AnalyzeOps checks an arbitrary run of operations, such as the reverses
// collected for a downgrade. number is reported on the result and its
// findings; s is advanced through the operations.
func (a *Analyzer) AnalyzeOps(number int, operations []ops.Operation, s *schema.Schema) (*AnalysisResult, error) {
	created := make(map[string]bool)
	res := &AnalysisResult{Migration: number, MaxSeverity: Safe}

	for i, op := range operations {
		before := s.Clone()

		stmts, err := ops.Apply(context.Background(), op, s, nil)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op, err)
		}

		rc := &RuleContext{
			Migration:       number,
			OpIndex:         i,
			TargetPGVersion: a.pgVersion,
			Schema:          before,
			Statements:      stmts,
			created:         created,
		}

		for _, rule := range a.registry.Rules() {
			for _, f := range rule.Check(op, rc) {
				if f.Statement == "" {
					f.Statement = TruncateSQL(strings.Join(stmts, "; "), maxStatementLen)
				}

				if f.Severity > res.MaxSeverity {
					res.MaxSeverity = f.Severity
				}

				res.Findings = append(res.Findings, f)
			}
		}

		trackCreated(created, op)
	}

	return res, nil
}

// AnalyzeAll analyzes a whole chain starting from an empty schema.
func (a *Analyzer) AnalyzeAll(migrations []migration.Migration) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(migrations))
	s := schema.New()

	for i := range migrations {
		r, err := a.Analyze(&migrations[i], s)
		if err != nil {
			return nil, err
		}

		results = append(results, *r)
	}

	return results, nil
}

func trackCreated(created map[string]bool, op ops.Operation) {
	switch o := op.(type) {
	case *ops.CreateTable:
		created[o.Definition.Name] = true
	case *ops.RenameTable:
		if created[o.Table] {
			delete(created, o.Table)
			created[o.To] = true
		}
	case *ops.DropTable:
		delete(created, o.Table)
	}
}
