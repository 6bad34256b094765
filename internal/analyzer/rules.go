package analyzer

import (
	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

// Rule is the interface that all danger detection rules must implement.
type Rule interface {
	// ID returns a unique kebab-case identifier for this rule.
	ID() string
	// Check examines a single operation and returns any findings.
	Check(op ops.Operation, ctx *RuleContext) []Finding
}

// RuleContext provides contextual information to rules during analysis.
type RuleContext struct {
	Migration       int
	OpIndex         int
	TargetPGVersion int
	Schema          *schema.Schema // snapshot before the operation; read-only
	Statements      []string       // DDL the operation renders to

	created map[string]bool
}

// IsNew reports whether table was created earlier in the same run. Locks on
// such a table block nobody.
func (c *RuleContext) IsNew(table string) bool {
	return c.created[table]
}

// Finding starts a finding for op with the context's position filled in.
func (c *RuleContext) Finding(rule Rule, op ops.Operation) Finding {
	return Finding{
		Rule:      rule.ID(),
		Table:     op.Target(),
		Operation: op.String(),
		Migration: c.Migration,
		OpIndex:   c.OpIndex,
	}
}

// Registry is an ordered set of rules keyed by ID. Registering a rule whose
// ID is already present replaces it in place.
type Registry struct {
	rules []Rule
	index map[string]int
}

// NewRegistry returns a registry holding rules.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{index: make(map[string]int)}
	r.Register(rules...)

	return r
}

// Register adds rules in order.
func (r *Registry) Register(rules ...Rule) {
	for _, rule := range rules {
		if i, ok := r.index[rule.ID()]; ok {
			r.rules[i] = rule

			continue
		}

		r.index[rule.ID()] = len(r.rules)
		r.rules = append(r.rules, rule)
	}
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	return r.rules
}

// Lookup returns the rule with the given ID.
func (r *Registry) Lookup(id string) (Rule, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}

	return r.rules[i], true
}
