// Package ops defines the reversible schema operations that migrations are
// made of. Every operation can mutate a schema snapshot, render the equivalent
// PostgreSQL DDL and compute the operation that undoes it.
package ops

import (
	"context"
	"fmt"

	"github.com/aqasim81/sqlaltery/internal/database"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

// Operation is an atomic, reversible schema change. The set of
// implementations is closed; use the exported variant types.
type Operation interface {
	fmt.Stringer

	// Kind identifies the variant.
	Kind() Kind
	// Target is the table the operation changes, empty for ExecuteSQL.
	Target() string
	// Reverse returns the cached inverse produced by GenerateReverse.
	Reverse() (Operation, error)

	// statements validates the operation against the snapshot taken right
	// before it runs and renders its DDL.
	statements(s *schema.Schema) ([]string, error)
	// mutate applies the change to the snapshot. Only called after statements
	// succeeded on the same snapshot.
	mutate(s *schema.Schema) error
	// invert builds the undoing operation from the pre-state snapshot.
	invert(s *schema.Schema) (Operation, error)
	setReverse(op Operation)
}

// reverseCache is embedded in every variant to hold the inverse operation.
type reverseCache struct {
	reverse Operation
}

func (r *reverseCache) Reverse() (Operation, error) {
	if r.reverse == nil {
		return nil, ErrReverseNotComputed
	}

	return r.reverse, nil
}

func (r *reverseCache) setReverse(op Operation) {
	r.reverse = op
}

// Apply validates op against s, executes its DDL on ex when ex is non-nil and
// then mutates s. With a nil ex only the snapshot changes. The rendered
// statements are returned either way.
func Apply(ctx context.Context, op Operation, s *schema.Schema, ex database.Execer) ([]string, error) {
	stmts, err := op.statements(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ex != nil {
		if len(stmts) == 0 && op.Kind() == KindExecuteSQL {
			return nil, fmt.Errorf("%s: %w", op, ErrIrreversible)
		}

		for _, stmt := range stmts {
			if _, err := ex.Exec(ctx, stmt); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := op.mutate(s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stmts, nil
}

// GenerateReverse computes the inverse of op from the snapshot immediately
// before op runs, links the two operations to each other and advances s past
// op. Calling it for every operation of a chain in order, starting from an
// empty snapshot, makes every Reverse available. When op already has a
// reverse it is returned and s is left alone.
func GenerateReverse(op Operation, s *schema.Schema) (Operation, error) {
	if rev, err := op.Reverse(); err == nil {
		return rev, nil
	}

	rev, err := op.invert(s)
	if err != nil {
		return nil, fmt.Errorf("reversing %s: %w", op, err)
	}

	if _, err := Apply(context.Background(), op, s, nil); err != nil {
		return nil, err
	}

	op.setReverse(rev)
	rev.setReverse(op)

	return rev, nil
}

// Replay applies ops to s without a connection.
func Replay(s *schema.Schema, operations []Operation) error {
	for _, op := range operations {
		if _, err := Apply(context.Background(), op, s, nil); err != nil {
			return err
		}
	}

	return nil
}
