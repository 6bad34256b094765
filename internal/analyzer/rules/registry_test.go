package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/analyzer/rules"
)

func TestNewDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := rules.NewDefaultRegistry()

	ids := make([]string, 0, len(r.Rules()))
	for _, rule := range r.Rules() {
		ids = append(ids, rule.ID())
	}

	assert.ElementsMatch(t, []string{
		"create-index-not-concurrent",
		"add-column-volatile-default",
		"add-column-not-null-without-default",
		"add-constraint-validates",
		"alter-column-type",
		"set-not-null",
		"rename",
		"raw-sql",
		"drop-column",
		"drop-table",
	}, ids)

	for _, id := range ids {
		rule, ok := r.Lookup(id)
		require.True(t, ok, id)
		assert.Equal(t, id, rule.ID())
	}

	_, ok := r.Lookup("vacuum-full")
	assert.False(t, ok)
}
