package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
	"github.com/aqasim81/sqlaltery/internal/analyzer/rules"
	"github.com/aqasim81/sqlaltery/internal/ops"
)

func TestDropTableRule_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		operations []ops.Operation
		wantCount  int
	}{
		{
			name:       "existing table is CRITICAL",
			operations: []ops.Operation{&ops.DropTable{Table: "orders"}},
			wantCount:  1,
		},
		{
			name:       "table created in the same run is not flagged",
			operations: []ops.Operation{newTable("scratch"), &ops.DropTable{Table: "scratch"}},
			wantCount:  0,
		},
		{
			name:       "drop column is not a table drop",
			operations: []ops.Operation{&ops.DropColumn{Table: "orders", Column: "total"}},
			wantCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			findings := check(t, rules.NewDropTableRule(), 14, tt.operations...)
			require.Len(t, findings, tt.wantCount)

			if tt.wantCount > 0 {
				assert.Equal(t, analyzer.Critical, findings[0].Severity)
				assert.Equal(t, "orders", findings[0].Table)
				assert.Equal(t, `DROP TABLE "orders"`, findings[0].Statement)
			}
		})
	}
}

func TestDropColumnRule_Check(t *testing.T) {
	t.Parallel()

	findings := check(t, rules.NewDropColumnRule(), 14, &ops.DropColumn{Table: "users", Column: "name"})
	require.Len(t, findings, 1)
	assert.Equal(t, analyzer.High, findings[0].Severity)
	assert.Equal(t, "users", findings[0].Table)
	assert.Contains(t, findings[0].Message, "name")

	findings = check(t, rules.NewDropColumnRule(), 14,
		newTable("scratch"),
		&ops.DropColumn{Table: "scratch", Column: "code"},
	)
	assert.Empty(t, findings)
}
