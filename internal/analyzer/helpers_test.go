package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/sqlaltery/internal/analyzer"
)

func TestTruncateSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sql    string
		maxLen int
		want   string
	}{
		{name: "short", sql: "SELECT 1", maxLen: 100, want: "SELECT 1"},
		{name: "exact length", sql: "SELECT 1", maxLen: 8, want: "SELECT 1"},
		{name: "truncated", sql: "SELECT * FROM very_long_table_name WHERE id = 1", maxLen: 20, want: "SELECT * FROM ver..."},
		{name: "no room for ellipsis", sql: "SELECT 1", maxLen: 3, want: "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, analyzer.TruncateSQL(tt.sql, tt.maxLen))
		})
	}
}

func TestAnalysisResult_thresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		severity analyzer.Severity
		high     bool
		medium   bool
	}{
		{"low", analyzer.Low, false, false},
		{"medium", analyzer.Medium, false, true},
		{"high", analyzer.High, true, true},
		{"critical", analyzer.Critical, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &analyzer.AnalysisResult{
				Findings:    []analyzer.Finding{{Severity: tt.severity}},
				MaxSeverity: tt.severity,
			}
			assert.Equal(t, tt.high, r.HasHighOrCritical())
			assert.Equal(t, tt.medium, r.AtLeast(analyzer.Medium))
		})
	}

	empty := &analyzer.AnalysisResult{}
	assert.False(t, empty.AtLeast(analyzer.Safe))
}
