package ops

import (
	"strings"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

// ExecuteSQL runs hand-written SQL such as data backfills. It never changes
// the snapshot. Backward is what the reverse runs; leaving it empty makes the
// operation irreversible against a live database.
type ExecuteSQL struct {
	reverseCache `yaml:"-"`

	Forward  string `yaml:"sql"`
	Backward string `yaml:"reverse_sql,omitempty"`
}

func (o *ExecuteSQL) Kind() Kind     { return KindExecuteSQL }
func (o *ExecuteSQL) Target() string { return "" }

func (o *ExecuteSQL) String() string {
	if o.Forward == "" {
		return "execute sql (none)"
	}

	first, _, _ := strings.Cut(strings.TrimSpace(o.Forward), "\n")

	return "execute sql: " + first
}

func (o *ExecuteSQL) statements(_ *schema.Schema) ([]string, error) {
	if strings.TrimSpace(o.Forward) == "" {
		return nil, nil
	}

	return []string{o.Forward}, nil
}

func (o *ExecuteSQL) mutate(_ *schema.Schema) error { return nil }

func (o *ExecuteSQL) invert(_ *schema.Schema) (Operation, error) {
	return &ExecuteSQL{Forward: o.Backward, Backward: o.Forward}, nil
}
