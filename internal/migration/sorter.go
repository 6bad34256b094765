package migration

import (
	"fmt"
	"sort"
)

// Sort returns a new slice of migrations sorted by Number.
// The sort is stable to preserve insertion order for equal numbers.
func Sort(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	return sorted
}

// Verify checks that sorted migrations are numbered exactly 1..N, with no
// gaps or duplicates.
func Verify(sorted []Migration) error {
	for i, m := range sorted {
		if m.Number != i+1 {
			return fmt.Errorf("%w: expected migration %d, found %d (%s)", ErrBrokenChain, i+1, m.Number, m.Path)
		}
	}

	return nil
}
