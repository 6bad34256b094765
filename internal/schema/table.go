package schema

import (
	"fmt"
	"slices"
	"sort"
)

// Column returns a pointer to the named column so callers can modify it in place.
func (t *Table) Column(name string) (*Column, error) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], nil
		}
	}

	return nil, fmt.Errorf("column %q on table %q: %w", name, t.Name, ErrNotFound)
}

// AddColumn appends a copy of c.
func (t *Table) AddColumn(c Column) error {
	if _, err := t.Column(c.Name); err == nil {
		return fmt.Errorf("column %q on table %q: %w", c.Name, t.Name, ErrExists)
	}

	t.Columns = append(t.Columns, c.Clone())

	return nil
}

// DropColumn removes the named column.
func (t *Table) DropColumn(name string) error {
	i := slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return fmt.Errorf("column %q on table %q: %w", name, t.Name, ErrNotFound)
	}

	t.Columns = slices.Delete(t.Columns, i, i+1)

	return nil
}

// Constraint returns the named constraint.
func (t *Table) Constraint(name string) (*Constraint, error) {
	for i := range t.Constraints {
		if t.Constraints[i].Name == name {
			return &t.Constraints[i], nil
		}
	}

	return nil, fmt.Errorf("constraint %q on table %q: %w", name, t.Name, ErrNotFound)
}

// AddConstraint appends a copy of c.
func (t *Table) AddConstraint(c Constraint) error {
	if _, err := t.Constraint(c.Name); err == nil {
		return fmt.Errorf("constraint %q on table %q: %w", c.Name, t.Name, ErrExists)
	}

	t.Constraints = append(t.Constraints, c.Clone())

	return nil
}

// DropConstraint removes the named constraint.
func (t *Table) DropConstraint(name string) error {
	i := slices.IndexFunc(t.Constraints, func(c Constraint) bool { return c.Name == name })
	if i < 0 {
		return fmt.Errorf("constraint %q on table %q: %w", name, t.Name, ErrNotFound)
	}

	t.Constraints = slices.Delete(t.Constraints, i, i+1)

	return nil
}

// Index returns the named index.
func (t *Table) Index(name string) (*Index, error) {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i], nil
		}
	}

	return nil, fmt.Errorf("index %q on table %q: %w", name, t.Name, ErrNotFound)
}

// AddIndex appends a copy of ix.
func (t *Table) AddIndex(ix Index) error {
	if _, err := t.Index(ix.Name); err == nil {
		return fmt.Errorf("index %q on table %q: %w", ix.Name, t.Name, ErrExists)
	}

	t.Indexes = append(t.Indexes, ix.Clone())

	return nil
}

// DropIndex removes the named index.
func (t *Table) DropIndex(name string) error {
	i := slices.IndexFunc(t.Indexes, func(ix Index) bool { return ix.Name == name })
	if i < 0 {
		return fmt.Errorf("index %q on table %q: %w", name, t.Name, ErrNotFound)
	}

	t.Indexes = slices.Delete(t.Indexes, i, i+1)

	return nil
}

// ForeignKeys returns the table's foreign key constraints in declaration order.
func (t *Table) ForeignKeys() []Constraint {
	var fks []Constraint

	for _, c := range t.Constraints {
		if c.Type == ForeignKey {
			fks = append(fks, c)
		}
	}

	return fks
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	c := Table{Name: t.Name}

	for _, col := range t.Columns {
		c.Columns = append(c.Columns, col.Clone())
	}

	for _, con := range t.Constraints {
		c.Constraints = append(c.Constraints, con.Clone())
	}

	for _, ix := range t.Indexes {
		c.Indexes = append(c.Indexes, ix.Clone())
	}

	return c
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	if c.Default != nil {
		d := *c.Default
		c.Default = &d
	}

	return c
}

// Clone returns a deep copy of the constraint.
func (c Constraint) Clone() Constraint {
	c.Columns = cloneStrings(c.Columns)
	c.RefColumns = cloneStrings(c.RefColumns)

	return c
}

// Clone returns a deep copy of the index.
func (ix Index) Clone() Index {
	ix.Columns = cloneStrings(ix.Columns)

	return ix
}

// normalized returns a copy with columns, constraints and indexes sorted by
// name, used for order-insensitive comparison.
func (t *Table) normalized() Table {
	c := t.Clone()

	sort.Slice(c.Columns, func(i, j int) bool { return c.Columns[i].Name < c.Columns[j].Name })
	sort.Slice(c.Constraints, func(i, j int) bool { return c.Constraints[i].Name < c.Constraints[j].Name })
	sort.Slice(c.Indexes, func(i, j int) bool { return c.Indexes[i].Name < c.Indexes[j].Name })

	return c
}
