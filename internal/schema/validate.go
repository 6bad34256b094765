package schema

import (
	"errors"
	"fmt"
	"slices"
)

// Validate checks that the snapshot is internally consistent: every table has
// columns, names are unique, and constraints, indexes and foreign keys only
// reference columns and tables that exist.
func (s *Schema) Validate() error {
	var errs []error

	for _, t := range s.Tables() {
		errs = append(errs, s.validateTable(t)...)
	}

	errs = append(errs, s.validateRelationNames()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	return nil
}

func (s *Schema) validateTable(t *Table) []error {
	var errs []error

	if t.Name == "" {
		return []error{errors.New("table with empty name")}
	}

	if len(t.Columns) == 0 {
		errs = append(errs, fmt.Errorf("table %q has no columns", t.Name))
	}

	seen := make(map[string]bool, len(t.Columns))

	for _, c := range t.Columns {
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Errorf("table %q has a column with empty name", t.Name))
		case c.Type == "":
			errs = append(errs, fmt.Errorf("column %q on table %q has no type", c.Name, t.Name))
		case seen[c.Name]:
			errs = append(errs, fmt.Errorf("column %q on table %q is declared twice", c.Name, t.Name))
		}

		seen[c.Name] = true
	}

	constraints := make(map[string]bool, len(t.Constraints))

	for _, c := range t.Constraints {
		if c.Name != "" && constraints[c.Name] {
			errs = append(errs, fmt.Errorf("constraint %q on table %q is declared twice", c.Name, t.Name))
		}

		constraints[c.Name] = true

		errs = append(errs, s.validateConstraint(t, c, seen)...)
	}

	indexes := make(map[string]bool, len(t.Indexes))

	for _, ix := range t.Indexes {
		if ix.Name == "" || len(ix.Columns) == 0 {
			errs = append(errs, fmt.Errorf("index on table %q needs a name and columns", t.Name))
		} else if indexes[ix.Name] {
			errs = append(errs, fmt.Errorf("index %q on table %q is declared twice", ix.Name, t.Name))
		}

		indexes[ix.Name] = true

		errs = append(errs, missingColumns(t.Name, ix.Columns, seen)...)
	}

	return errs
}

// validateRelationNames checks the names PostgreSQL keeps in one per-schema
// namespace: tables, indexes, and the indexes behind primary key and unique
// constraints.
func (s *Schema) validateRelationNames() []error {
	owner := make(map[string]string)

	var errs []error

	claim := func(name, what string) {
		if name == "" {
			return
		}

		if prev, ok := owner[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q clashes with %s", what, name, prev))

			return
		}

		owner[name] = what
	}

	tables := s.Tables()

	for _, t := range tables {
		claim(t.Name, "table")
	}

	for _, t := range tables {
		for _, c := range t.Constraints {
			if c.Type == PrimaryKey || c.Type == Unique {
				claim(c.Name, fmt.Sprintf("constraint on table %q", t.Name))
			}
		}

		for _, ix := range t.Indexes {
			claim(ix.Name, fmt.Sprintf("index on table %q", t.Name))
		}
	}

	return errs
}

func (s *Schema) validateConstraint(t *Table, c Constraint, columns map[string]bool) []error {
	if c.Name == "" {
		return []error{fmt.Errorf("constraint on table %q has no name", t.Name)}
	}

	errs := missingColumns(t.Name, c.Columns, columns)

	switch c.Type {
	case PrimaryKey, Unique:
		if len(c.Columns) == 0 {
			errs = append(errs, fmt.Errorf("constraint %q on table %q has no columns", c.Name, t.Name))
		}
	case Check:
		if c.Expr == "" {
			errs = append(errs, fmt.Errorf("check constraint %q on table %q has no expression", c.Name, t.Name))
		}
	case ForeignKey:
		errs = append(errs, s.validateForeignKey(t, c)...)
	default:
		errs = append(errs, fmt.Errorf("constraint %q on table %q has unknown type %q", c.Name, t.Name, c.Type))
	}

	return errs
}

func (s *Schema) validateForeignKey(t *Table, c Constraint) []error {
	if len(c.Columns) == 0 || len(c.Columns) != len(c.RefColumns) {
		return []error{fmt.Errorf("foreign key %q on table %q must list matching local and referenced columns", c.Name, t.Name)}
	}

	ref, err := s.Table(c.RefTable)
	if err != nil {
		return []error{fmt.Errorf("foreign key %q on table %q: %w", c.Name, t.Name, err)}
	}

	var errs []error

	for _, col := range c.RefColumns {
		if !slices.ContainsFunc(ref.Columns, func(rc Column) bool { return rc.Name == col }) {
			errs = append(errs, fmt.Errorf("foreign key %q references missing column %q on table %q", c.Name, col, ref.Name))
		}
	}

	return errs
}

func missingColumns(table string, cols []string, known map[string]bool) []error {
	var errs []error

	for _, col := range cols {
		if !known[col] {
			errs = append(errs, fmt.Errorf("column %q on table %q: %w", col, table, ErrNotFound))
		}
	}

	return errs
}
