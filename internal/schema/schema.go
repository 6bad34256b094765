// Package schema holds the in-memory structural description of a database that
// migrations are replayed against and diffed with.
package schema

import (
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/aqasim81/sqlaltery/internal/parser"
)

// ConstraintType identifies the kind of a table constraint.
type ConstraintType string

// Supported constraint types.
const (
	PrimaryKey ConstraintType = "primary_key"
	Unique     ConstraintType = "unique"
	Check      ConstraintType = "check"
	ForeignKey ConstraintType = "foreign_key"
)

// Column is a single table column. Default holds a raw SQL expression; nil means no default.
type Column struct {
	Name    string  `yaml:"name"`
	Type    string  `yaml:"type"`
	NotNull bool    `yaml:"not_null,omitempty"`
	Default *string `yaml:"default,omitempty"`
}

// Constraint is a named table constraint.
type Constraint struct {
	Name       string         `yaml:"name"`
	Type       ConstraintType `yaml:"type"`
	Columns    []string       `yaml:"columns,omitempty"`
	Expr       string         `yaml:"expr,omitempty"`        // CHECK expression
	RefTable   string         `yaml:"ref_table,omitempty"`   // FOREIGN KEY target
	RefColumns []string       `yaml:"ref_columns,omitempty"` // FOREIGN KEY target columns
	OnDelete   string         `yaml:"on_delete,omitempty"`
	OnUpdate   string         `yaml:"on_update,omitempty"`
}

// Index is a named index over plain columns.
type Index struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique,omitempty"`
}

// Table is a table with its columns, constraints and indexes.
type Table struct {
	Name        string       `yaml:"name"`
	Columns     []Column     `yaml:"columns"`
	Constraints []Constraint `yaml:"constraints,omitempty"`
	Indexes     []Index      `yaml:"indexes,omitempty"`
}

// Schema is a snapshot of every table known at one point of the migration chain.
// The zero value is not usable; call New.
type Schema struct {
	tables map[string]*Table
}

// New returns an empty snapshot.
func New() *Schema {
	return &Schema{tables: make(map[string]*Table)}
}

// Table returns the named table.
func (s *Schema) Table(name string) (*Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}

	return t, nil
}

// HasTable reports whether the named table exists.
func (s *Schema) HasTable(name string) bool {
	_, ok := s.tables[name]

	return ok
}

// Tables returns all tables sorted by name.
func (s *Schema) Tables() []*Table {
	tables := make([]*Table, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	return tables
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	return len(s.tables)
}

// AddTable stores a copy of t.
func (s *Schema) AddTable(t Table) error {
	if _, ok := s.tables[t.Name]; ok {
		return fmt.Errorf("table %q: %w", t.Name, ErrExists)
	}

	c := t.Clone()
	s.tables[t.Name] = &c

	return nil
}

// DropTable removes the named table.
func (s *Schema) DropTable(name string) error {
	if _, ok := s.tables[name]; !ok {
		return fmt.Errorf("table %q: %w", name, ErrNotFound)
	}

	delete(s.tables, name)

	return nil
}

// RenameTable renames a table and repoints foreign keys that reference it,
// mirroring what PostgreSQL does on ALTER TABLE ... RENAME TO.
func (s *Schema) RenameTable(from, to string) error {
	t, ok := s.tables[from]
	if !ok {
		return fmt.Errorf("table %q: %w", from, ErrNotFound)
	}

	if _, ok := s.tables[to]; ok {
		return fmt.Errorf("table %q: %w", to, ErrExists)
	}

	delete(s.tables, from)
	t.Name = to
	s.tables[to] = t

	for _, other := range s.tables {
		for i := range other.Constraints {
			if other.Constraints[i].Type == ForeignKey && other.Constraints[i].RefTable == from {
				other.Constraints[i].RefTable = to
			}
		}
	}

	return nil
}

// RenameColumn renames a column and rewrites every constraint, index and
// foreign key that mentions it, CHECK expressions included.
func (s *Schema) RenameColumn(table, from, to string) error {
	t, err := s.Table(table)
	if err != nil {
		return err
	}

	c, err := t.Column(from)
	if err != nil {
		return err
	}

	if _, err := t.Column(to); err == nil {
		return fmt.Errorf("column %q on table %q: %w", to, table, ErrExists)
	}

	exprs := make(map[int]string)

	for i, con := range t.Constraints {
		if con.Type != Check || con.Expr == "" {
			continue
		}

		expr, changed, err := parser.RenameColumnRef(con.Expr, table, from, to)
		if err != nil {
			return fmt.Errorf("check constraint %q on table %q: %w", con.Name, table, err)
		}

		if changed {
			exprs[i] = expr
		}
	}

	c.Name = to

	for i := range t.Constraints {
		replaceName(t.Constraints[i].Columns, from, to)

		if expr, ok := exprs[i]; ok {
			t.Constraints[i].Expr = expr
		}
	}

	for i := range t.Indexes {
		replaceName(t.Indexes[i].Columns, from, to)
	}

	for _, other := range s.tables {
		for i := range other.Constraints {
			fk := &other.Constraints[i]
			if fk.Type == ForeignKey && fk.RefTable == table {
				replaceName(fk.RefColumns, from, to)
			}
		}
	}

	return nil
}

// Clone returns a deep copy of the snapshot.
func (s *Schema) Clone() *Schema {
	c := New()
	for name, t := range s.tables {
		tc := t.Clone()
		c.tables[name] = &tc
	}

	return c
}

// Equal reports whether two snapshots describe the same structure. Ordering of
// tables, columns, constraints and indexes is not significant.
func Equal(a, b *Schema) bool {
	if a.Len() != b.Len() {
		return false
	}

	for name, ta := range a.tables {
		tb, ok := b.tables[name]
		if !ok {
			return false
		}

		if !reflect.DeepEqual(ta.normalized(), tb.normalized()) {
			return false
		}
	}

	return true
}

func replaceName(names []string, from, to string) {
	for i, n := range names {
		if n == from {
			names[i] = to
		}
	}
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}

	return slices.Clone(in)
}
