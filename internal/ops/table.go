package ops

import (
	"fmt"
	"strings"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

// CreateTable creates a table together with its constraints and indexes.
type CreateTable struct {
	reverseCache `yaml:"-"`

	Definition schema.Table `yaml:",inline"`
}

func (o *CreateTable) Kind() Kind     { return KindCreateTable }
func (o *CreateTable) Target() string { return o.Definition.Name }
func (o *CreateTable) String() string { return "create table " + o.Definition.Name }

func (o *CreateTable) statements(s *schema.Schema) ([]string, error) {
	t := o.Definition
	if s.HasTable(t.Name) {
		return nil, fmt.Errorf("table %q: %w", t.Name, schema.ErrExists)
	}

	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: table %q has no columns", ErrInvalidOperation, t.Name)
	}

	for _, fk := range t.ForeignKeys() {
		if fk.RefTable != t.Name && !s.HasTable(fk.RefTable) {
			return nil, fmt.Errorf("foreign key %q: table %q: %w", fk.Name, fk.RefTable, schema.ErrNotFound)
		}
	}

	defs := make([]string, 0, len(t.Columns)+len(t.Constraints))
	for _, c := range t.Columns {
		defs = append(defs, columnDef(c))
	}

	for _, c := range t.Constraints {
		defs = append(defs, constraintDef(c))
	}

	stmts := []string{"CREATE TABLE " + ident(t.Name) + " (" + strings.Join(defs, ", ") + ")"}
	for _, ix := range t.Indexes {
		stmts = append(stmts, createIndex(t.Name, ix, false))
	}

	return stmts, nil
}

func (o *CreateTable) mutate(s *schema.Schema) error {
	return s.AddTable(o.Definition)
}

func (o *CreateTable) invert(s *schema.Schema) (Operation, error) {
	if s.HasTable(o.Definition.Name) {
		return nil, fmt.Errorf("table %q: %w", o.Definition.Name, schema.ErrExists)
	}

	return &DropTable{Table: o.Definition.Name}, nil
}

// DropTable drops a table. Its reverse recreates the table exactly as it was.
type DropTable struct {
	reverseCache `yaml:"-"`

	Table string `yaml:"table"`
}

func (o *DropTable) Kind() Kind     { return KindDropTable }
func (o *DropTable) Target() string { return o.Table }
func (o *DropTable) String() string { return "drop table " + o.Table }

func (o *DropTable) statements(s *schema.Schema) ([]string, error) {
	if _, err := s.Table(o.Table); err != nil {
		return nil, err
	}

	return []string{"DROP TABLE " + ident(o.Table)}, nil
}

func (o *DropTable) mutate(s *schema.Schema) error {
	return s.DropTable(o.Table)
}

func (o *DropTable) invert(s *schema.Schema) (Operation, error) {
	t, err := s.Table(o.Table)
	if err != nil {
		return nil, err
	}

	return &CreateTable{Definition: t.Clone()}, nil
}

// RenameTable renames a table. Foreign keys pointing at it follow the rename.
type RenameTable struct {
	reverseCache `yaml:"-"`

	Table string `yaml:"table"`
	To    string `yaml:"to"`
}

func (o *RenameTable) Kind() Kind     { return KindRenameTable }
func (o *RenameTable) Target() string { return o.Table }
func (o *RenameTable) String() string { return "rename table " + o.Table + " to " + o.To }

func (o *RenameTable) statements(s *schema.Schema) ([]string, error) {
	if _, err := s.Table(o.Table); err != nil {
		return nil, err
	}

	if s.HasTable(o.To) {
		return nil, fmt.Errorf("table %q: %w", o.To, schema.ErrExists)
	}

	return []string{alterTable(o.Table, "RENAME TO "+ident(o.To))}, nil
}

func (o *RenameTable) mutate(s *schema.Schema) error {
	return s.RenameTable(o.Table, o.To)
}

func (o *RenameTable) invert(s *schema.Schema) (Operation, error) {
	if _, err := s.Table(o.Table); err != nil {
		return nil, err
	}

	return &RenameTable{Table: o.To, To: o.Table}, nil
}
