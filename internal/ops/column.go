package ops

import (
	"fmt"
	"strings"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

// AddColumn adds a column to an existing table.
type AddColumn struct {
	reverseCache `yaml:"-"`

	Table  string        `yaml:"table"`
	Column schema.Column `yaml:"column"`
}

func (o *AddColumn) Kind() Kind     { return KindAddColumn }
func (o *AddColumn) Target() string { return o.Table }
func (o *AddColumn) String() string { return "add column " + o.Table + "." + o.Column.Name }

func (o *AddColumn) statements(s *schema.Schema) ([]string, error) {
	t, err := s.Table(o.Table)
	if err != nil {
		return nil, err
	}

	if _, err := t.Column(o.Column.Name); err == nil {
		return nil, fmt.Errorf("column %q on table %q: %w", o.Column.Name, o.Table, schema.ErrExists)
	}

	return []string{alterTable(o.Table, "ADD COLUMN "+columnDef(o.Column))}, nil
}

func (o *AddColumn) mutate(s *schema.Schema) error {
	t, err := s.Table(o.Table)
	if err != nil {
		return err
	}

	return t.AddColumn(o.Column)
}

func (o *AddColumn) invert(s *schema.Schema) (Operation, error) {
	if _, err := s.Table(o.Table); err != nil {
		return nil, err
	}

	return &DropColumn{Table: o.Table, Column: o.Column.Name}, nil
}

// DropColumn removes a column. Its reverse re-adds the column with the type,
// nullability and default it had before.
type DropColumn struct {
	reverseCache `yaml:"-"`

	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

func (o *DropColumn) Kind() Kind     { return KindDropColumn }
func (o *DropColumn) Target() string { return o.Table }
func (o *DropColumn) String() string { return "drop column " + o.Table + "." + o.Column }

func (o *DropColumn) statements(s *schema.Schema) ([]string, error) {
	if _, err := lookupColumn(s, o.Table, o.Column); err != nil {
		return nil, err
	}

	return []string{alterTable(o.Table, "DROP COLUMN "+ident(o.Column))}, nil
}

func (o *DropColumn) mutate(s *schema.Schema) error {
	t, err := s.Table(o.Table)
	if err != nil {
		return err
	}

	return t.DropColumn(o.Column)
}

func (o *DropColumn) invert(s *schema.Schema) (Operation, error) {
	c, err := lookupColumn(s, o.Table, o.Column)
	if err != nil {
		return nil, err
	}

	return &AddColumn{Table: o.Table, Column: c.Clone()}, nil
}

// AlterColumn changes attributes of an existing column. Nil fields are left
// untouched; an AlterColumn with no changes does nothing.
type AlterColumn struct {
	reverseCache `yaml:"-"`

	Table       string  `yaml:"table"`
	Column      string  `yaml:"column"`
	Rename      *string `yaml:"rename,omitempty"`
	Type        *string `yaml:"type,omitempty"`
	NotNull     *bool   `yaml:"not_null,omitempty"`
	SetDefault  *string `yaml:"set_default,omitempty"`
	DropDefault bool    `yaml:"drop_default,omitempty"`
}

func (o *AlterColumn) Kind() Kind     { return KindAlterColumn }
func (o *AlterColumn) Target() string { return o.Table }

func (o *AlterColumn) String() string {
	if o.Rename != nil {
		return "alter column " + o.Table + "." + o.Column + " (rename to " + *o.Rename + ")"
	}

	return "alter column " + o.Table + "." + o.Column
}

// Empty reports whether the operation changes nothing.
func (o *AlterColumn) Empty() bool {
	return o.Rename == nil && o.Type == nil && o.NotNull == nil && o.SetDefault == nil && !o.DropDefault
}

func (o *AlterColumn) statements(s *schema.Schema) ([]string, error) {
	if o.SetDefault != nil && o.DropDefault {
		return nil, fmt.Errorf("%w: %s sets and drops the default", ErrInvalidOperation, o)
	}

	t, err := s.Table(o.Table)
	if err != nil {
		return nil, err
	}

	if _, err := t.Column(o.Column); err != nil {
		return nil, err
	}

	if o.Rename != nil {
		if _, err := t.Column(*o.Rename); err == nil {
			return nil, fmt.Errorf("column %q on table %q: %w", *o.Rename, o.Table, schema.ErrExists)
		}
	}

	var actions []string

	col := ident(o.Column)

	if o.Type != nil {
		actions = append(actions, "ALTER COLUMN "+col+" TYPE "+*o.Type)
	}

	if o.NotNull != nil {
		if *o.NotNull {
			actions = append(actions, "ALTER COLUMN "+col+" SET NOT NULL")
		} else {
			actions = append(actions, "ALTER COLUMN "+col+" DROP NOT NULL")
		}
	}

	if o.SetDefault != nil {
		actions = append(actions, "ALTER COLUMN "+col+" SET DEFAULT "+*o.SetDefault)
	}

	if o.DropDefault {
		actions = append(actions, "ALTER COLUMN "+col+" DROP DEFAULT")
	}

	var stmts []string

	if len(actions) > 0 {
		stmts = append(stmts, alterTable(o.Table, strings.Join(actions, ", ")))
	}

	if o.Rename != nil {
		stmts = append(stmts, alterTable(o.Table, "RENAME COLUMN "+col+" TO "+ident(*o.Rename)))
	}

	return stmts, nil
}

func (o *AlterColumn) mutate(s *schema.Schema) error {
	if o.Empty() {
		return nil
	}

	c, err := lookupColumn(s, o.Table, o.Column)
	if err != nil {
		return err
	}

	if o.Type != nil {
		c.Type = *o.Type
	}

	if o.NotNull != nil {
		c.NotNull = *o.NotNull
	}

	if o.SetDefault != nil {
		d := *o.SetDefault
		c.Default = &d
	}

	if o.DropDefault {
		c.Default = nil
	}

	if o.Rename != nil {
		return s.RenameColumn(o.Table, o.Column, *o.Rename)
	}

	return nil
}

// invert restores the pre-state value of every attribute this operation
// changes, addressing the column by its post-rename name.
func (o *AlterColumn) invert(s *schema.Schema) (Operation, error) {
	c, err := lookupColumn(s, o.Table, o.Column)
	if err != nil {
		return nil, err
	}

	rev := &AlterColumn{Table: o.Table, Column: o.Column}

	if o.Rename != nil {
		rev.Column = *o.Rename
		name := o.Column
		rev.Rename = &name
	}

	if o.Type != nil {
		typ := c.Type
		rev.Type = &typ
	}

	if o.NotNull != nil {
		notNull := c.NotNull
		rev.NotNull = &notNull
	}

	if o.SetDefault != nil || o.DropDefault {
		if c.Default != nil {
			d := *c.Default
			rev.SetDefault = &d
		} else {
			rev.DropDefault = true
		}
	}

	return rev, nil
}

func lookupColumn(s *schema.Schema, table, column string) (*schema.Column, error) {
	t, err := s.Table(table)
	if err != nil {
		return nil, err
	}

	return t.Column(column)
}
