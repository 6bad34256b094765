package ops

import (
	"fmt"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

// AddConstraint adds a table constraint. NotValid skips validating existing
// rows for CHECK and FOREIGN KEY constraints.
type AddConstraint struct {
	reverseCache `yaml:"-"`

	Table      string            `yaml:"table"`
	Constraint schema.Constraint `yaml:"constraint"`
	NotValid   bool              `yaml:"not_valid,omitempty"`
}

func (o *AddConstraint) Kind() Kind     { return KindAddConstraint }
func (o *AddConstraint) Target() string { return o.Table }

func (o *AddConstraint) String() string {
	return fmt.Sprintf("add %s constraint %s on %s", o.Constraint.Type, o.Constraint.Name, o.Table)
}

func (o *AddConstraint) statements(s *schema.Schema) ([]string, error) {
	t, err := s.Table(o.Table)
	if err != nil {
		return nil, err
	}

	c := o.Constraint
	if _, err := t.Constraint(c.Name); err == nil {
		return nil, fmt.Errorf("constraint %q on table %q: %w", c.Name, o.Table, schema.ErrExists)
	}

	for _, col := range c.Columns {
		if _, err := t.Column(col); err != nil {
			return nil, err
		}
	}

	if c.Type == schema.ForeignKey {
		ref, err := s.Table(c.RefTable)
		if err != nil {
			return nil, err
		}

		for _, col := range c.RefColumns {
			if _, err := ref.Column(col); err != nil {
				return nil, err
			}
		}
	}

	action := "ADD " + constraintDef(c)
	if o.NotValid && (c.Type == schema.Check || c.Type == schema.ForeignKey) {
		action += " NOT VALID"
	}

	return []string{alterTable(o.Table, action)}, nil
}

func (o *AddConstraint) mutate(s *schema.Schema) error {
	t, err := s.Table(o.Table)
	if err != nil {
		return err
	}

	return t.AddConstraint(o.Constraint)
}

func (o *AddConstraint) invert(s *schema.Schema) (Operation, error) {
	if _, err := s.Table(o.Table); err != nil {
		return nil, err
	}

	return &DropConstraint{Table: o.Table, Constraint: o.Constraint.Name}, nil
}

// DropConstraint drops a table constraint. Its reverse re-adds the constraint
// captured from the snapshot.
type DropConstraint struct {
	reverseCache `yaml:"-"`

	Table      string `yaml:"table"`
	Constraint string `yaml:"constraint"`
}

func (o *DropConstraint) Kind() Kind     { return KindDropConstraint }
func (o *DropConstraint) Target() string { return o.Table }
func (o *DropConstraint) String() string { return "drop constraint " + o.Constraint + " on " + o.Table }

func (o *DropConstraint) statements(s *schema.Schema) ([]string, error) {
	if _, err := lookupConstraint(s, o.Table, o.Constraint); err != nil {
		return nil, err
	}

	return []string{alterTable(o.Table, "DROP CONSTRAINT "+ident(o.Constraint))}, nil
}

func (o *DropConstraint) mutate(s *schema.Schema) error {
	t, err := s.Table(o.Table)
	if err != nil {
		return err
	}

	return t.DropConstraint(o.Constraint)
}

func (o *DropConstraint) invert(s *schema.Schema) (Operation, error) {
	c, err := lookupConstraint(s, o.Table, o.Constraint)
	if err != nil {
		return nil, err
	}

	return &AddConstraint{Table: o.Table, Constraint: c.Clone()}, nil
}

func lookupConstraint(s *schema.Schema, table, name string) (*schema.Constraint, error) {
	t, err := s.Table(table)
	if err != nil {
		return nil, err
	}

	return t.Constraint(name)
}
