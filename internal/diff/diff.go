// Package diff computes the operations that turn one schema snapshot into
// another. It never infers renames: a renamed table or column shows up as a
// drop plus an add.
package diff

import (
	"reflect"
	"slices"

	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/schema"
)

// Differ is the default diff oracle. Operations are emitted in an order that
// respects dependencies: foreign keys are removed before the tables and
// columns they point at, and added only after both ends exist.
type Differ struct{}

// New returns a Differ.
func New() *Differ {
	return &Differ{}
}

// Diff returns the operations transforming from into to. Equal snapshots
// produce an empty list.
func (d *Differ) Diff(from, to *schema.Schema) []ops.Operation {
	p := plan{from: from, to: to}

	p.dropForeignKeys()
	p.dropIndexes()
	p.dropConstraints()
	p.dropTables()
	p.createTables()
	p.changeColumns()
	p.addConstraints()
	p.addIndexes()
	p.addForeignKeys()

	return p.out
}

type plan struct {
	from, to *schema.Schema
	out      []ops.Operation
}

func (p *plan) emit(op ops.Operation) {
	p.out = append(p.out, op)
}

// kept returns the table in the target snapshot with the same name, or nil
// when the table is being dropped.
func (p *plan) kept(name string) *schema.Table {
	t, err := p.to.Table(name)
	if err != nil {
		return nil
	}

	return t
}

func (p *plan) dropForeignKeys() {
	for _, old := range p.from.Tables() {
		head := p.kept(old.Name)

		for _, fk := range old.ForeignKeys() {
			if head == nil || !sameConstraint(head, fk) {
				p.emit(&ops.DropConstraint{Table: old.Name, Constraint: fk.Name})
			}
		}
	}
}

func (p *plan) dropIndexes() {
	for _, old := range p.from.Tables() {
		head := p.kept(old.Name)
		if head == nil {
			continue
		}

		for _, ix := range old.Indexes {
			cur, err := head.Index(ix.Name)
			if err != nil || !reflect.DeepEqual(ix.Clone(), cur.Clone()) {
				p.emit(&ops.DropIndex{Table: old.Name, Index: ix.Name})
			}
		}
	}
}

func (p *plan) dropConstraints() {
	for _, old := range p.from.Tables() {
		head := p.kept(old.Name)
		if head == nil {
			continue
		}

		for _, c := range old.Constraints {
			if c.Type != schema.ForeignKey && !sameConstraint(head, c) {
				p.emit(&ops.DropConstraint{Table: old.Name, Constraint: c.Name})
			}
		}
	}
}

func (p *plan) dropTables() {
	for _, old := range p.from.Tables() {
		if !p.to.HasTable(old.Name) {
			p.emit(&ops.DropTable{Table: old.Name})
		}
	}
}

// createTables emits new tables without their foreign keys so that tables
// referencing each other can be created in any order.
func (p *plan) createTables() {
	for _, head := range p.to.Tables() {
		if p.from.HasTable(head.Name) {
			continue
		}

		def := head.Clone()
		def.Constraints = slices.DeleteFunc(def.Constraints, func(c schema.Constraint) bool {
			return c.Type == schema.ForeignKey
		})

		p.emit(&ops.CreateTable{Definition: def})
	}
}

func (p *plan) changeColumns() {
	for _, head := range p.to.Tables() {
		old, err := p.from.Table(head.Name)
		if err != nil {
			continue
		}

		for _, c := range old.Columns {
			if _, err := head.Column(c.Name); err != nil {
				p.emit(&ops.DropColumn{Table: head.Name, Column: c.Name})
			}
		}

		for _, c := range head.Columns {
			if _, err := old.Column(c.Name); err != nil {
				p.emit(&ops.AddColumn{Table: head.Name, Column: c.Clone()})
			}
		}

		for _, c := range head.Columns {
			prev, err := old.Column(c.Name)
			if err != nil {
				continue
			}

			if alter := alterColumn(head.Name, *prev, c); !alter.Empty() {
				p.emit(alter)
			}
		}
	}
}

func (p *plan) addConstraints() {
	for _, head := range p.to.Tables() {
		old, err := p.from.Table(head.Name)
		if err != nil {
			continue
		}

		for _, c := range head.Constraints {
			if c.Type != schema.ForeignKey && !sameConstraint(old, c) {
				p.emit(&ops.AddConstraint{Table: head.Name, Constraint: c.Clone()})
			}
		}
	}
}

func (p *plan) addIndexes() {
	for _, head := range p.to.Tables() {
		old, err := p.from.Table(head.Name)
		if err != nil {
			continue
		}

		for _, ix := range head.Indexes {
			cur, err := old.Index(ix.Name)
			if err != nil || !reflect.DeepEqual(ix.Clone(), cur.Clone()) {
				p.emit(&ops.AddIndex{Table: head.Name, Index: ix.Clone()})
			}
		}
	}
}

func (p *plan) addForeignKeys() {
	for _, head := range p.to.Tables() {
		old, err := p.from.Table(head.Name)

		for _, fk := range head.ForeignKeys() {
			if err != nil || !sameConstraint(old, fk) {
				p.emit(&ops.AddConstraint{Table: head.Name, Constraint: fk.Clone()})
			}
		}
	}
}

// sameConstraint reports whether t has a constraint identical to c.
func sameConstraint(t *schema.Table, c schema.Constraint) bool {
	cur, err := t.Constraint(c.Name)
	if err != nil {
		return false
	}

	return reflect.DeepEqual(cur.Clone(), c.Clone())
}

func alterColumn(table string, from, to schema.Column) *ops.AlterColumn {
	alter := &ops.AlterColumn{Table: table, Column: to.Name}

	if from.Type != to.Type {
		typ := to.Type
		alter.Type = &typ
	}

	if from.NotNull != to.NotNull {
		notNull := to.NotNull
		alter.NotNull = &notNull
	}

	switch {
	case to.Default == nil && from.Default != nil:
		alter.DropDefault = true
	case to.Default != nil && (from.Default == nil || *from.Default != *to.Default):
		d := *to.Default
		alter.SetDefault = &d
	}

	return alter
}
