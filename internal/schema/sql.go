package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/sqlaltery/internal/parser"
)

// errUnsupported is wrapped with ErrInvalid for DDL the snapshot cannot represent.
var errUnsupported = errors.New("unsupported statement")

//nolint:gochecknoglobals // read-only lookup table
var fkActions = map[string]string{
	"a": "",
	"r": "RESTRICT",
	"c": "CASCADE",
	"n": "SET NULL",
	"d": "SET DEFAULT",
}

// sqlLoader accumulates tables while walking a parsed DDL script.
type sqlLoader struct {
	schema *Schema
	used   map[string]bool
}

// FromSQL builds a snapshot from PostgreSQL DDL. CREATE TABLE, CREATE INDEX and
// ALTER TABLE ... ADD CONSTRAINT are understood; anything else is rejected.
// Unnamed constraints and indexes get the names PostgreSQL would choose.
func FromSQL(sql string) (*Schema, error) {
	result, err := parser.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	l := &sqlLoader{schema: New(), used: make(map[string]bool)}

	for i, raw := range result.Statements {
		if err := l.statement(raw.GetStmt()); err != nil {
			return nil, fmt.Errorf("%w: statement %d: %w", ErrInvalid, i+1, err)
		}
	}

	if err := l.resolveForeignKeys(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := l.schema.Validate(); err != nil {
		return nil, err
	}

	return l.schema, nil
}

func (l *sqlLoader) statement(node *pg_query.Node) error {
	switch {
	case node.GetCreateStmt() != nil:
		return l.createTable(node.GetCreateStmt())
	case node.GetIndexStmt() != nil:
		return l.createIndex(node.GetIndexStmt())
	case node.GetAlterTableStmt() != nil:
		return l.alterTable(node.GetAlterTableStmt())
	default:
		return errUnsupported
	}
}

func (l *sqlLoader) createTable(stmt *pg_query.CreateStmt) error {
	t := Table{Name: stmt.GetRelation().GetRelname()}

	var constraints []*pg_query.Constraint

	for _, elt := range stmt.GetTableElts() {
		switch {
		case elt.GetColumnDef() != nil:
			col, inline, err := l.column(elt.GetColumnDef())
			if err != nil {
				return fmt.Errorf("table %q: %w", t.Name, err)
			}

			t.Columns = append(t.Columns, col)
			constraints = append(constraints, inline...)
		case elt.GetConstraint() != nil:
			constraints = append(constraints, elt.GetConstraint())
		default:
			return fmt.Errorf("table %q: %w", t.Name, errUnsupported)
		}
	}

	if err := l.schema.AddTable(t); err != nil {
		return err
	}

	table, _ := l.schema.Table(t.Name)

	for _, c := range constraints {
		if err := l.addConstraint(table, c); err != nil {
			return err
		}
	}

	return nil
}

// column converts a column definition. Column-level PRIMARY KEY, UNIQUE, CHECK
// and REFERENCES clauses are returned as table constraints bound to the column.
func (l *sqlLoader) column(def *pg_query.ColumnDef) (Column, []*pg_query.Constraint, error) {
	col := Column{
		Name:    def.GetColname(),
		Type:    parser.TypeString(def.GetTypeName()),
		NotNull: def.GetIsNotNull(),
	}

	colRef := []*pg_query.Node{{Node: &pg_query.Node_String_{String_: &pg_query.String{Sval: col.Name}}}}

	var table []*pg_query.Constraint

	for _, n := range def.GetConstraints() {
		c := n.GetConstraint()
		if c == nil {
			continue
		}

		switch c.GetContype() {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			col.NotNull = true
		case pg_query.ConstrType_CONSTR_NULL:
			col.NotNull = false
		case pg_query.ConstrType_CONSTR_DEFAULT:
			expr, err := parser.DeparseExpr(c.GetRawExpr())
			if err != nil {
				return Column{}, nil, err
			}

			col.Default = &expr
		case pg_query.ConstrType_CONSTR_PRIMARY:
			col.NotNull = true
			c.Keys = colRef
			table = append(table, c)
		case pg_query.ConstrType_CONSTR_UNIQUE:
			c.Keys = colRef
			table = append(table, c)
		case pg_query.ConstrType_CONSTR_FOREIGN:
			c.FkAttrs = colRef
			table = append(table, c)
		case pg_query.ConstrType_CONSTR_CHECK:
			c.Keys = colRef
			table = append(table, c)
		default:
			return Column{}, nil, fmt.Errorf("column %q: constraint %s: %w", col.Name, c.GetContype(), errUnsupported)
		}
	}

	return col, table, nil
}

func (l *sqlLoader) addConstraint(t *Table, c *pg_query.Constraint) error {
	con := Constraint{Name: c.GetConname()}

	switch c.GetContype() {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		con.Type = PrimaryKey
		con.Columns = parser.Strings(c.GetKeys())
		l.markNotNull(t, con.Columns)
		con.Name = l.choose(con.Name, t.Name, nil, "pkey")
	case pg_query.ConstrType_CONSTR_UNIQUE:
		con.Type = Unique
		con.Columns = parser.Strings(c.GetKeys())
		con.Name = l.choose(con.Name, t.Name, con.Columns, "key")
	case pg_query.ConstrType_CONSTR_CHECK:
		expr, err := parser.DeparseExpr(c.GetRawExpr())
		if err != nil {
			return err
		}

		con.Type = Check
		con.Expr = expr
		con.Name = l.choose(con.Name, t.Name, parser.Strings(c.GetKeys()), "check")
	case pg_query.ConstrType_CONSTR_FOREIGN:
		con.Type = ForeignKey
		con.Columns = parser.Strings(c.GetFkAttrs())
		con.RefTable = c.GetPktable().GetRelname()
		con.RefColumns = parser.Strings(c.GetPkAttrs())
		con.OnDelete = fkActions[c.GetFkDelAction()]
		con.OnUpdate = fkActions[c.GetFkUpdAction()]
		con.Name = l.choose(con.Name, t.Name, con.Columns, "fkey")
	default:
		return fmt.Errorf("table %q: constraint %s: %w", t.Name, c.GetContype(), errUnsupported)
	}

	return t.AddConstraint(con)
}

func (l *sqlLoader) markNotNull(t *Table, cols []string) {
	for _, name := range cols {
		if col, err := t.Column(name); err == nil {
			col.NotNull = true
		}
	}
}

func (l *sqlLoader) createIndex(stmt *pg_query.IndexStmt) error {
	t, err := l.schema.Table(stmt.GetRelation().GetRelname())
	if err != nil {
		return err
	}

	ix := Index{Unique: stmt.GetUnique()}

	for _, p := range stmt.GetIndexParams() {
		elem := p.GetIndexElem()
		if elem == nil || elem.GetName() == "" {
			return fmt.Errorf("index on table %q: expression index: %w", t.Name, errUnsupported)
		}

		ix.Columns = append(ix.Columns, elem.GetName())
	}

	ix.Name = l.choose(stmt.GetIdxname(), t.Name, ix.Columns, "idx")

	return t.AddIndex(ix)
}

func (l *sqlLoader) alterTable(stmt *pg_query.AlterTableStmt) error {
	t, err := l.schema.Table(stmt.GetRelation().GetRelname())
	if err != nil {
		return err
	}

	for _, n := range stmt.GetCmds() {
		cmd := n.GetAlterTableCmd()
		if cmd == nil || cmd.GetSubtype() != pg_query.AlterTableType_AT_AddConstraint {
			return fmt.Errorf("alter table %q: %w", t.Name, errUnsupported)
		}

		if err := l.addConstraint(t, cmd.GetDef().GetConstraint()); err != nil {
			return err
		}
	}

	return nil
}

// resolveForeignKeys fills in referenced columns for REFERENCES clauses that
// omit them, pointing at the referenced table's primary key.
func (l *sqlLoader) resolveForeignKeys() error {
	for _, t := range l.schema.Tables() {
		for i := range t.Constraints {
			fk := &t.Constraints[i]
			if fk.Type != ForeignKey || len(fk.RefColumns) > 0 {
				continue
			}

			ref, err := l.schema.Table(fk.RefTable)
			if err != nil {
				return fmt.Errorf("foreign key %q: %w", fk.Name, err)
			}

			for _, c := range ref.Constraints {
				if c.Type == PrimaryKey {
					fk.RefColumns = cloneStrings(c.Columns)
				}
			}

			if len(fk.RefColumns) == 0 {
				return fmt.Errorf("foreign key %q: table %q has no primary key: %w", fk.Name, ref.Name, ErrNotFound)
			}
		}
	}

	return nil
}

// choose returns name when given, otherwise the name PostgreSQL would pick:
// table, columns and label joined by underscores, with a numeric suffix on
// the label when the name is already taken.
func (l *sqlLoader) choose(name, table string, cols []string, label string) string {
	if name != "" {
		l.used[name] = true

		return name
	}

	base := strings.Join(append(append([]string{table}, cols...), label), "_")
	candidate := base

	for n := 1; l.used[candidate]; n++ {
		candidate = base + strconv.Itoa(n)
	}

	l.used[candidate] = true

	return candidate
}
