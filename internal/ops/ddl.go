package ops

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aqasim81/sqlaltery/internal/schema"
)

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = ident(n)
	}

	return strings.Join(quoted, ", ")
}

func columnDef(c schema.Column) string {
	var b strings.Builder

	b.WriteString(ident(c.Name))
	b.WriteString(" ")
	b.WriteString(c.Type)

	if c.NotNull {
		b.WriteString(" NOT NULL")
	}

	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*c.Default)
	}

	return b.String()
}

func constraintDef(c schema.Constraint) string {
	var b strings.Builder

	b.WriteString("CONSTRAINT ")
	b.WriteString(ident(c.Name))

	switch c.Type {
	case schema.PrimaryKey:
		b.WriteString(" PRIMARY KEY (" + identList(c.Columns) + ")")
	case schema.Unique:
		b.WriteString(" UNIQUE (" + identList(c.Columns) + ")")
	case schema.Check:
		b.WriteString(" CHECK (" + c.Expr + ")")
	case schema.ForeignKey:
		b.WriteString(" FOREIGN KEY (" + identList(c.Columns) + ")")
		b.WriteString(" REFERENCES " + ident(c.RefTable) + " (" + identList(c.RefColumns) + ")")

		if c.OnDelete != "" {
			b.WriteString(" ON DELETE " + c.OnDelete)
		}

		if c.OnUpdate != "" {
			b.WriteString(" ON UPDATE " + c.OnUpdate)
		}
	}

	return b.String()
}

func createIndex(table string, ix schema.Index, concurrently bool) string {
	var b strings.Builder

	b.WriteString("CREATE ")

	if ix.Unique {
		b.WriteString("UNIQUE ")
	}

	b.WriteString("INDEX ")

	if concurrently {
		b.WriteString("CONCURRENTLY ")
	}

	b.WriteString(ident(ix.Name) + " ON " + ident(table) + " (" + identList(ix.Columns) + ")")

	return b.String()
}

func dropIndex(name string, concurrently bool) string {
	if concurrently {
		return "DROP INDEX CONCURRENTLY " + ident(name)
	}

	return "DROP INDEX " + ident(name)
}

func alterTable(table, action string) string {
	return "ALTER TABLE " + ident(table) + " " + action
}
