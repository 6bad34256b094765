// Package parser wraps pg_query_go for the handful of things sqlaltery needs
// from the PostgreSQL grammar: loading schema DDL, inspecting hand-written
// migration SQL and round-tripping column expressions.
package parser //nolint:revive // internal package, no clash with go/parser in practice

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Script is a parsed SQL script. Source is the trimmed text that was handed to
// the parser; statement locations are offsets into it.
type Script struct {
	Statements []*pg_query.RawStmt
	Source     string
}

// Parse parses one or more ;-separated statements. Blank input yields a
// Script without statements.
func Parse(sql string) (*Script, error) {
	src := strings.TrimSpace(sql)
	if src == "" {
		return &Script{}, nil
	}

	tree, err := pg_query.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &Script{Statements: tree.GetStmts(), Source: src}, nil
}

// Len is the number of statements.
func (s *Script) Len() int { return len(s.Statements) }

// Text returns the source of statement i, including its terminating
// semicolon when there is one.
func (s *Script) Text(i int) string {
	if i < 0 || i >= len(s.Statements) {
		return ""
	}

	start := int(s.Statements[i].GetStmtLocation())

	end := len(s.Source)
	if i+1 < len(s.Statements) {
		end = int(s.Statements[i+1].GetStmtLocation())
	}

	if start >= end || end > len(s.Source) {
		return ""
	}

	return strings.TrimSpace(s.Source[start:end])
}

// Relation renders a possibly schema-qualified relation name.
func Relation(rv *pg_query.RangeVar) string {
	switch {
	case rv == nil:
		return "<unknown>"
	case rv.GetSchemaname() != "":
		return rv.GetSchemaname() + "." + rv.GetRelname()
	default:
		return rv.GetRelname()
	}
}
