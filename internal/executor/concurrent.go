package executor

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/aqasim81/sqlaltery/internal/ops"
	"github.com/aqasim81/sqlaltery/internal/parser"
)

// RequiresNoTransaction reports whether any operation must run outside a
// transaction block: concurrent index builds and drops, including those
// written by hand in ExecuteSQL.
func RequiresNoTransaction(operations []ops.Operation) (bool, error) {
	for _, op := range operations {
		switch o := op.(type) {
		case *ops.AddIndex:
			if o.Concurrently {
				return true, nil
			}
		case *ops.DropIndex:
			if o.Concurrently {
				return true, nil
			}
		case *ops.ExecuteSQL:
			concurrent, err := containsConcurrentIndex(o.Forward)
			if err != nil || concurrent {
				return concurrent, err
			}
		}
	}

	return false, nil
}

// containsConcurrentIndex parses the SQL and returns true if any statement
// is a CREATE INDEX CONCURRENTLY or DROP INDEX CONCURRENTLY.
func containsConcurrentIndex(sql string) (bool, error) {
	result, err := parser.Parse(sql)
	if err != nil {
		return false, fmt.Errorf("parsing SQL for concurrent index detection: %w", err)
	}

	for _, stmt := range result.Statements {
		switch node := stmt.Stmt.Node.(type) {
		case *pg_query.Node_IndexStmt:
			if node.IndexStmt != nil && node.IndexStmt.Concurrent {
				return true, nil
			}
		case *pg_query.Node_DropStmt:
			if node.DropStmt != nil && node.DropStmt.Concurrent {
				return true, nil
			}
		}
	}

	return false, nil
}
