package parser //nolint:revive // intentional: does not conflict with go/parser in internal package

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseResult holds the parsed statements and the original SQL.
type ParseResult struct {
	Stmts []*pg_query.RawStmt
	SQL   string

	parsed string // trimmed text the statement locations refer to
}

// Parse parses a PostgreSQL SQL string with the real server grammar.
// Empty or whitespace-only input yields zero statements.
func Parse(sql string) (*ParseResult, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &ParseResult{SQL: sql}, nil
	}

	tree, err := pg_query.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parsing SQL: %w", err)
	}

	return &ParseResult{
		Stmts:  tree.Stmts,
		SQL:    sql,
		parsed: trimmed,
	}, nil
}

// Statements returns the source text of each statement, trimmed, in order.
func (r *ParseResult) Statements() []string {
	out := make([]string, 0, len(r.Stmts))

	for _, stmt := range r.Stmts {
		start := int(stmt.GetStmtLocation())
		end := len(r.parsed)

		if n := int(stmt.GetStmtLen()); n > 0 && start+n <= end {
			end = start + n
		}

		if start >= end {
			continue
		}

		text := strings.TrimSpace(r.parsed[start:end])
		text = strings.TrimSpace(strings.TrimSuffix(text, ";"))

		if text != "" {
			out = append(out, text)
		}
	}

	return out
}

// NeedsNoTransaction reports whether any statement must run outside a
// transaction block: CREATE INDEX CONCURRENTLY, DROP INDEX CONCURRENTLY,
// and VACUUM.
func (r *ParseResult) NeedsNoTransaction() bool {
	for _, stmt := range r.Stmts {
		switch node := stmt.Stmt.GetNode().(type) {
		case *pg_query.Node_IndexStmt:
			if node.IndexStmt.GetConcurrent() {
				return true
			}
		case *pg_query.Node_DropStmt:
			if node.DropStmt.GetConcurrent() {
				return true
			}
		case *pg_query.Node_VacuumStmt:
			return true
		}
	}

	return false
}
