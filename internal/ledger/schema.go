package ledger

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultTable is the ledger table used when none is configured.
const DefaultTable = "schema_migrations"

// createSchemaSQL is the DDL for the ledger table; %s is the quoted table name.
const createSchemaSQL = `CREATE TABLE IF NOT EXISTS %s (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    checksum    TEXT NOT NULL
)`

// quoteTable turns "table" or "schema.table" into a sanitized identifier.
func quoteTable(name string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}

	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidTableName, name)
		}
	}

	return pgx.Identifier(parts).Sanitize(), nil
}
