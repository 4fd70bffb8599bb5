package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Record is one row of the ledger table: a migration that has been applied
// and not rolled back.
type Record struct {
	ID        string
	Name      string
	AppliedAt time.Time
	Checksum  string
}

// DB is the subset of *pgxpool.Pool the ledger needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Ledger reads and writes the applied-migration table.
type Ledger struct {
	db    DB
	table string
	name  string
}

// New creates a Ledger over the given table. An empty table name selects
// DefaultTable.
func New(db DB, table string) (*Ledger, error) {
	if table == "" {
		table = DefaultTable
	}

	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}

	return &Ledger{db: db, table: quoted, name: table}, nil
}

// Table returns the unquoted table name.
func (l *Ledger) Table() string {
	return l.name
}

// EnsureTable creates the ledger table if it does not exist.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, fmt.Sprintf(createSchemaSQL, l.table)); err != nil {
		return fmt.Errorf("%w: creating table %s: %w", ErrLedger, l.name, err)
	}

	return nil
}

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// ListApplied returns every ledger row, oldest first. A ledger table that
// does not exist yet reads as empty, so status never has to create it.
func (l *Ledger) ListApplied(ctx context.Context) ([]Record, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, name, applied_at, checksum FROM `+l.table+` ORDER BY applied_at ASC, id ASC`,
	)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: querying applied migrations: %w", ErrLedger, err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		if scanErr := row.Scan(&r.ID, &r.Name, &r.AppliedAt, &r.Checksum); scanErr != nil {
			return Record{}, fmt.Errorf("scanning ledger row: %w", scanErr)
		}

		return r, nil
	})
	if err != nil {
		if isUndefinedTable(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: scanning applied migrations: %w", ErrLedger, err)
	}

	return records, nil
}

// Insert records a migration as applied. applied_at is set by the database.
func (l *Ledger) Insert(ctx context.Context, r Record) error {
	_, err := l.db.Exec(ctx,
		`INSERT INTO `+l.table+` (id, name, checksum) VALUES ($1, $2, $3)`,
		r.ID, r.Name, r.Checksum,
	)
	if err != nil {
		return fmt.Errorf("%w: recording migration %s: %w", ErrLedger, r.ID, err)
	}

	return nil
}

// Delete removes the ledger row for a rolled-back migration.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	tag, err := l.db.Exec(ctx, `DELETE FROM `+l.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting migration %s: %w", ErrLedger, id, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: migration %s: %w", ErrLedger, id, ErrRecordNotFound)
	}

	return nil
}

// AppliedIDs extracts the migration IDs from records, preserving order.
func AppliedIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}

	return ids
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
