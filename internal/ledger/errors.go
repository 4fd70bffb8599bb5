package ledger

import "errors"

// ErrLedger wraps every failure reading or writing the ledger table.
var ErrLedger = errors.New("migration ledger")

// ErrRecordNotFound indicates no ledger row exists for the given migration ID.
var ErrRecordNotFound = errors.New("migration not found in ledger")

// ErrInvalidTableName indicates the configured ledger table name is unusable.
var ErrInvalidTableName = errors.New("invalid ledger table name")
