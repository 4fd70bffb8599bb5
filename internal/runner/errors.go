package runner

import "errors"

// ErrExecution wraps every failure running a migration's SQL.
var ErrExecution = errors.New("migration execution failed")

// ErrTargetNotApplied indicates a rollback target is not in the ledger.
var ErrTargetNotApplied = errors.New("rollback target is not applied")
