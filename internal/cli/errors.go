package cli

import (
	"errors"

	"github.com/aqasim81/migrate-ledger/internal/config"
	"github.com/aqasim81/migrate-ledger/internal/database"
	"github.com/aqasim81/migrate-ledger/internal/ledger"
	"github.com/aqasim81/migrate-ledger/internal/runner"
)

// Error kinds reported alongside a failed command.
const (
	KindConfig     = "config"
	KindExecution  = "execution"
	KindLedger     = "ledger"
	KindUnexpected = "unexpected"
)

// ErrorKind classifies err into one of the Kind labels for logging.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, config.ErrConfig),
		errors.Is(err, database.ErrInvalidDatabaseURL),
		errors.Is(err, ledger.ErrInvalidTableName):
		return KindConfig
	case errors.Is(err, runner.ErrExecution),
		errors.Is(err, database.ErrConnectionFailed),
		errors.Is(err, database.ErrLockNotAcquired):
		return KindExecution
	case errors.Is(err, ledger.ErrLedger),
		errors.Is(err, runner.ErrTargetNotApplied):
		return KindLedger
	}

	return KindUnexpected
}
