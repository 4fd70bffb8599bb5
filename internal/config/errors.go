package config

import (
	"errors"
	"fmt"
)

// ErrConfig is the root of every configuration failure.
var ErrConfig = errors.New("configuration error")

// ErrDatabaseURLRequired is returned when no database endpoint is configured.
var ErrDatabaseURLRequired = fmt.Errorf(
	"%w: database URL is required (set --database-url, MIGRATE_DATABASE_URL, or database_url in config)",
	ErrConfig,
)

// ErrCredentialRequired is returned when neither the URL nor the environment
// supplies a database password.
var ErrCredentialRequired = fmt.Errorf(
	"%w: database credential is required (set MIGRATE_DATABASE_PASSWORD or embed it in the database URL)",
	ErrConfig,
)
