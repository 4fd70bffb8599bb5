package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migrate-ledger/internal/config"
)

func TestNew_returnsDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.New()

	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.DatabasePassword)
	assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
	assert.Equal(t, config.DefaultLedgerTable, cfg.LedgerTable)
	assert.False(t, cfg.UseLock)
	assert.Zero(t, cfg.LockTimeout)
	assert.Zero(t, cfg.StatementTimeout)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, config.DefaultFormat, cfg.Format)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		allowMissing bool
		writeFile    bool
		wantErr      bool
		errContains  string
		check        func(t *testing.T, cfg *config.Config)
	}{
		{
			name:      "valid file parses all fields",
			writeFile: true,
			content: `database_url: "postgres://localhost:5432/testdb"
migrations_dir: "./db/migrations"
ledger_table: "app.migrations"
lock: true
lock_timeout: "10s"
statement_timeout: "1m"
log_level: "debug"
log_format: "json"
format: "json"
`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost:5432/testdb", cfg.DatabaseURL)
				assert.Equal(t, "./db/migrations", cfg.MigrationsDir)
				assert.Equal(t, "app.migrations", cfg.LedgerTable)
				assert.True(t, cfg.UseLock)
				assert.Equal(t, 10*time.Second, cfg.LockTimeout)
				assert.Equal(t, time.Minute, cfg.StatementTimeout)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
				assert.Equal(t, "json", cfg.Format)
			},
		},
		{
			name:      "partial file applies defaults",
			writeFile: true,
			content:   `database_url: "postgres://localhost/mydb"`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost/mydb", cfg.DatabaseURL)
				assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
				assert.Equal(t, config.DefaultLedgerTable, cfg.LedgerTable)
				assert.False(t, cfg.UseLock)
			},
		},
		{
			name:      "password key in file is ignored",
			writeFile: true,
			content:   `database_password: "hunter2"`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Empty(t, cfg.DatabasePassword)
			},
		},
		{
			name:         "missing file with allowMissing returns defaults",
			allowMissing: true,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
			},
		},
		{
			name:        "missing file without allowMissing returns error",
			wantErr:     true,
			errContains: "reading config file",
		},
		{
			name:        "invalid YAML returns error",
			writeFile:   true,
			content:     "{{{invalid yaml",
			wantErr:     true,
			errContains: "parsing config file",
		},
		{
			name:        "invalid lock_timeout duration returns error",
			writeFile:   true,
			content:     `lock_timeout: "not-a-duration"`,
			wantErr:     true,
			errContains: "parsing lock_timeout",
		},
		{
			name:        "invalid statement_timeout duration returns error",
			writeFile:   true,
			content:     `statement_timeout: "garbage"`,
			wantErr:     true,
			errContains: "parsing statement_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "migrate.yml")

			if tt.writeFile {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			cfg, err := config.Load(path, tt.allowMissing)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestMergeEnv_overridesFields(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "overrides database URL and password",
			env: map[string]string{
				"MIGRATE_DATABASE_URL":      "postgres://env-host/db",
				"MIGRATE_DATABASE_PASSWORD": "s3cret",
			},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://env-host/db", cfg.DatabaseURL)
				assert.Equal(t, "s3cret", cfg.DatabasePassword)
			},
		},
		{
			name: "overrides migrations dir and ledger table",
			env: map[string]string{
				"MIGRATE_MIGRATIONS_DIR": "/custom/path",
				"MIGRATE_LEDGER_TABLE":   "ops.ledger",
			},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "/custom/path", cfg.MigrationsDir)
				assert.Equal(t, "ops.ledger", cfg.LedgerTable)
			},
		},
		{
			name: "enables lock",
			env:  map[string]string{"MIGRATE_LOCK": "true"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.True(t, cfg.UseLock)
			},
		},
		{
			name: "invalid lock flag preserves original",
			env:  map[string]string{"MIGRATE_LOCK": "maybe"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.False(t, cfg.UseLock)
			},
		},
		{
			name: "overrides timeouts",
			env: map[string]string{
				"MIGRATE_LOCK_TIMEOUT":      "15s",
				"MIGRATE_STATEMENT_TIMEOUT": "2m",
			},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, 15*time.Second, cfg.LockTimeout)
				assert.Equal(t, 2*time.Minute, cfg.StatementTimeout)
			},
		},
		{
			name: "invalid duration preserves original",
			env:  map[string]string{"MIGRATE_LOCK_TIMEOUT": "not-valid"},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Zero(t, cfg.LockTimeout)
			},
		},
		{
			name: "overrides logging",
			env: map[string]string{
				"MIGRATE_LOG_LEVEL":  "warn",
				"MIGRATE_LOG_FORMAT": "json",
			},
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "warn", cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := config.New()
			config.MergeEnv(cfg)

			tt.check(t, cfg)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		password string
		wantErr  error
	}{
		{name: "missing URL", wantErr: config.ErrDatabaseURLRequired},
		{name: "URL without credential", url: "postgres://admin@db/app", wantErr: config.ErrCredentialRequired},
		{name: "password from environment", url: "postgres://admin@db/app", password: "s3cret"},
		{name: "password embedded in URL", url: "postgres://admin:s3cret@db/app"},
		{name: "keyword DSN with password", url: "host=db user=admin password=s3cret"},
		{name: "keyword DSN without password", url: "host=db user=admin", wantErr: config.ErrCredentialRequired},
		{name: "keyword DSN with quoted password", url: "host=db password = 'top secret' user=admin"},
		{name: "keyword DSN with passwordless key only", url: "host=db passfile=/tmp/pgpass", wantErr: config.ErrCredentialRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.New()
			cfg.DatabaseURL = tt.url
			cfg.DatabasePassword = tt.password

			err := cfg.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, config.ErrConfig)

				return
			}

			require.NoError(t, err)
		})
	}
}
