package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultMigrationsDir = "./migrations"
	DefaultLedgerTable   = "schema_migrations"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultFormat        = "text"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL      string
	DatabasePassword string
	MigrationsDir    string
	LedgerTable      string
	UseLock          bool
	LockTimeout      time.Duration
	StatementTimeout time.Duration
	LogLevel         string
	LogFormat        string
	Format           string
}

// yamlConfig is the raw YAML file representation with string durations.
// The password is deliberately absent: credentials come from the environment.
type yamlConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	MigrationsDir    string `yaml:"migrations_dir"`
	LedgerTable      string `yaml:"ledger_table"`
	Lock             *bool  `yaml:"lock"`
	LockTimeout      string `yaml:"lock_timeout"`
	StatementTimeout string `yaml:"statement_timeout"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
	Format           string `yaml:"format"`
}

// New returns a Config populated with default values. Timeouts default to
// zero, which leaves the server defaults in place.
func New() *Config {
	return &Config{
		MigrationsDir: DefaultMigrationsDir,
		LedgerTable:   DefaultLedgerTable,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Format:        DefaultFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.LedgerTable, raw.LedgerTable)
	setString(&cfg.LogLevel, raw.LogLevel)
	setString(&cfg.LogFormat, raw.LogFormat)
	setString(&cfg.Format, raw.Format)

	if raw.Lock != nil {
		cfg.UseLock = *raw.Lock
	}

	if raw.LockTimeout != "" {
		d, err := time.ParseDuration(raw.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing lock_timeout %q: %w", raw.LockTimeout, err)
		}

		cfg.LockTimeout = d
	}

	if raw.StatementTimeout != "" {
		d, err := time.ParseDuration(raw.StatementTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing statement_timeout %q: %w", raw.StatementTimeout, err)
		}

		cfg.StatementTimeout = d
	}

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// MergeEnv overrides config fields from MIGRATE_* environment variables.
// Unparseable durations and booleans leave the current value untouched.
func MergeEnv(cfg *Config) {
	setString(&cfg.DatabaseURL, os.Getenv("MIGRATE_DATABASE_URL"))
	setString(&cfg.DatabasePassword, os.Getenv("MIGRATE_DATABASE_PASSWORD"))
	setString(&cfg.MigrationsDir, os.Getenv("MIGRATE_MIGRATIONS_DIR"))
	setString(&cfg.LedgerTable, os.Getenv("MIGRATE_LEDGER_TABLE"))
	setString(&cfg.LogLevel, os.Getenv("MIGRATE_LOG_LEVEL"))
	setString(&cfg.LogFormat, os.Getenv("MIGRATE_LOG_FORMAT"))

	if v := os.Getenv("MIGRATE_LOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UseLock = b
		}
	}

	if v := os.Getenv("MIGRATE_LOCK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LockTimeout = d
		}
	}

	if v := os.Getenv("MIGRATE_STATEMENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StatementTimeout = d
		}
	}
}

// Validate checks that the database endpoint and credential are present.
// Only commands that connect to the database call it.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}

	if c.DatabasePassword == "" && !hasEmbeddedPassword(c.DatabaseURL) {
		return ErrCredentialRequired
	}

	return nil
}

// hasEmbeddedPassword reports whether a URL or keyword/value DSN carries a
// password of its own.
func hasEmbeddedPassword(dsn string) bool {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil || u.User == nil {
			return false
		}

		_, ok := u.User.Password()

		return ok
	}

	_, found := redactKeywordDSN(dsn)

	return found
}
