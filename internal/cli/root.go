package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migrate-ledger/internal/config"
	"github.com/aqasim81/migrate-ledger/internal/logging"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// rootCmd is the base command for the migrate CLI. Any argument that is not
// a subcommand falls through to it and prints usage.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "migrate",
	Version: version,
	Short:   "Ledger-backed PostgreSQL migration CLI",
	Long: `migrate applies the SQL files in a migrations directory to a PostgreSQL
database one at a time, in filename order, and records each one in a ledger
table. Files are split into up and down SQL on the "-- +migrate Down" line.

The database endpoint comes from MIGRATE_DATABASE_URL and the credential
from MIGRATE_DATABASE_PASSWORD.`,
	Args:               cobra.ArbitraryArgs,
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.HasParent() {
			return nil
		}

		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", "migrate.yml", "path to configuration file")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	rootCmd.PersistentFlags().String("migrations-dir", "", "path to migration files")
	rootCmd.PersistentFlags().String("ledger-table", "", "ledger table name, optionally schema-qualified")
	rootCmd.PersistentFlags().Bool("lock", false, "hold a PostgreSQL advisory lock while migrating")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
}

// Execute runs the root command. Called from main.
func Execute() {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	logger := logging.FromContext(cmd.Context())
	logger.Error("command failed", "command", cmd.Name(), "error_kind", ErrorKind(err), "error", err)

	os.Exit(1)
}

// setup loads configuration and attaches a logger to the command context.
func setup(cmd *cobra.Command) error {
	if err := loadConfig(cmd); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  AppConfig.LogLevel,
		Format: AppConfig.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfig, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(logging.ContextWithLogger(ctx, logger.With("command", cmd.Name())))

	return nil
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("%w: loading configuration: %w", config.ErrConfig, err)
	}

	config.MergeEnv(cfg)
	mergeFlags(cmd, cfg)

	AppConfig = cfg

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("database-url") {
		cfg.DatabaseURL, _ = flags.GetString("database-url")
	}

	if flags.Changed("migrations-dir") {
		cfg.MigrationsDir, _ = flags.GetString("migrations-dir")
	}

	if flags.Changed("ledger-table") {
		cfg.LedgerTable, _ = flags.GetString("ledger-table")
	}

	if flags.Changed("lock") {
		cfg.UseLock, _ = flags.GetBool("lock")
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
}
