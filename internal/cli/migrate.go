package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migrate-ledger/internal/runner"
)

var migrateCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long: `Apply every migration file not yet recorded in the ledger, in filename
order. The run stops at the first failure; migrations applied before it
stay applied.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	migrateCmd.Flags().Bool("dry-run", false, "show what would be applied without executing")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := loadMigrations(cfg)
	if err != nil {
		return err
	}

	// An empty directory still connects so the ledger table exists afterwards.
	if len(files) == 0 {
		fmt.Fprintln(out, "No migration files found.")
	}

	ctx := commandContext(cmd.Context())

	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	progress := &progressPrinter{out: out}
	r := s.runner(ctx,
		runner.WithDryRun(dryRun),
		runner.WithProgressCallback(progress.handle),
	)

	if dryRun {
		fmt.Fprintln(out, "--- DRY RUN (no changes will be made) ---")
	}

	if err := r.Migrate(ctx, files); err != nil {
		return err
	}

	if dryRun {
		fmt.Fprintf(out, "\nDry run complete: %d migration(s) would be applied.\n", progress.skipped)
	} else {
		fmt.Fprintf(out, "\nMigrate complete: %d applied.\n", progress.completed)
	}

	return nil
}
