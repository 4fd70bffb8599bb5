package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migrate-ledger/internal/runner"
)

var rollbackCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "rollback [migrationId]",
	Short: "Roll back applied migrations",
	Long: `Without an argument, roll back the most recently applied migration.
With a migration id, roll back every migration applied after it, newest
first; the named migration stays applied. Migrations without down SQL are
skipped with a warning.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRollback,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rollbackCmd.Flags().Bool("dry-run", false, "show what would be rolled back without executing")
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	cfg := AppConfig
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var target string
	if len(args) == 1 {
		target = args[0]
	}

	files, err := loadMigrations(cfg)
	if err != nil {
		return err
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

	if err := r.Rollback(ctx, files, target); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nRollback complete: %d rolled back, %d skipped.\n", progress.completed, progress.skipped)

	return nil
}
