package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/aqasim81/migrate-ledger/internal/config"
	"github.com/aqasim81/migrate-ledger/internal/logging"
	"github.com/aqasim81/migrate-ledger/internal/runner"
)

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "status",
	Short: "Show migration status",
	Long: `Display applied migrations (oldest first) and pending migrations
(filename order). Applied migrations whose file changed since they ran are
flagged as modified. Status never writes to the database.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	statusCmd.Flags().String("format", config.DefaultFormat, "output format (text, json)")
	rootCmd.AddCommand(statusCmd)
}

// runStatus exits zero once configuration is valid: a failed database read
// is logged rather than returned.
func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := AppConfig

	format := cfg.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}

	if format != "text" && format != "json" {
		return fmt.Errorf("%w: unknown status format %q (want text or json)", config.ErrConfig, format)
	}

	files, err := loadMigrations(cfg)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd.Context())
	logger := logging.FromContext(ctx)

	s, err := openSession(ctx, cfg)
	if err != nil {
		if ErrorKind(err) == KindConfig {
			return err
		}

		logger.Error("status unavailable", "error_kind", ErrorKind(err), "error", err)

		return nil
	}
	defer s.Close()

	report, err := s.runner(ctx).Status(ctx, files)
	if err != nil {
		logger.Error("status unavailable", "error_kind", ErrorKind(err), "error", err)
		return nil
	}

	if format == "json" {
		return printStatusJSON(cmd.OutOrStdout(), report)
	}

	printStatusText(cmd.OutOrStdout(), report)

	return nil
}

func printStatusText(out io.Writer, report *runner.Report) {
	fmt.Fprintf(out, "Applied (%d):\n", len(report.Applied))

	if len(report.Applied) == 0 {
		fmt.Fprintln(out, "  (none)")
	}

	for _, a := range report.Applied {
		note := ""

		switch {
		case a.Missing:
			note = "  [file missing]"
		case a.Modified:
			note = "  [modified]"
		}

		fmt.Fprintf(out, "  %-32s %-36s %s%s\n", a.ID, a.Name, a.AppliedAt.UTC().Format(time.DateTime), note)
	}

	fmt.Fprintf(out, "\nPending (%d):\n", len(report.Pending))

	if len(report.Pending) == 0 {
		fmt.Fprintln(out, "  (none)")
	}

	for _, p := range report.Pending {
		fmt.Fprintf(out, "  %-32s %s\n", p.ID, p.Name)
	}
}

type statusJSON struct {
	Applied []appliedJSON `json:"applied"`
	Pending []pendingJSON `json:"pending"`
}

type appliedJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"applied_at"`
	Checksum  string    `json:"checksum"`
	Modified  bool      `json:"modified"`
	Missing   bool      `json:"missing"`
}

type pendingJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Checksum string `json:"checksum"`
}

func printStatusJSON(out io.Writer, report *runner.Report) error {
	doc := statusJSON{
		Applied: make([]appliedJSON, 0, len(report.Applied)),
		Pending: make([]pendingJSON, 0, len(report.Pending)),
	}

	for _, a := range report.Applied {
		doc.Applied = append(doc.Applied, appliedJSON{
			ID:        a.ID,
			Name:      a.Name,
			AppliedAt: a.AppliedAt.UTC(),
			Checksum:  a.Checksum,
			Modified:  a.Modified,
			Missing:   a.Missing,
		})
	}

	for _, p := range report.Pending {
		doc.Pending = append(doc.Pending, pendingJSON{ID: p.ID, Name: p.Name, Checksum: p.Checksum})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}

	return nil
}
