package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqasim81/migrate-ledger/internal/config"
	"github.com/aqasim81/migrate-ledger/internal/database"
	"github.com/aqasim81/migrate-ledger/internal/ledger"
	"github.com/aqasim81/migrate-ledger/internal/logging"
	"github.com/aqasim81/migrate-ledger/internal/migration"
	"github.com/aqasim81/migrate-ledger/internal/runner"
)

// session holds the open pool and ledger shared by the database commands.
type session struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	ledger *ledger.Ledger
}

func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}

	return ctx
}

// loadMigrations validates cfg and reads the migration files. It runs
// before any connection attempt so configuration problems fail fast.
func loadMigrations(cfg *config.Config) ([]migration.File, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	files, err := migration.LoadFromDir(cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: loading migrations: %w", config.ErrConfig, err)
	}

	return files, nil
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	logging.FromContext(ctx).Info("connecting to database",
		"url", config.RedactURL(cfg.DatabaseURL),
		"ledger_table", cfg.LedgerTable,
	)

	pool, err := database.NewPool(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		Password: cfg.DatabasePassword,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	l, err := ledger.New(pool, cfg.LedgerTable)
	if err != nil {
		pool.Close()

		return nil, err
	}

	return &session{cfg: cfg, pool: pool, ledger: l}, nil
}

func (s *session) Close() {
	s.pool.Close()
}

// runner builds a Runner over the session, logging through the command
// logger and adding the advisory lock when the configuration asks for it.
func (s *session) runner(ctx context.Context, opts ...runner.Option) *runner.Runner {
	exec := runner.NewPoolExecutor(s.pool,
		runner.WithLockTimeout(s.cfg.LockTimeout),
		runner.WithStatementTimeout(s.cfg.StatementTimeout),
	)

	logger := logging.FromContext(ctx).With("ledger_table", s.ledger.Table())
	opts = append([]runner.Option{runner.WithLogger(logger)}, opts...)

	if s.cfg.UseLock {
		opts = append(opts, runner.WithLock(advisoryLock(s.pool, s.ledger.Table())))
	}

	return runner.New(s.ledger, exec, opts...)
}

func advisoryLock(pool *pgxpool.Pool, table string) runner.LockFunc {
	id := database.LockID(table)

	return func(ctx context.Context) (runner.Releaser, error) {
		h, err := database.TryAcquireLock(ctx, pool, id)
		if err != nil {
			return nil, err
		}

		return h, nil
	}
}

// progressPrinter writes one line per finished migration and counts the outcomes.
type progressPrinter struct {
	out       io.Writer
	completed int
	skipped   int
}

func (p *progressPrinter) handle(ev runner.ProgressEvent) {
	verb := "Applying"
	if ev.Direction == runner.DirectionDown {
		verb = "Rolling back"
	}

	switch ev.Status {
	case runner.StatusStarting:
		fmt.Fprintf(p.out, "  %s %s ... ", verb, ev.ID)
	case runner.StatusCompleted:
		fmt.Fprintf(p.out, "done (%s)\n", ev.Duration.Truncate(time.Millisecond))
		p.completed++
	case runner.StatusSkipped:
		fmt.Fprintf(p.out, "  Skipping %s (%s)\n", ev.ID, ev.Reason)
		p.skipped++
	case runner.StatusFailed:
		fmt.Fprintf(p.out, "FAILED\n")
		fmt.Fprintf(p.out, "    Error: %v\n", ev.Error)
	}
}
