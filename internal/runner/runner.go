package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aqasim81/migrate-ledger/internal/ledger"
	"github.com/aqasim81/migrate-ledger/internal/logging"
	"github.com/aqasim81/migrate-ledger/internal/migration"
)

// Progress status constants reported via ProgressEvent.
const (
	StatusStarting  = "starting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Directions a ProgressEvent can refer to.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// ProgressEvent is emitted for each migration the runner touches.
type ProgressEvent struct {
	ID        string
	File      *migration.File // nil when the file is no longer on disk
	Direction string
	Status    string
	Reason    string // why a migration was skipped
	Duration  time.Duration
	Error     error
}

// Ledger abstracts the applied-migration table for testability.
type Ledger interface {
	EnsureTable(ctx context.Context) error
	ListApplied(ctx context.Context) ([]ledger.Record, error)
	Insert(ctx context.Context, r ledger.Record) error
	Delete(ctx context.Context, id string) error
}

// Executor runs one block of SQL against the target database.
type Executor interface {
	Exec(ctx context.Context, sql string) error
}

// Releaser is returned by a LockFunc and must be released when done.
type Releaser interface {
	Release(ctx context.Context) error
}

// LockFunc acquires exclusive access for the duration of a run.
type LockFunc func(ctx context.Context) (Releaser, error)

// Runner applies and reverts migrations one at a time against a ledger.
// It is not safe for concurrent use.
type Runner struct {
	ledger     Ledger
	exec       Executor
	dryRun     bool
	onProgress func(ProgressEvent)
	acquire    LockFunc
	logger     *slog.Logger
	state      State
}

// Option configures a Runner.
type Option func(*Runner)

// WithDryRun reports what would run without executing SQL or writing the ledger.
func WithDryRun(b bool) Option {
	return func(r *Runner) { r.dryRun = b }
}

// WithProgressCallback sets a function called for each migration processed.
func WithProgressCallback(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithLock makes Migrate and Rollback hold the lock returned by fn.
func WithLock(fn LockFunc) Option {
	return func(r *Runner) { r.acquire = fn }
}

// WithLogger sets the runner's logger. Without it the runner logs through
// the logger carried in the context passed to each call.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner over the given ledger and executor.
func New(l Ledger, exec Executor, opts ...Option) *Runner {
	r := &Runner{
		ledger: l,
		exec:   exec,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// State returns the state reached by the most recent Migrate call.
func (r *Runner) State() State {
	return r.state
}

// Migrate applies every file not yet in the ledger, in file order. The
// first failure stops the run; migrations applied before it stay applied.
func (r *Runner) Migrate(ctx context.Context, files []migration.File) (err error) {
	log := r.log(ctx).With("operation", "migrate")
	r.state = StateIdle

	defer func() {
		if err != nil {
			r.state = StateFailed
		}
	}()

	unlock, err := r.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if !r.dryRun {
		if err := r.ledger.EnsureTable(ctx); err != nil {
			return err
		}
	}

	r.state = StateTableEnsured

	applied, err := r.ledger.ListApplied(ctx)
	if err != nil {
		return err
	}

	pending := migration.Pending(files, ledger.AppliedIDs(applied))
	r.state = StateDiffed

	log.Info("computed pending migrations", "files", len(files), "applied", len(applied), "pending", len(pending))

	for i := range pending {
		r.state = StateApplying

		if err := r.applyOne(ctx, log, &pending[i]); err != nil {
			return err
		}
	}

	r.state = StateDone

	return nil
}

// applyOne executes a file's up SQL and then records it in the ledger.
func (r *Runner) applyOne(ctx context.Context, log *slog.Logger, f *migration.File) error {
	if r.dryRun {
		r.fireProgress(ProgressEvent{ID: f.ID, File: f, Direction: DirectionUp, Status: StatusSkipped, Reason: "dry run"})
		return nil
	}

	r.fireProgress(ProgressEvent{ID: f.ID, File: f, Direction: DirectionUp, Status: StatusStarting})

	start := time.Now()
	execErr := r.exec.Exec(ctx, f.UpSQL)
	duration := time.Since(start)

	if execErr != nil {
		r.fireProgress(ProgressEvent{
			ID:        f.ID,
			File:      f,
			Direction: DirectionUp,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     execErr,
		})
		log.Error("migration failed", "migration", f.ID, "error", execErr)

		return fmt.Errorf("executing migration %s: %w: %w", f.ID, ErrExecution, execErr)
	}

	if err := r.ledger.Insert(ctx, ledger.Record{ID: f.ID, Name: f.Name, Checksum: f.Checksum}); err != nil {
		log.Error("migration applied but not recorded", "migration", f.ID, "error", err)

		return fmt.Errorf("migration %s applied but not recorded: %w", f.ID, err)
	}

	log.Info("migration applied", "migration", f.ID, "duration_ms", duration.Milliseconds())
	r.fireProgress(ProgressEvent{ID: f.ID, File: f, Direction: DirectionUp, Status: StatusCompleted, Duration: duration})

	return nil
}

// Rollback reverts applied migrations using the down SQL of their files.
// With an empty target only the most recently applied migration is
// reverted. Otherwise every migration applied after target is reverted,
// newest first, and target itself stays applied. Migrations without down
// SQL are skipped with a warning and keep their ledger row.
func (r *Runner) Rollback(ctx context.Context, files []migration.File, target string) error {
	log := r.log(ctx).With("operation", "rollback")

	unlock, err := r.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	applied, err := r.ledger.ListApplied(ctx)
	if err != nil {
		return err
	}

	selected, err := selectForRollback(applied, target)
	if err != nil {
		return err
	}

	if len(selected) == 0 {
		log.Info("nothing to roll back", "target", target)
		return nil
	}

	index := migration.Index(files)

	for i := len(selected) - 1; i >= 0; i-- {
		if err := r.revertOne(ctx, log, selected[i], index[selected[i].ID]); err != nil {
			return err
		}
	}

	return nil
}

// selectForRollback picks the ledger rows to revert, oldest first.
func selectForRollback(applied []ledger.Record, target string) ([]ledger.Record, error) {
	if len(applied) == 0 {
		if target != "" {
			return nil, fmt.Errorf("migration %s: %w", target, ErrTargetNotApplied)
		}

		return nil, nil
	}

	if target == "" {
		return applied[len(applied)-1:], nil
	}

	for i, rec := range applied {
		if rec.ID == target {
			return applied[i+1:], nil
		}
	}

	return nil, fmt.Errorf("migration %s: %w", target, ErrTargetNotApplied)
}

// revertOne executes a migration's down SQL and then deletes its ledger row.
func (r *Runner) revertOne(ctx context.Context, log *slog.Logger, rec ledger.Record, f *migration.File) error {
	switch {
	case f == nil:
		log.Warn("skipping rollback: migration file not found", "migration", rec.ID)
		r.fireProgress(ProgressEvent{ID: rec.ID, Direction: DirectionDown, Status: StatusSkipped, Reason: "file not found"})

		return nil
	case !f.HasDown():
		log.Warn("skipping rollback: no down SQL", "migration", rec.ID)
		r.fireProgress(ProgressEvent{ID: rec.ID, File: f, Direction: DirectionDown, Status: StatusSkipped, Reason: "no down SQL"})

		return nil
	case r.dryRun:
		r.fireProgress(ProgressEvent{ID: rec.ID, File: f, Direction: DirectionDown, Status: StatusSkipped, Reason: "dry run"})

		return nil
	}

	r.fireProgress(ProgressEvent{ID: rec.ID, File: f, Direction: DirectionDown, Status: StatusStarting})

	start := time.Now()
	execErr := r.exec.Exec(ctx, f.DownSQL)
	duration := time.Since(start)

	if execErr != nil {
		r.fireProgress(ProgressEvent{
			ID:        rec.ID,
			File:      f,
			Direction: DirectionDown,
			Status:    StatusFailed,
			Duration:  duration,
			Error:     execErr,
		})
		log.Error("rollback failed", "migration", rec.ID, "error", execErr)

		return fmt.Errorf("rolling back migration %s: %w: %w", rec.ID, ErrExecution, execErr)
	}

	if err := r.ledger.Delete(ctx, rec.ID); err != nil {
		log.Error("migration reverted but ledger row kept", "migration", rec.ID, "error", err)

		return fmt.Errorf("migration %s reverted but not removed from ledger: %w", rec.ID, err)
	}

	log.Info("migration rolled back", "migration", rec.ID, "duration_ms", duration.Milliseconds())
	r.fireProgress(ProgressEvent{ID: rec.ID, File: f, Direction: DirectionDown, Status: StatusCompleted, Duration: duration})

	return nil
}

// lock takes the configured lock, if any, and returns its release function.
func (r *Runner) lock(ctx context.Context) (func(), error) {
	if r.acquire == nil {
		return func() {}, nil
	}

	l, err := r.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring migration lock: %w", err)
	}

	return func() {
		if err := l.Release(ctx); err != nil {
			r.log(ctx).Warn("releasing migration lock", "error", err)
		}
	}, nil
}

func (r *Runner) log(ctx context.Context) *slog.Logger {
	if r.logger != nil {
		return r.logger
	}

	return logging.FromContext(ctx)
}

func (r *Runner) fireProgress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}
