package runner

import (
	"context"

	"github.com/aqasim81/migrate-ledger/internal/ledger"
	"github.com/aqasim81/migrate-ledger/internal/migration"
)

// AppliedEntry is one ledger row as seen against the files on disk.
type AppliedEntry struct {
	ledger.Record

	// Modified is set when the file's checksum no longer matches the one
	// recorded at apply time. It is reported, never enforced.
	Modified bool
	// Missing is set when the migration's file is no longer on disk.
	Missing bool
}

// Report lists applied migrations (oldest first) and pending files (file order).
type Report struct {
	Applied []AppliedEntry
	Pending []migration.File
}

// Status compares the ledger with files. It never writes to the database.
func (r *Runner) Status(ctx context.Context, files []migration.File) (*Report, error) {
	applied, err := r.ledger.ListApplied(ctx)
	if err != nil {
		return nil, err
	}

	index := migration.Index(files)
	report := &Report{
		Applied: make([]AppliedEntry, 0, len(applied)),
		Pending: migration.Pending(files, ledger.AppliedIDs(applied)),
	}

	for _, rec := range applied {
		entry := AppliedEntry{Record: rec}

		if f, ok := index[rec.ID]; ok {
			entry.Modified = f.Checksum != rec.Checksum
		} else {
			entry.Missing = true
		}

		report.Applied = append(report.Applied, entry)
	}

	return report, nil
}
