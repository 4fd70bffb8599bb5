package migration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqasim81/migrate-ledger/internal/migration"
)

func TestLoadFromDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		setup       func(t *testing.T) string
		wantErr     bool
		errContains string
		check       func(t *testing.T, fs []migration.File)
	}{
		{
			name: "loads from testdata directory",
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join("..", "..", "testdata", "migrations")
			},
			check: func(t *testing.T, fs []migration.File) {
				t.Helper()
				require.Len(t, fs, 3)
				assert.Equal(t, []string{"001_init", "002_add_users", "003_add_index"}, ids(fs))

				first := fs[0]
				assert.Equal(t, "001_init.sql", first.Name)
				assert.Contains(t, first.UpSQL, "CREATE TABLE profiles")
				assert.NotContains(t, first.UpSQL, migration.UpMarker)
				assert.Equal(t, "DROP TABLE profiles;", first.DownSQL)
				assert.Len(t, first.Checksum, 64)
				assert.True(t, strings.HasSuffix(first.Path, "001_init.sql"))

				assert.Empty(t, fs[2].DownSQL)
			},
		},
		{
			name: "missing directory returns empty list",
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "nonexistent")
			},
			check: func(t *testing.T, fs []migration.File) {
				t.Helper()
				assert.Empty(t, fs)
			},
		},
		{
			name: "path that is a file returns error",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "plain.txt", "x")

				return filepath.Join(dir, "plain.txt")
			},
			wantErr:     true,
			errContains: "reading migrations directory",
		},
		{
			name: "non-sql files and subdirectories are skipped",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "README.md", "# readme")
				writeFile(t, dir, "notes.txt", "notes")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.sql"), 0o755))

				return dir
			},
			check: func(t *testing.T, fs []migration.File) {
				t.Helper()
				assert.Empty(t, fs)
			},
		},
		{
			name: "files are sorted lexicographically",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "20240301120000_c.sql", "SELECT 3;")
				writeFile(t, dir, "20240101120000_a.sql", "SELECT 1;")
				writeFile(t, dir, "20240201120000_b.sql", "SELECT 2;")

				return dir
			},
			check: func(t *testing.T, fs []migration.File) {
				t.Helper()
				assert.Equal(t, []string{"20240101120000_a", "20240201120000_b", "20240301120000_c"}, ids(fs))
			},
		},
		{
			name: "checksum covers raw content",
			setup: func(t *testing.T) string {
				t.Helper()
				dir := t.TempDir()
				writeFile(t, dir, "001_t.sql", "-- +migrate Up\nSELECT 1;\n")

				return dir
			},
			check: func(t *testing.T, fs []migration.File) {
				t.Helper()
				require.Len(t, fs, 1)
				assert.Equal(t, migration.ComputeChecksum("-- +migrate Up\nSELECT 1;\n"), fs[0].Checksum)
				assert.Equal(t, "SELECT 1;", fs[0].UpSQL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := tt.setup(t)
			fs, err := migration.LoadFromDir(dir)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, fs)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func ids(fs []migration.File) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.ID
	}

	return out
}
