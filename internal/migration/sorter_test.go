package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/migrate-ledger/internal/migration"
)

func makeFiles(t *testing.T, fileIDs ...string) []migration.File {
	t.Helper()

	fs := make([]migration.File, len(fileIDs))
	for i, id := range fileIDs {
		fs[i] = migration.File{ID: id, Name: id + ".sql"}
	}

	return fs
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted stays sorted",
			input:    []string{"001_a", "002_b", "003_c"},
			expected: []string{"001_a", "002_b", "003_c"},
		},
		{
			name:     "reverse order is corrected",
			input:    []string{"003_c", "002_b", "001_a"},
			expected: []string{"001_a", "002_b", "003_c"},
		},
		{
			name:     "lexical, not numeric",
			input:    []string{"10_x", "9_y", "010_z"},
			expected: []string{"010_z", "10_x", "9_y"},
		},
		{
			name:     "empty slice returns empty",
			input:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ids(migration.Sort(makeFiles(t, tt.input...))))
		})
	}
}

func TestSort_doesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	input := makeFiles(t, "003", "001", "002")
	migration.Sort(input)

	assert.Equal(t, []string{"003", "001", "002"}, ids(input))
}
