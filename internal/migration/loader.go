package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".sql"

// LoadFromDir reads every .sql file in dir and returns them sorted by
// filename. A missing directory yields an empty list rather than an error.
func LoadFromDir(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var files []File

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}

		f, err := readFile(dir, entry.Name())
		if err != nil {
			return nil, err
		}

		files = append(files, f)
	}

	return Sort(files), nil
}

// readFile reads one migration file and splits it into its sections.
func readFile(dir, name string) (File, error) {
	path := filepath.Join(dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading migration file %s: %w", path, err)
	}

	content := string(data)
	upSQL, downSQL := Parse(content)

	return File{
		ID:       strings.TrimSuffix(name, fileExt),
		Name:     name,
		UpSQL:    upSQL,
		DownSQL:  downSQL,
		Checksum: ComputeChecksum(content),
		Path:     path,
	}, nil
}
