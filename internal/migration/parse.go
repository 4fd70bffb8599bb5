package migration

import "strings"

// Section markers recognised inside a migration file.
const (
	UpMarker   = "-- +migrate Up"
	DownMarker = "-- +migrate Down"
)

// Parse splits raw file content into its up and down SQL blocks.
//
// The split happens on the first line equal to DownMarker. A leading
// UpMarker line is dropped from the up block. Without a Down marker the
// down block is empty. SQL is not validated.
func Parse(content string) (upSQL, downSQL string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	split := len(lines)

	for i, line := range lines {
		if strings.TrimSpace(line) == DownMarker {
			split = i
			break
		}
	}

	up := lines[:split]
	if first := firstNonBlank(up); first >= 0 && strings.TrimSpace(up[first]) == UpMarker {
		up = up[first+1:]
	}

	upSQL = strings.TrimSpace(strings.Join(up, "\n"))

	if split < len(lines) {
		downSQL = strings.TrimSpace(strings.Join(lines[split+1:], "\n"))
	}

	return upSQL, downSQL
}

func firstNonBlank(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			return i
		}
	}

	return -1
}
