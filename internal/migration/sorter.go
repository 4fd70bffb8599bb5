package migration

import "sort"

// Sort returns a new slice of files sorted by ID in lexicographic order.
// Filenames carry a timestamp or sequence prefix, so lexical order is
// apply order.
func Sort(files []File) []File {
	sorted := make([]File, len(files))
	copy(sorted, files)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	return sorted
}
