package migration

// Pending returns the files whose ID is not in applied, keeping the order
// of files.
func Pending(files []File, applied []string) []File {
	done := make(map[string]struct{}, len(applied))
	for _, id := range applied {
		done[id] = struct{}{}
	}

	pending := make([]File, 0, len(files))

	for _, f := range files {
		if _, ok := done[f.ID]; ok {
			continue
		}

		pending = append(pending, f)
	}

	return pending
}

// Index maps each file ID to its file.
func Index(files []File) map[string]*File {
	index := make(map[string]*File, len(files))
	for i := range files {
		index[files[i].ID] = &files[i]
	}

	return index
}
