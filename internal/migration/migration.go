package migration

import (
	"crypto/sha256"
	"encoding/hex"
)

// File is a single migration file loaded from disk.
type File struct {
	ID       string // filename without the .sql extension, e.g. "001_init"
	Name     string // "001_init.sql"
	UpSQL    string // text before the Down marker, Up marker stripped
	DownSQL  string // text after the Down marker (empty if none)
	Checksum string // SHA-256 hex digest of the raw file content
	Path     string
}

// HasDown reports whether the file carries a non-empty Down section.
func (f *File) HasDown() bool {
	return f.DownSQL != ""
}

// ComputeChecksum returns the SHA-256 hex digest of the given content.
func ComputeChecksum(content string) string {
	h := sha256.Sum256([]byte(content))

	return hex.EncodeToString(h[:])
}
