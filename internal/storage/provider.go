// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileInfo describes a vault entry.
type FileInfo struct {
	IsFile     bool
	IsDir      bool
	ModifiedAt time.Time
	CreatedAt  time.Time
}

// Provider is the read-only view of a vault the engine scans. Paths are
// slash-separated and relative to the provider root; "" is the root itself.
type Provider interface {
	// ReadFile returns the raw bytes of the file at path.
	ReadFile(path string) ([]byte, error)
	// ReadDir returns the sorted entry names of the directory at path.
	ReadDir(path string) ([]string, error)
	// Stat describes the entry at path.
	Stat(path string) (FileInfo, error)
	// Exists reports whether anything lives at path.
	Exists(path string) bool
}
