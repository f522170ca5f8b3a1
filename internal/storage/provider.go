// Package storage defines the directory abstraction used for inbox drops and
// file exports.
package storage

import "time"

// FileInfo describes one note file.
type FileInfo struct {
	Path      string // relative to the root
	Size      int64
	UpdatedAt time.Time
}

// Provider is the interface for note file operations.
type Provider interface {
	// Root returns the absolute directory paths are resolved against.
	Root() string
	// List returns every note file directly inside dir (relative to root).
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to root).
	Move(oldPath, newPath string) error
}
