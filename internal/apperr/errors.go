// Package apperr defines the typed errors returned by the engine.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinels used by the note service so adapters can map outcomes to
// responses. The engine itself reports absence through ordinary return values.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)

// RootAccessError means the configured vault root could not be listed.
type RootAccessError struct {
	Path string
	Err  error
}

func (e *RootAccessError) Error() string {
	return fmt.Sprintf("vault root %q is not accessible: %v", e.Path, e.Err)
}

func (e *RootAccessError) Unwrap() error { return e.Err }

// FileError is a storage failure on one file or sub-directory.
type FileError struct {
	Op   string // "read", "stat" or "list"
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// ParseError means a file was read but its content could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
