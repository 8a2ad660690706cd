// Package app wires a buffer, its annotation models and the gutter into a
// terminal viewer.
package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrQuit signals that the viewer should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrNoLine indicates a line outside the buffer.
	ErrNoLine = errors.New("line out of range")
)

// FileError is an error reading or inspecting the viewed file.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
