package git

import "errors"

// Error types for git operations.
var (
	// ErrRepositoryNotFound indicates no repository was found.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrGitNotFound indicates the git executable is not on PATH.
	ErrGitNotFound = errors.New("git executable not found")
)
