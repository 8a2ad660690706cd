package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repository is a git working tree.
type Repository struct {
	path string
}

// Discover finds the repository containing path by walking up to the first
// directory with a .git entry.
func Discover(path string) (*Repository, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, ErrGitNotFound
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}

	current := absPath
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return &Repository{path: current}, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrRepositoryNotFound
		}
		current = parent
	}
}

// Path returns the repository root path.
func (r *Repository) Path() string {
	return r.path
}

// DiffFile returns the unified diff of path's working tree contents
// against the index, without context lines. An unmodified file gives an
// empty diff.
func (r *Repository) DiffFile(ctx context.Context, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	rel, err := filepath.Rel(r.path, abs)
	if err != nil {
		return nil, fmt.Errorf("relative path: %w", err)
	}
	return r.git(ctx, "diff", "--no-color", "--no-ext-diff", "-U0", "--", filepath.ToSlash(rel))
}

// git executes a git command in the repository.
func (r *Repository) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
