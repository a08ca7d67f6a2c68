// Package gitops shells out to the git binary for the small set of
// operations the commit pipeline needs.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Repo runs git commands inside one working tree.
type Repo struct {
	dir string
}

// NewRepo wraps the working tree rooted at dir.
func NewRepo(dir string) *Repo {
	return &Repo{dir: dir}
}

// Dir returns the working tree directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Run executes git with the given arguments in the repository directory
// and returns the trimmed combined output. Failures carry the output so
// callers can log what git actually said.
func (r *Repo) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir

	out, err := cmd.CombinedOutput()
	output := strings.TrimRight(string(out), " \t\r\n")
	if err != nil {
		return output, fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), output, err)
	}
	return output, nil
}

// IsRepo reports whether the directory sits inside a git work tree.
func (r *Repo) IsRepo(ctx context.Context) bool {
	out, err := r.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Stage adds a single path to the index.
func (r *Repo) Stage(ctx context.Context, path string) error {
	_, err := r.Run(ctx, "add", "--", path)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repo) HasStagedChanges(ctx context.Context) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--quiet")
	cmd.Dir = r.dir

	err := cmd.Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("git diff --cached --quiet: %w", err)
}

// StagedDiff returns the diff of everything currently staged.
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	return r.Run(ctx, "diff", "--cached")
}

// StagedFiles lists the paths with staged changes, relative to the
// repository root.
func (r *Repo) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := r.Run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Commit records the staged changes with the given message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("empty commit message")
	}
	_, err := r.Run(ctx, "commit", "-m", message)
	return err
}

// TrackedFiles lists the paths git tracks, relative to the repository
// root.
func (r *Repo) TrackedFiles(ctx context.Context) ([]string, error) {
	out, err := r.Run(ctx, "ls-files")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
