package rules

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/Jake-Brewer/auto-commit/internal/model"
)

// DefaultIgnorePatterns are ignore rules that are safe for most
// projects: build output, dependency trees, caches, and editor or
// environment droppings.
var DefaultIgnorePatterns = []string{
	"node_modules/",
	"__pycache__/",
	"*.pyc",
	".pytest_cache/",
	".coverage",
	"*.log",
	".DS_Store",
	"Thumbs.db",
	".env",
	".venv/",
	"venv/",
	"env/",
	"dist/",
	"build/",
	"*.egg-info/",
	".mypy_cache/",
	".tox/",
}

// TrackedLister reports the files git currently tracks, relative to the
// repository root.
type TrackedLister interface {
	TrackedFiles(ctx context.Context) ([]string, error)
}

// SeedDefaultIgnores writes DefaultIgnorePatterns to the root ignore
// file, skipping patterns already present and patterns that match a file
// git currently tracks. It returns the patterns it added.
func (r *Resolver) SeedDefaultIgnores(ctx context.Context, git TrackedLister) ([]string, error) {
	tracked, err := git.TrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}

	ignoreFile := filepath.Join(r.root, IgnoreFile)

	var added []string
	for _, pattern := range DefaultIgnorePatterns {
		if r.anyTrackedMatch(pattern, tracked) {
			slog.Debug("skipping default ignore, tracked files match", "pattern", pattern)
			continue
		}
		if slices.Contains(r.patterns(ignoreFile), pattern) {
			continue
		}
		if err := r.AddPattern(pattern, model.ActionIgnore, model.ScopeGlobal, ""); err != nil {
			return added, err
		}
		added = append(added, pattern)
	}

	if len(added) > 0 {
		slog.Info("default ignore patterns added", "count", len(added), "file", ignoreFile)
	}
	return added, nil
}

func (r *Resolver) anyTrackedMatch(pattern string, tracked []string) bool {
	for _, path := range tracked {
		if r.matches(pattern, filepath.Join(r.root, path), r.root) {
			return true
		}
	}
	return false
}
