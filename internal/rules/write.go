package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Jake-Brewer/auto-commit/internal/model"
)

// ErrReviewPattern is returned when a caller tries to write a pattern
// for the review action. Review is a classification outcome, not a rule.
var ErrReviewPattern = errors.New("review action has no rule file")

// AddPattern appends pattern to the rule file selected by action and
// scope, creating the file and its directory when absent. An exact
// duplicate line is left alone and reported as success. The touched
// file's cache entry is invalidated so the next classification sees the
// new rule.
func (r *Resolver) AddPattern(pattern string, action model.Action, scope model.RuleScope, scopeDir string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return errors.New("empty pattern")
	}

	var name string
	switch action {
	case model.ActionInclude:
		name = IncludeFile
	case model.ActionIgnore:
		name = IgnoreFile
	case model.ActionReview:
		return ErrReviewPattern
	default:
		return fmt.Errorf("invalid action %q", action)
	}

	dir, err := r.scopeTarget(scope, scopeDir)
	if err != nil {
		return err
	}
	file := filepath.Join(dir, name)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if slices.Contains(r.patterns(file), pattern) {
		slog.Debug("pattern already present", "file", file, "pattern", pattern)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating rule directory %s: %w", dir, err)
	}
	if err := appendLine(file, pattern); err != nil {
		return fmt.Errorf("appending to %s: %w", file, err)
	}

	r.mu.Lock()
	delete(r.cache, file)
	r.mu.Unlock()

	slog.Info("pattern added", "file", file, "pattern", pattern, "action", action)
	return nil
}

// scopeTarget resolves the directory whose rule file a pattern belongs
// in: the watch root for the global scope, the directory of scopeDir
// (or scopeDir itself when it is a directory) for the project scope.
// A project scope without a path falls back to the root.
func (r *Resolver) scopeTarget(scope model.RuleScope, scopeDir string) (string, error) {
	switch scope {
	case model.ScopeGlobal, model.RuleScope(""):
		return r.root, nil
	case model.ScopeProject:
		if scopeDir == "" {
			return r.root, nil
		}
		dir := scopeDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(r.root, dir)
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return filepath.Clean(dir), nil
		}
		return filepath.Dir(dir), nil
	default:
		return "", fmt.Errorf("invalid scope %q", scope)
	}
}

// appendLine appends line plus a newline, inserting a separator first
// when the file exists without a trailing newline.
func appendLine(path, line string) error {
	prefix := ""
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
		prefix = "\n"
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(prefix + line + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
