// Package rules resolves hierarchical include and ignore rule files into
// classification actions for paths under a watched root.
package rules

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Jake-Brewer/auto-commit/internal/model"
)

// Rule file names recognized in every directory under the watch root.
const (
	IncludeFile = ".gitinclude"
	IgnoreFile  = ".gitignore"
)

// IsRuleFile reports whether name is a file the resolver reads patterns
// from.
func IsRuleFile(name string) bool {
	return name == IncludeFile || name == IgnoreFile
}

// PatternMatch records a pattern that claimed a path and the rule file
// that contributed it.
type PatternMatch struct {
	Pattern string
	File    string
}

// Evaluation is the full result of resolving one path against the rule
// hierarchy.
type Evaluation struct {
	Path    string
	Reason  string
	Include []PatternMatch
	Ignore  []PatternMatch
	Action  model.Action
}

// Resolver classifies paths using .gitinclude and .gitignore files found
// between the watch root and each path's parent directory. It is safe
// for concurrent use.
type Resolver struct {
	globs   *globCache
	cache   map[string][]string
	root    string
	mu      sync.RWMutex
	writeMu sync.Mutex
}

// New creates a Resolver for the given watch root. The root is made
// absolute so relative inputs resolve consistently.
func New(root string) *Resolver {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &Resolver{
		root:  abs,
		globs: newGlobCache(),
		cache: make(map[string][]string),
	}
}

// Root returns the absolute watch root the resolver was built with.
func (r *Resolver) Root() string {
	return r.root
}

// Classify resolves path to a single action. It never fails: paths no
// rule claims come back as ActionReview.
func (r *Resolver) Classify(path string) model.Action {
	return r.Evaluate(path).Action
}

// Evaluate resolves path like Classify but also reports which patterns
// matched, for review metadata and diagnostics.
//
// Every rule file from the watch root down to the path's parent
// contributes. A match anywhere in that chain counts: include and ignore
// matches together mean the rules disagree and the path needs review,
// and a path nothing claims needs review as well.
func (r *Resolver) Evaluate(path string) Evaluation {
	abs := r.absolute(path)
	eval := Evaluation{Path: abs}

	for _, dir := range r.chain(abs) {
		for _, name := range [2]string{IncludeFile, IgnoreFile} {
			file := filepath.Join(dir, name)
			for _, pattern := range r.patterns(file) {
				if !r.matches(pattern, abs, dir) {
					continue
				}
				m := PatternMatch{Pattern: pattern, File: file}
				if name == IncludeFile {
					eval.Include = append(eval.Include, m)
				} else {
					eval.Ignore = append(eval.Ignore, m)
				}
			}
		}
	}

	switch {
	case len(eval.Include) > 0 && len(eval.Ignore) > 0:
		eval.Action = model.ActionReview
		eval.Reason = "ambiguous include/ignore rules"
	case len(eval.Ignore) > 0:
		eval.Action = model.ActionIgnore
		eval.Reason = "matched ignore rules"
	case len(eval.Include) > 0:
		eval.Action = model.ActionInclude
		eval.Reason = "matched include rules"
	default:
		eval.Action = model.ActionReview
		eval.Reason = "no matching include/ignore rule"
	}

	slog.Debug("path classified",
		"path", abs,
		"action", eval.Action,
		"include_matches", len(eval.Include),
		"ignore_matches", len(eval.Ignore))

	return eval
}

// ClearCache drops every cached rule file. Call it after rule files were
// edited by something other than AddPattern.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string][]string)
	r.mu.Unlock()
	slog.Debug("rule cache cleared")
}

// FileStats describes one cached rule file.
type FileStats struct {
	Path     string
	Patterns int
}

// Stats describes the resolver's configuration and cache state.
type Stats struct {
	Root  string
	Files []FileStats
}

// Stats reports the watch root and the rule files currently cached,
// sorted by path.
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{Root: r.root, Files: make([]FileStats, 0, len(r.cache))}
	for file, pats := range r.cache {
		st.Files = append(st.Files, FileStats{Path: file, Patterns: len(pats)})
	}
	sort.Slice(st.Files, func(i, j int) bool { return st.Files[i].Path < st.Files[j].Path })
	return st
}

// Scan walks the tree and loads every rule file it finds, so the
// returned stats describe the whole root rather than only the files
// classification happened to touch. .git directories are not descended
// into.
func (r *Resolver) Scan() (Stats, error) {
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != r.root {
				return filepath.SkipDir
			}
			return nil
		}
		if IsRuleFile(d.Name()) {
			r.patterns(path)
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to scan %s: %w", r.root, err)
	}
	return r.Stats(), nil
}

// absolute anchors relative inputs at the watch root.
func (r *Resolver) absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.root, path)
}

// chain lists the directories whose rule files govern path, ordered from
// the watch root down to the path's parent. Paths outside the root get
// an empty chain, which classifies them as review.
func (r *Resolver) chain(abs string) []string {
	rel, err := filepath.Rel(r.root, filepath.Dir(abs))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		slog.Warn("path outside watch root", "path", abs, "root", r.root)
		return nil
	}

	dirs := []string{r.root}
	if rel == "." {
		return dirs
	}
	current := r.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		dirs = append(dirs, current)
	}
	return dirs
}

// matches reports whether pattern, written in ruleDir, claims abs.
// Patterns apply to the path relative to their rule file's directory.
func (r *Resolver) matches(pattern, abs, ruleDir string) bool {
	rel, err := filepath.Rel(ruleDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)

	// A trailing slash claims the directory and everything below it.
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimRight(pattern, "/")
		return rel == dir || strings.HasPrefix(rel, dir+"/")
	}

	re := r.globs.get(pattern)
	return re != nil && re.MatchString(rel)
}

// patterns returns the parsed pattern list for one rule file, reading
// through the cache. Missing files are empty and are not cached, so a
// rule file created later is picked up on the next classification.
func (r *Resolver) patterns(file string) []string {
	r.mu.RLock()
	pats, ok := r.cache[file]
	r.mu.RUnlock()
	if ok {
		return pats
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("rule file unreadable, treating as empty", "file", file, "error", err)
		}
		return nil
	}

	pats = parsePatterns(data)

	r.mu.Lock()
	r.cache[file] = pats
	r.mu.Unlock()

	slog.Debug("rule file parsed", "file", file, "patterns", len(pats))
	return pats
}

// parsePatterns keeps non-blank, non-comment lines verbatim after
// trimming surrounding whitespace.
func parsePatterns(data []byte) []string {
	var pats []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pats = append(pats, line)
	}
	return pats
}
