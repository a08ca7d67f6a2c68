// Package watch feeds filesystem changes under a root directory into
// the event queue. fsnotify watches are per-directory, so the watcher
// walks the tree at startup and adopts directories as they appear.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Jake-Brewer/auto-commit/internal/model"
	"github.com/Jake-Brewer/auto-commit/internal/queue"
)

// Config holds watcher configuration.
type Config struct {
	// SkipNames are directory base names that are never descended into.
	SkipNames []string
	// SkipPaths are absolute paths whose events are ignored entirely.
	// The review database and its sidecar files go here when they live
	// under the watch root.
	SkipPaths []string
}

// DefaultConfig returns the watcher defaults.
func DefaultConfig() Config {
	return Config{
		SkipNames: []string{".git"},
	}
}

// Watcher translates fsnotify events into model.FileEvents on the queue.
type Watcher struct {
	fsw       *fsnotify.Watcher
	queue     *queue.Queue
	skipNames map[string]struct{}
	skipPaths map[string]struct{}
	root      string
}

// New creates a watcher over root with default configuration.
func New(root string, q *queue.Queue) (*Watcher, error) {
	return NewWithConfig(root, q, DefaultConfig())
}

// NewWithConfig creates a watcher over root and adds watches for every
// directory beneath it.
func NewWithConfig(root string, q *queue.Queue, cfg Config) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", absRoot)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:       fsw,
		queue:     q,
		root:      absRoot,
		skipNames: make(map[string]struct{}, len(cfg.SkipNames)),
		skipPaths: make(map[string]struct{}, len(cfg.SkipPaths)),
	}
	for _, name := range cfg.SkipNames {
		w.skipNames[name] = struct{}{}
	}
	for _, path := range cfg.SkipPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		w.skipPaths[abs] = struct{}{}
	}

	w.watchTree(absRoot, false)

	return w, nil
}

// Root returns the absolute watch root.
func (w *Watcher) Root() string {
	return w.root
}

// Run pumps fsnotify events into the queue until ctx ends or the
// watcher is closed. fsnotify errors are logged and the loop keeps
// going.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("watcher started", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// Close stops the underlying fsnotify watcher, which also ends Run.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.skipped(ev.Name) {
		return
	}

	switch {
	case ev.Op.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			// Gone again before we could look at it.
			return
		}
		if info.IsDir() {
			w.watchTree(ev.Name, true)
			return
		}
		w.enqueue(ev.Name, model.EventCreated)
	case ev.Op.Has(fsnotify.Write):
		w.enqueue(ev.Name, model.EventModified)
	case ev.Op.Has(fsnotify.Remove):
		w.enqueue(ev.Name, model.EventDeleted)
	case ev.Op.Has(fsnotify.Rename):
		w.enqueue(ev.Name, model.EventMoved)
	}
}

// watchTree adds watches for dir and every directory beneath it. When
// announce is set, files found along the way are enqueued as created;
// that covers files written into a new directory before its watch was
// in place.
func (w *Watcher) watchTree(dir string, announce bool) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if w.skipped(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				slog.Warn("failed to watch directory", "dir", path, "error", err)
			}
			return nil
		}
		if announce {
			w.enqueue(path, model.EventCreated)
		}
		return nil
	})
	if walkErr != nil {
		slog.Warn("failed to walk directory", "dir", dir, "error", walkErr)
	}
}

func (w *Watcher) enqueue(path string, kind model.EventKind) {
	ev := model.FileEvent{Path: path, Kind: kind, Time: time.Now()}
	if err := w.queue.Put(ev); err != nil {
		slog.Warn("dropping event, queue closed", "path", path, "kind", kind)
	}
}

// skipped reports whether path is excluded from watching, either as an
// exact skip path or because a component under the root is a skip name.
func (w *Watcher) skipped(path string) bool {
	if _, ok := w.skipPaths[filepath.Clean(path)]; ok {
		return true
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if _, ok := w.skipNames[part]; ok {
			return true
		}
	}
	return false
}
