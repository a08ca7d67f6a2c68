package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jake-Brewer/auto-commit/internal/common"
	"github.com/Jake-Brewer/auto-commit/internal/model"
	"github.com/Jake-Brewer/auto-commit/internal/rules"
)

// worker is one dispatch loop. Workers are long-lived: they survive
// handler failures and exit only when the pool stops or the context
// ends.
type worker struct {
	pool *Pool
	id   int
}

func (w *worker) run(ctx context.Context) {
	slog.Debug("worker started", "worker", w.id)
	defer slog.Debug("worker stopped", "worker", w.id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pool.stop:
			return
		default:
		}

		ev, ok := w.pool.queue.Get(w.pool.cfg.PollInterval)
		if !ok {
			continue
		}

		if err := w.process(ctx, ev); err != nil {
			common.LogError(err, "event handling failed", common.Fields{
				"worker": w.id,
				"path":   ev.Path,
				"kind":   ev.Kind,
			})
			w.pause(ctx)
		}
	}
}

// process routes one event and always acknowledges it.
func (w *worker) process(ctx context.Context, ev model.FileEvent) error {
	defer w.pool.queue.Done()

	// An edited rule file changes the meaning of every cached pattern
	// list, so drop them before classifying anything else.
	if rules.IsRuleFile(filepath.Base(ev.Path)) {
		w.pool.classifier.ClearCache()
		slog.Info("rule file changed, classifier cache cleared",
			"worker", w.id, "path", ev.Path)
	}

	eval := w.pool.classifier.Evaluate(ev.Path)

	slog.Debug("event classified",
		"worker", w.id,
		"path", ev.Path,
		"kind", ev.Kind,
		"action", eval.Action)

	switch eval.Action {
	case model.ActionInclude:
		if ev.Kind == model.EventDeleted {
			slog.Debug("skipping deleted path, nothing to stage",
				"worker", w.id, "path", ev.Path)
			return nil
		}
		if err := w.pool.committer.Commit(ctx, ev.Path); err != nil {
			return fmt.Errorf("committing %s: %w", ev.Path, err)
		}
	case model.ActionIgnore:
		// Dropped. The classification debug line above is the only trace.
	case model.ActionReview:
		if _, err := w.pool.reviews.Add(ctx, ev.Path, eval.Reason, reviewMetadata(ev, eval)); err != nil {
			return fmt.Errorf("queueing %s for review: %w", ev.Path, err)
		}
	}
	return nil
}

// pause sleeps briefly after a failure so a broken handler cannot spin
// the worker hot.
func (w *worker) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-w.pool.stop:
	case <-time.After(w.pool.cfg.ErrorBackoff):
	}
}

// reviewMetadata captures the event kind and any matched patterns so the
// reviewer can see what conflicted.
func reviewMetadata(ev model.FileEvent, eval rules.Evaluation) map[string]string {
	meta := map[string]string{"event": string(ev.Kind)}
	if len(eval.Include) > 0 {
		meta["include_patterns"] = joinPatterns(eval.Include)
	}
	if len(eval.Ignore) > 0 {
		meta["ignore_patterns"] = joinPatterns(eval.Ignore)
	}
	return meta
}

func joinPatterns(matches []rules.PatternMatch) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Pattern
	}
	return strings.Join(parts, ", ")
}
