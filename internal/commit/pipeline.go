// Package commit turns an included file change into a git commit. It
// stages the path, asks a message generator to describe the staged
// diff, and records the commit.
package commit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Jake-Brewer/auto-commit/internal/gitops"
	"github.com/Jake-Brewer/auto-commit/internal/message"
)

// Pipeline commits one file change at a time. A single mutex
// serializes all git index operations because concurrent staging
// would interleave unrelated changes into one commit.
type Pipeline struct {
	repo *gitops.Repo
	gen  message.Generator
	mu   sync.Mutex
}

// New creates a commit pipeline for the given repository.
func New(repo *gitops.Repo, gen message.Generator) *Pipeline {
	return &Pipeline{repo: repo, gen: gen}
}

// Commit stages path and commits the resulting index with a generated
// message. A path whose staging produces no index change is skipped
// silently so unchanged files never create empty commits.
func (p *Pipeline) Commit(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.Stage(ctx, path); err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}

	staged, err := p.repo.HasStagedChanges(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect index for %s: %w", path, err)
	}
	if !staged {
		slog.Debug("nothing staged, skipping commit", "path", path)
		return nil
	}

	diff, err := p.repo.StagedDiff(ctx)
	if err != nil {
		return fmt.Errorf("failed to read staged diff for %s: %w", path, err)
	}

	files, err := p.repo.StagedFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list staged files for %s: %w", path, err)
	}

	msg, err := p.gen.Generate(ctx, diff, files)
	if err != nil {
		return fmt.Errorf("failed to generate commit message for %s: %w", path, err)
	}

	if err := p.repo.Commit(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}

	slog.Info("committed change",
		"path", path,
		"files", len(files),
		"message", msg,
		"generator", p.gen.Name())

	return nil
}
