package dispatch

import (
	"context"

	"github.com/Jake-Brewer/auto-commit/internal/model"
	"github.com/Jake-Brewer/auto-commit/internal/rules"
)

// Classifier resolves paths to classification actions. ClearCache
// drops any memoized rule-file contents after one changes on disk.
type Classifier interface {
	Evaluate(path string) rules.Evaluation
	ClearCache()
}

// ReviewAdder parks paths the rules cannot settle.
type ReviewAdder interface {
	Add(ctx context.Context, filePath, reason string, metadata map[string]string) (*model.ReviewItem, error)
}

// Committer turns an included path into a commit.
type Committer interface {
	Commit(ctx context.Context, path string) error
}
