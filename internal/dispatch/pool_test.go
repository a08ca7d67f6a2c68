package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jake-Brewer/auto-commit/internal/model"
	"github.com/Jake-Brewer/auto-commit/internal/queue"
	"github.com/Jake-Brewer/auto-commit/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalFor(path string, action model.Action) rules.Evaluation {
	eval := rules.Evaluation{Path: path, Action: action}
	switch action {
	case model.ActionInclude:
		eval.Reason = "matched include rules"
		eval.Include = []rules.PatternMatch{{Pattern: "*.go", File: "/repo/.gitinclude"}}
	case model.ActionIgnore:
		eval.Reason = "matched ignore rules"
		eval.Ignore = []rules.PatternMatch{{Pattern: "*.log", File: "/repo/.gitignore"}}
	case model.ActionReview:
		eval.Reason = "no matching include/ignore rule"
	}
	return eval
}

type stubClassifier struct {
	fn     func(path string) rules.Evaluation
	clears int64
}

func (s *stubClassifier) Evaluate(path string) rules.Evaluation { return s.fn(path) }

func (s *stubClassifier) ClearCache() { atomic.AddInt64(&s.clears, 1) }

func (s *stubClassifier) clearCount() int64 { return atomic.LoadInt64(&s.clears) }

// classifyByExt routes .go to include, .log to ignore, the rest to review.
func classifyByExt() *stubClassifier {
	return &stubClassifier{fn: func(path string) rules.Evaluation {
		switch filepath.Ext(path) {
		case ".go":
			return evalFor(path, model.ActionInclude)
		case ".log":
			return evalFor(path, model.ActionIgnore)
		default:
			return evalFor(path, model.ActionReview)
		}
	}}
}

type recordingReviews struct {
	err    error
	reason map[string]string
	meta   map[string]map[string]string
	adds   []string
	mu     sync.Mutex
}

func newRecordingReviews() *recordingReviews {
	return &recordingReviews{
		reason: make(map[string]string),
		meta:   make(map[string]map[string]string),
	}
}

func (r *recordingReviews) Add(_ context.Context, filePath, reason string, metadata map[string]string) (*model.ReviewItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.adds = append(r.adds, filePath)
	r.reason[filePath] = reason
	r.meta[filePath] = metadata
	return &model.ReviewItem{ID: int64(len(r.adds)), FilePath: filePath, Status: model.StatusPending}, nil
}

type recordingCommitter struct {
	errOn map[string]error
	paths []string
	mu    sync.Mutex
}

func (c *recordingCommitter) Commit(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.errOn[path]; err != nil {
		return err
	}
	c.paths = append(c.paths, path)
	return nil
}

func (c *recordingCommitter) committed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func testConfig(workers int) Config {
	return Config{
		Workers:      workers,
		PollInterval: 20 * time.Millisecond,
		ErrorBackoff: time.Millisecond,
	}
}

func waitIdle(t *testing.T, pool *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.WaitForIdle(ctx))
}

func TestPoolRouting(t *testing.T) {
	q := queue.New(16)
	defer q.Close()
	reviews := newRecordingReviews()
	committer := &recordingCommitter{}

	pool := NewWithConfig(q, classifyByExt(), reviews, committer, testConfig(2))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	events := []model.FileEvent{
		{Path: "/repo/main.go", Kind: model.EventModified},
		{Path: "/repo/debug.log", Kind: model.EventCreated},
		{Path: "/repo/data.bin", Kind: model.EventCreated},
	}
	for _, ev := range events {
		require.NoError(t, q.Put(ev))
	}
	waitIdle(t, pool)

	assert.Equal(t, []string{"/repo/main.go"}, committer.committed())

	reviews.mu.Lock()
	defer reviews.mu.Unlock()
	assert.Equal(t, []string{"/repo/data.bin"}, reviews.adds)
	assert.Equal(t, "no matching include/ignore rule", reviews.reason["/repo/data.bin"])
	assert.Equal(t, "created", reviews.meta["/repo/data.bin"]["event"])
}

func TestPoolProcessesEveryEventOnce(t *testing.T) {
	q := queue.New(8)
	defer q.Close()
	committer := &recordingCommitter{}

	pool := NewWithConfig(q, classifyByExt(), newRecordingReviews(), committer, testConfig(5))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	const events = 50
	want := make([]string, 0, events)
	for i := 0; i < events; i++ {
		path := fmt.Sprintf("/repo/file%02d.go", i)
		want = append(want, path)
		require.NoError(t, q.Put(model.FileEvent{Path: path, Kind: model.EventModified}))
	}
	waitIdle(t, pool)

	got := committer.committed()
	sort.Strings(got)
	assert.Equal(t, want, got, "every event handled exactly once")
}

func TestPoolHandlerFailureKeepsWorkersAlive(t *testing.T) {
	q := queue.New(16)
	defer q.Close()
	committer := &recordingCommitter{errOn: map[string]error{"/repo/bad.go": errors.New("boom")}}

	pool := NewWithConfig(q, classifyByExt(), newRecordingReviews(), committer, testConfig(2))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/bad.go", Kind: model.EventModified}))
	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/ok1.go", Kind: model.EventModified}))
	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/ok2.go", Kind: model.EventModified}))
	waitIdle(t, pool)

	// A later event still gets through the same workers.
	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/after.go", Kind: model.EventModified}))
	waitIdle(t, pool)

	got := committer.committed()
	sort.Strings(got)
	assert.Equal(t, []string{"/repo/after.go", "/repo/ok1.go", "/repo/ok2.go"}, got)
}

func TestPoolReviewStoreFailureStillAcknowledges(t *testing.T) {
	q := queue.New(16)
	defer q.Close()
	reviews := newRecordingReviews()
	reviews.err = errors.New("database locked")

	pool := NewWithConfig(q, classifyByExt(), reviews, &recordingCommitter{}, testConfig(2))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/data.bin", Kind: model.EventCreated}))
	waitIdle(t, pool)
}

func TestPoolDeletedIncludeIsDropped(t *testing.T) {
	q := queue.New(16)
	defer q.Close()
	committer := &recordingCommitter{}

	pool := NewWithConfig(q, classifyByExt(), newRecordingReviews(), committer, testConfig(1))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/gone.go", Kind: model.EventDeleted}))
	waitIdle(t, pool)

	assert.Empty(t, committer.committed(), "deleted paths have nothing to stage")
}

func TestPoolReviewConflictMetadata(t *testing.T) {
	q := queue.New(16)
	defer q.Close()
	reviews := newRecordingReviews()

	conflicted := &stubClassifier{fn: func(path string) rules.Evaluation {
		return rules.Evaluation{
			Path:    path,
			Action:  model.ActionReview,
			Reason:  "ambiguous include/ignore rules",
			Include: []rules.PatternMatch{{Pattern: "*.json", File: "/repo/.gitinclude"}},
			Ignore:  []rules.PatternMatch{{Pattern: "data*", File: "/repo/.gitignore"}},
		}
	}}

	pool := NewWithConfig(q, conflicted, reviews, &recordingCommitter{}, testConfig(1))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/data.json", Kind: model.EventModified}))
	waitIdle(t, pool)

	reviews.mu.Lock()
	defer reviews.mu.Unlock()
	require.Len(t, reviews.adds, 1)
	assert.Equal(t, "ambiguous include/ignore rules", reviews.reason["/repo/data.json"])
	assert.Equal(t, "*.json", reviews.meta["/repo/data.json"]["include_patterns"])
	assert.Equal(t, "data*", reviews.meta["/repo/data.json"]["ignore_patterns"])
}

func TestPoolRuleFileEventClearsCache(t *testing.T) {
	q := queue.New(16)
	defer q.Close()
	classifier := classifyByExt()

	pool := NewWithConfig(q, classifier, newRecordingReviews(), &recordingCommitter{}, testConfig(1))
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop()

	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/sub/.gitignore", Kind: model.EventModified}))
	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/.gitinclude", Kind: model.EventCreated}))
	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/notes.txt", Kind: model.EventModified}))
	waitIdle(t, pool)

	assert.Equal(t, int64(2), classifier.clearCount(),
		"each rule file event should clear the cache, ordinary files should not")
}

func TestPoolStartTwice(t *testing.T) {
	q := queue.New(4)
	defer q.Close()

	pool := NewWithConfig(q, classifyByExt(), newRecordingReviews(), &recordingCommitter{}, testConfig(1))
	require.NoError(t, pool.Start(context.Background()))
	assert.ErrorIs(t, pool.Start(context.Background()), ErrAlreadyStarted)

	pool.Stop()
	require.NoError(t, pool.Start(context.Background()), "a stopped pool can start again")
	pool.Stop()
}

func TestPoolStopHaltsProcessing(t *testing.T) {
	q := queue.New(4)
	defer q.Close()
	committer := &recordingCommitter{}

	pool := NewWithConfig(q, classifyByExt(), newRecordingReviews(), committer, testConfig(2))
	require.NoError(t, pool.Start(context.Background()))
	pool.Stop()
	pool.Stop() // no-op

	require.NoError(t, q.Put(model.FileEvent{Path: "/repo/late.go", Kind: model.EventModified}))
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, committer.committed())
	assert.Equal(t, 1, q.Len(), "event stays queued for the next start")
}
