package review

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Jake-Brewer/auto-commit/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestStoreAddIdempotent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, "/repo/data.json", "ambiguous include/ignore rules", nil)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Positive(t, first.ID)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Nil(t, first.ResolvedAt)

	second, err := store.Add(ctx, "/repo/data.json", "different reason", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Reason, second.Reason, "existing pending item must be returned unchanged")

	other, err := store.Add(ctx, "/repo/other.json", "no matching include/ignore rule", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
}

func TestStoreAddValidation(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	var nilCtx context.Context
	_, err := store.Add(nilCtx, "/repo/a", "r", nil)
	assert.ErrorIs(t, err, ErrNilContext)

	_, err = store.Add(ctx, "  ", "r", nil)
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = store.Add(ctx, "/repo/a", "", nil)
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestStoreAddAfterResolve(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, "/repo/main.go", "ambiguous include/ignore rules", nil)
	require.NoError(t, err)
	require.NoError(t, store.Resolve(ctx, first.ID, model.DecisionInclude, ""))

	again, err := store.Add(ctx, "/repo/main.go", "ambiguous include/ignore rules", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, again.ID, "resolved item must not block a new pending one")
	assert.Equal(t, model.StatusPending, again.Status)
}

func TestStoreGet(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, "/repo/x.bin", "no matching include/ignore rule",
		map[string]string{"event": "created"})
	require.NoError(t, err)

	got, err := store.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "/repo/x.bin", got.FilePath)
	assert.Equal(t, "no matching include/ignore rule", got.Reason)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "created", got.Metadata["event"])

	_, err = store.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestStoreListOrdering(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	paths := []string{"/repo/a", "/repo/b", "/repo/c"}
	for _, p := range paths {
		_, err := store.Add(ctx, p, "needs review", nil)
		require.NoError(t, err)
	}

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, p := range paths {
		assert.Equal(t, p, pending[i].FilePath, "oldest first")
	}

	resolved, err := store.ListResolved(ctx)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestStoreResolve(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	item, err := store.Add(ctx, "/repo/notes.txt", "ambiguous include/ignore rules",
		map[string]string{"event": "modified"})
	require.NoError(t, err)

	t.Run("invalid decision leaves the row untouched", func(t *testing.T) {
		err := store.Resolve(ctx, item.ID, model.Decision("review"), "")
		assert.ErrorIs(t, err, ErrInvalidDecision)

		got, getErr := store.Get(ctx, item.ID)
		require.NoError(t, getErr)
		assert.Equal(t, model.StatusPending, got.Status)
	})

	t.Run("valid decision resolves", func(t *testing.T) {
		require.NoError(t, store.Resolve(ctx, item.ID, model.DecisionIgnore, "*.txt"))

		got, err := store.Get(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusResolved, got.Status)
		assert.Equal(t, model.DecisionIgnore, got.Decision)
		require.NotNil(t, got.ResolvedAt)
		assert.Equal(t, "*.txt", got.Metadata["pattern_hint"])
		assert.Equal(t, "modified", got.Metadata["event"], "existing metadata survives")
	})

	t.Run("resolving twice fails", func(t *testing.T) {
		err := store.Resolve(ctx, item.ID, model.DecisionInclude, "")
		assert.ErrorIs(t, err, ErrNotPending)
	})

	t.Run("unknown id fails", func(t *testing.T) {
		err := store.Resolve(ctx, 12345, model.DecisionInclude, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreRemove(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	pending, err := store.Add(ctx, "/repo/p", "needs review", nil)
	require.NoError(t, err)
	resolved, err := store.Add(ctx, "/repo/r", "needs review", nil)
	require.NoError(t, err)
	require.NoError(t, store.Resolve(ctx, resolved.ID, model.DecisionInclude, ""))

	require.NoError(t, store.Remove(ctx, pending.ID))
	require.NoError(t, store.Remove(ctx, resolved.ID))

	assert.ErrorIs(t, store.Remove(ctx, pending.ID), ErrNotFound)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestStoreClearResolved(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	keep, err := store.Add(ctx, "/repo/keep", "needs review", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		item, addErr := store.Add(ctx, fmt.Sprintf("/repo/done%d", i), "needs review", nil)
		require.NoError(t, addErr)
		require.NoError(t, store.Resolve(ctx, item.ID, model.DecisionIgnore, ""))
	}

	n, err := store.ClearResolved(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 0, stats.Resolved)

	got, err := store.Get(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "review.db")
	ctx := context.Background()

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	_, err = store.Add(ctx, "/repo/persist.me", "needs review", nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, reopened.Close()) }()
	require.NoError(t, reopened.Migrate(ctx))

	pending, err := reopened.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "/repo/persist.me", pending[0].FilePath)
}

func TestStoreConcurrentAdd(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Add(ctx, "/repo/contested.go", "ambiguous include/ignore rules", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "concurrent adds must collapse into one pending row")
}

func TestMigrateIdempotent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}
