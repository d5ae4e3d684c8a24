package workers

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories/memory"
	"shareplace_backend/internal/storage"
)

type flakyStorage struct {
	*storage.MemoryStorage
	deleteErr error
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStorage.Delete(ctx, key)
}

func setup(t *testing.T) (*memory.Store, *flakyStorage, *AssetWorker) {
	t.Helper()
	store := memory.NewStore()
	backend := &flakyStorage{MemoryStorage: storage.NewMemoryStorage("")}
	assetStore := assets.NewStore(backend, assets.Config{Timeout: time.Second})
	return store, backend, NewAssetWorker(store, assetStore, time.Minute, 10)
}

func put(t *testing.T, s *storage.MemoryStorage, key string) {
	t.Helper()
	require.NoError(t, s.Save(context.Background(), key, io.NopCloser(strings.NewReader("img")), "image/png"))
}

func TestSweep_DeletesOrphans(t *testing.T) {
	ctx := context.Background()
	store, backend, worker := setup(t)

	put(t, backend.MemoryStorage, "places/lost_1.png")
	require.NoError(t, store.OrphanedAssets().Add(ctx, "places/lost_1.png", "compensation", "timeout"))

	deleted, err := worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Empty(t, backend.Keys())

	orphans, err := store.OrphanedAssets().List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestSweep_KeepsReferencedAssets(t *testing.T) {
	ctx := context.Background()
	store, backend, worker := setup(t)

	owner := &models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, store.Users().Save(ctx, owner))
	place := &models.Place{Title: "Tower", ImageKey: "places/tower_1.png", CreatorID: owner.ID}
	require.NoError(t, store.Places().Save(ctx, place))

	put(t, backend.MemoryStorage, "places/tower_1.png")
	require.NoError(t, store.OrphanedAssets().Add(ctx, "places/tower_1.png", "cleanup", "timeout"))

	deleted, err := worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, []string{"places/tower_1.png"}, backend.Keys())

	orphans, err := store.OrphanedAssets().List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestSweep_FailureIncrementsAttempts(t *testing.T) {
	ctx := context.Background()
	store, backend, worker := setup(t)
	backend.deleteErr = errors.New("bucket unavailable")

	require.NoError(t, store.OrphanedAssets().Add(ctx, "users/alice_1.png", "compensation", "timeout"))

	deleted, err := worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	orphans, err := store.OrphanedAssets().List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, 1, orphans[0].Attempts)
	assert.Contains(t, orphans[0].LastError, "bucket unavailable")
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store, backend, _ := setup(t)
	worker := NewAssetWorker(store, assets.NewStore(backend, assets.Config{}), 10*time.Millisecond, 10)

	put(t, backend.MemoryStorage, "places/lost_2.png")
	require.NoError(t, store.OrphanedAssets().Add(ctx, "places/lost_2.png", "compensation", "timeout"))

	worker.Start(ctx)
	assert.Eventually(t, func() bool { return len(backend.Keys()) == 0 }, time.Second, 10*time.Millisecond)
	cancel()
}
