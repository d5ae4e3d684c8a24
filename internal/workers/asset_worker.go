package workers

import (
	"context"
	"strings"
	"time"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/metrics"
	"shareplace_backend/internal/repositories"
)

const assetWorkerName = "asset_worker"

type AssetWorker struct {
	store     repositories.RecordStore
	assets    assets.AssetStore
	interval  time.Duration
	batchSize int
}

func NewAssetWorker(store repositories.RecordStore, assetStore assets.AssetStore, interval time.Duration, batchSize int) *AssetWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &AssetWorker{
		store:     store,
		assets:    assetStore,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start launches the sweeper. A zero interval disables it.
func (w *AssetWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		logger.Info("Asset worker disabled")
		return
	}
	go w.run(ctx)
}

func (w *AssetWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Asset worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				logger.WorkerLog(assetWorkerName, "sweep", err)
			}
		}
	}
}

// Sweep processes one batch of orphaned assets and returns how many objects
// were deleted. Keys referenced again by a place or user are dropped from the
// list without touching the object.
func (w *AssetWorker) Sweep(ctx context.Context) (int, error) {
	orphans, err := w.store.OrphanedAssets().List(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, orphan := range orphans {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}

		referenced, err := w.referenced(ctx, orphan.Key)
		if err != nil {
			logger.WorkerLog(assetWorkerName, "reference check", err, "key", orphan.Key)
			continue
		}

		if referenced {
			if err := w.store.OrphanedAssets().Delete(ctx, orphan.ID); err != nil {
				logger.WorkerLog(assetWorkerName, "drop referenced", err, "key", orphan.Key)
			}
			metrics.RecordSweep(metrics.SweepReferenced)
			continue
		}

		if err := w.assets.Delete(ctx, orphan.Key); err != nil {
			if markErr := w.store.OrphanedAssets().MarkAttempt(ctx, orphan.ID, err.Error()); markErr != nil {
				logger.WorkerLog(assetWorkerName, "mark attempt", markErr, "key", orphan.Key)
			}
			metrics.RecordSweep(metrics.SweepFailed)
			logger.WorkerLog(assetWorkerName, "delete", err, "key", orphan.Key, "attempts", orphan.Attempts+1)
			continue
		}

		if err := w.store.OrphanedAssets().Delete(ctx, orphan.ID); err != nil {
			logger.WorkerLog(assetWorkerName, "drop deleted", err, "key", orphan.Key)
		}
		metrics.RecordSweep(metrics.SweepDeleted)
		deleted++
	}

	if deleted > 0 {
		logger.Info("Orphaned assets swept", "worker", assetWorkerName, "deleted", deleted)
	}
	return deleted, nil
}

func (w *AssetWorker) referenced(ctx context.Context, key string) (bool, error) {
	if strings.HasPrefix(key, assets.FolderUsers+"/") {
		return w.store.Users().ExistsByImageKey(ctx, key)
	}
	return w.store.Places().ExistsByImageKey(ctx, key)
}
