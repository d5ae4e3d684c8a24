package services

import (
	"context"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/repositories"
)

// assetJanitor deletes assets that no record references anymore. A key it
// cannot delete is recorded as an OrphanedAsset for the sweeper.
type assetJanitor struct {
	store  repositories.RecordStore
	assets assets.AssetStore
}

func (j *assetJanitor) release(ctx context.Context, key, reason string) error {
	if key == "" {
		return nil
	}

	err := j.assets.Delete(ctx, key)
	if err == nil {
		return nil
	}

	if addErr := j.store.OrphanedAssets().Add(ctx, key, reason, err.Error()); addErr != nil {
		logger.CtxWithError(ctx, "CRITICAL: failed to record orphaned asset", addErr, "key", key)
	} else {
		logger.CtxWarn(ctx, "Asset recorded as orphaned", "key", key, "reason", reason)
	}
	return err
}
