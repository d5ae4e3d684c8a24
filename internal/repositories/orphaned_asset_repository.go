package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shareplace_backend/internal/models"
)

type orphanedAssetRepository struct {
	db *gorm.DB
}

func (r *orphanedAssetRepository) Add(ctx context.Context, key, reason, lastErr string) error {
	orphan := &models.OrphanedAsset{Key: key, Reason: reason, LastError: lastErr}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_error", "updated_at"}),
	}).Create(orphan).Error
}

func (r *orphanedAssetRepository) List(ctx context.Context, limit int) ([]*models.OrphanedAsset, error) {
	var orphans []*models.OrphanedAsset
	err := r.db.WithContext(ctx).
		Order("attempts, created_at").
		Limit(limit).
		Find(&orphans).Error
	return orphans, err
}

func (r *orphanedAssetRepository) MarkAttempt(ctx context.Context, id, lastErr string) error {
	return r.db.WithContext(ctx).Model(&models.OrphanedAsset{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastErr,
		}).Error
}

func (r *orphanedAssetRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.OrphanedAsset{}, "id = ?", id).Error
}
