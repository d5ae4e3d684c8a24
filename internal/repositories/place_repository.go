package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shareplace_backend/internal/models"
)

type placeRepository struct {
	db *gorm.DB
}

func (r *placeRepository) FindByID(ctx context.Context, id string) (*models.Place, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrPlaceNotFound
	}

	var place models.Place
	if err := r.db.WithContext(ctx).First(&place, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	return &place, nil
}

func (r *placeRepository) FindAll(ctx context.Context) ([]*models.Place, error) {
	var places []*models.Place
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&places).Error
	return places, err
}

func (r *placeRepository) FindByCreator(ctx context.Context, creatorID string) ([]*models.Place, error) {
	if uuid.Validate(creatorID) != nil {
		return []*models.Place{}, nil
	}

	var places []*models.Place
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at, id").
		Find(&places).Error
	return places, err
}

func (r *placeRepository) Search(ctx context.Context, term string) ([]*models.Place, error) {
	query := r.db.WithContext(ctx).Order("created_at, id")
	if term != "" {
		pattern := "%" + EscapeLike(term) + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ? OR address ILIKE ?", pattern, pattern, pattern)
	}

	var places []*models.Place
	err := query.Find(&places).Error
	return places, err
}

func (r *placeRepository) ExistsByImageKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Place{}).Where("image_key = ?", key).Count(&count).Error
	return count > 0, err
}

func (r *placeRepository) Save(ctx context.Context, p *models.Place) error {
	db := r.db.WithContext(ctx).Omit(clause.Associations)

	var err error
	if p.ID == "" {
		err = db.Create(p).Error
	} else {
		err = db.Save(p).Error
	}

	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrUserNotFound
	}
	return err
}

func (r *placeRepository) UpdateDetails(ctx context.Context, id, title, description string) error {
	if uuid.Validate(id) != nil {
		return ErrPlaceNotFound
	}

	result := r.db.WithContext(ctx).Model(&models.Place{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       title,
		"description": description,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlaceNotFound
	}
	return nil
}

func (r *placeRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return ErrPlaceNotFound
	}

	result := r.db.WithContext(ctx).Delete(&models.Place{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlaceNotFound
	}
	return nil
}
