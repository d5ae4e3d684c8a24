package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shareplace_backend/internal/models"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *userRepository) LockByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *userRepository) find(db *gorm.DB, id string) (*models.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&users).Error
	return users, err
}

func (r *userRepository) ExistsByImageKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("image_key = ?", key).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) Save(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(u.Email)
	if u.PlaceIDs == nil {
		u.PlaceIDs = []string{}
	}

	db := r.db.WithContext(ctx)

	var err error
	if u.ID == "" {
		err = db.Create(u).Error
	} else {
		err = db.Save(u).Error
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUserAlreadyExists
	}
	return err
}
