package repositories

import (
	"context"
	"errors"
	"strings"

	"shareplace_backend/internal/models"
)

var (
	ErrPlaceNotFound     = errors.New("place not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// RecordStore gives typed access to places, users and orphaned assets.
// Writes made through the tx passed to Transaction commit together or not
// at all.
type RecordStore interface {
	Places() PlaceRepository
	Users() UserRepository
	OrphanedAssets() OrphanedAssetRepository
	Transaction(ctx context.Context, fn func(tx RecordStore) error) error
}

type PlaceRepository interface {
	FindByID(ctx context.Context, id string) (*models.Place, error)
	FindAll(ctx context.Context) ([]*models.Place, error)
	FindByCreator(ctx context.Context, creatorID string) ([]*models.Place, error)
	// Search matches term case-insensitively against title, description and
	// address. An empty term matches every place.
	Search(ctx context.Context, term string) ([]*models.Place, error)
	ExistsByImageKey(ctx context.Context, key string) (bool, error)
	// Save inserts when p.ID is empty and updates otherwise.
	Save(ctx context.Context, p *models.Place) error
	// UpdateDetails changes title and description of an existing place. It
	// never inserts: a place deleted meanwhile yields ErrPlaceNotFound.
	UpdateDetails(ctx context.Context, id, title, description string) error
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// LockByID loads the user and holds a row lock until the enclosing
	// transaction ends.
	LockByID(ctx context.Context, id string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	ExistsByImageKey(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, u *models.User) error
}

type OrphanedAssetRepository interface {
	// Add records key; adding an existing key only refreshes its error.
	Add(ctx context.Context, key, reason, lastErr string) error
	List(ctx context.Context, limit int) ([]*models.OrphanedAsset, error)
	MarkAttempt(ctx context.Context, id, lastErr string) error
	Delete(ctx context.Context, id string) error
}

// EscapeLike escapes LIKE metacharacters so term matches literally.
func EscapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
