package repositories_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shareplace_backend/database"
	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories"
)

// openTestDB connects to TEST_DATABASE_URL and empties the tables.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(dsn, "test")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Exec("TRUNCATE TABLE places, users, orphaned_assets CASCADE").Error)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func testPlace(creatorID, title string) *models.Place {
	p := &models.Place{
		Title:       title,
		Description: "Description of " + title,
		Address:     "Paris",
		ImageURL:    "/files/places/x.jpg",
		ImageKey:    "places/" + title + ".jpg",
		CreatorID:   creatorID,
	}
	p.SetPoint(models.GeoPoint{Lat: 48.8584, Lng: 2.2945})
	return p
}

func TestGormStore_CreatePlaceInTransaction(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(openTestDB(t), 3)

	owner := &models.User{Name: "Alice", Email: "Alice@Example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Save(ctx, owner))
	assert.Equal(t, "alice@example.com", owner.Email)

	var placeID string
	err := store.Transaction(ctx, func(tx repositories.RecordStore) error {
		p := testPlace(owner.ID, "Eiffel Tower")
		if err := tx.Places().Save(ctx, p); err != nil {
			return err
		}
		placeID = p.ID

		u, err := tx.Users().LockByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		u.AddPlace(p.ID)
		return tx.Users().Save(ctx, u)
	})
	require.NoError(t, err)

	p, err := store.Places().FindByID(ctx, placeID)
	require.NoError(t, err)
	assert.Equal(t, models.GeoPoint{Lat: 48.8584, Lng: 2.2945}, p.Point())

	u, err := store.Users().FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{placeID}, []string(u.PlaceIDs))

	ok, err := store.Places().ExistsByImageKey(ctx, "places/Eiffel Tower.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGormStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(openTestDB(t), 3)

	_, err := store.Places().FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repositories.ErrPlaceNotFound)

	require.NoError(t, store.Users().Save(ctx, &models.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}))
	err = store.Users().Save(ctx, &models.User{Name: "B", Email: "A@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, repositories.ErrUserAlreadyExists)

	err = store.Places().Save(ctx, testPlace("00000000-0000-0000-0000-000000000000", "Nowhere"))
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}

func TestGormStore_SearchEscapesPattern(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(openTestDB(t), 3)

	owner := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Save(ctx, owner))
	require.NoError(t, store.Places().Save(ctx, testPlace(owner.ID, "Eiffel Tower")))
	require.NoError(t, store.Places().Save(ctx, testPlace(owner.ID, "100% Louvre")))

	found, err := store.Places().Search(ctx, "TOWER")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Eiffel Tower", found[0].Title)

	found, err = store.Places().Search(ctx, "%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Louvre", found[0].Title)
}

func TestGormStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(openTestDB(t), 5)

	owner := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Save(ctx, owner))

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Transaction(ctx, func(tx repositories.RecordStore) error {
				p := testPlace(owner.ID, fmt.Sprintf("Place %d", i))
				if err := tx.Places().Save(ctx, p); err != nil {
					return err
				}
				u, err := tx.Users().LockByID(ctx, owner.ID)
				if err != nil {
					return err
				}
				u.AddPlace(p.ID)
				return tx.Users().Save(ctx, u)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	u, err := store.Users().FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, u.PlaceIDs, n)
}

func TestGormStore_UpdateDetailsNeverInserts(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(openTestDB(t), 3)

	owner := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Save(ctx, owner))
	p := testPlace(owner.ID, "Tower")
	require.NoError(t, store.Places().Save(ctx, p))

	require.NoError(t, store.Places().UpdateDetails(ctx, p.ID, "New title", "New description"))
	got, err := store.Places().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "Paris", got.Address)

	require.NoError(t, store.Places().Delete(ctx, p.ID))
	err = store.Places().UpdateDetails(ctx, p.ID, "Back", "From the dead")
	assert.ErrorIs(t, err, repositories.ErrPlaceNotFound)

	_, err = store.Places().FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrPlaceNotFound)
}
