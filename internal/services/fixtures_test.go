package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/auth"
	"shareplace_backend/internal/imageprocessor"
	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories"
	"shareplace_backend/internal/repositories/memory"
	"shareplace_backend/internal/services/dto"
	"shareplace_backend/internal/storage"
	"shareplace_backend/internal/validator"
)

// faultyStorage fails Save or Delete on demand.
type faultyStorage struct {
	*storage.MemoryStorage
	saveErr   error
	deleteErr error
}

func (f *faultyStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStorage.Save(ctx, key, r, contentType)
}

func (f *faultyStorage) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStorage.Delete(ctx, key)
}

// failingTxStore aborts every transaction.
type failingTxStore struct {
	repositories.RecordStore
	err error
}

func (f *failingTxStore) Transaction(ctx context.Context, fn func(tx repositories.RecordStore) error) error {
	return f.err
}

type fixture struct {
	mem      *memory.Store
	store    repositories.RecordStore
	backend  *faultyStorage
	assets   *assets.Store
	services *ServiceContainer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.NewStore()
	f := &fixture{
		mem:     mem,
		store:   mem,
		backend: &faultyStorage{MemoryStorage: storage.NewMemoryStorage("https://cdn.test")},
	}
	f.assets = assets.NewStore(f.backend, assets.Config{
		Timeout:      time.Second,
		MaxSize:      1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
	})
	f.rebuild()
	return f
}

// rebuild wires the services against the current store.
func (f *fixture) rebuild() {
	f.services = NewServiceContainer(Dependencies{
		Store:     f.store,
		Assets:    f.assets,
		Images:    imageprocessor.NewProcessor(85, 512),
		Validator: validator.New(),
		Tokens:    auth.NewTokenManager("test-secret", time.Hour),
	})
}

func (f *fixture) failTransactions(err error) {
	f.store = &failingTxStore{RecordStore: f.mem, err: err}
	f.rebuild()
}

func (f *fixture) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{Name: name, Email: email, PasswordHash: hash}
	require.NoError(t, f.mem.Users().Save(context.Background(), u))
	return u
}

func (f *fixture) reloadUser(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.mem.Users().FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func coord(v float64) *float64 { return &v }

func eiffelRequest() *dto.CreatePlaceRequest {
	return &dto.CreatePlaceRequest{
		Title:       "Eiffel Tower",
		Description: "Wrought-iron lattice tower",
		Address:     "Champ de Mars, Paris",
		Lat:         coord(48.8584),
		Lng:         coord(2.2945),
	}
}

// interleavingStore runs afterFind once, right after the first top-level
// place lookup returns, to interleave a concurrent writer.
type interleavingStore struct {
	repositories.RecordStore
	once      sync.Once
	afterFind func()
}

func (s *interleavingStore) Places() repositories.PlaceRepository {
	return &interleavingPlaces{PlaceRepository: s.RecordStore.Places(), store: s}
}

type interleavingPlaces struct {
	repositories.PlaceRepository
	store *interleavingStore
}

func (p *interleavingPlaces) FindByID(ctx context.Context, id string) (*models.Place, error) {
	place, err := p.PlaceRepository.FindByID(ctx, id)
	p.store.once.Do(p.store.afterFind)
	return place, err
}
