// Package memory is an in-process RecordStore for development and tests.
// One mutex serializes transactions; writes inside a transaction are staged
// on a copy of the data and applied on commit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shareplace_backend/internal/models"
	"shareplace_backend/internal/repositories"
)

type state struct {
	places  map[string]*models.Place
	users   map[string]*models.User
	orphans map[string]*models.OrphanedAsset
}

func newState() *state {
	return &state{
		places:  make(map[string]*models.Place),
		users:   make(map[string]*models.User),
		orphans: make(map[string]*models.OrphanedAsset),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, p := range s.places {
		c.places[id] = p.Clone()
	}
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for id, o := range s.orphans {
		oc := *o
		c.orphans[id] = &oc
	}
	return c
}

// Store is the memory RecordStore.
type Store struct {
	mu    sync.Mutex
	data  *state
	clock *clock
}

func NewStore() *Store {
	return &Store{data: newState(), clock: &clock{now: time.Now}}
}

// SetNow replaces the clock; test helper.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	s.clock.now = now
	s.mu.Unlock()
}

func (s *Store) Places() repositories.PlaceRepository {
	return &placeRepository{view: s}
}

func (s *Store) Users() repositories.UserRepository {
	return &userRepository{view: s}
}

func (s *Store) OrphanedAssets() repositories.OrphanedAssetRepository {
	return &orphanedAssetRepository{view: s}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repositories.RecordStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &txStore{data: s.data.clone(), clock: s.clock}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *Store) do(fn func(st *state, c *clock) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data, s.clock)
}

// txStore is the view handed to a transaction closure. The store mutex is
// already held.
type txStore struct {
	data  *state
	clock *clock
}

func (t *txStore) Places() repositories.PlaceRepository {
	return &placeRepository{view: t}
}

func (t *txStore) Users() repositories.UserRepository {
	return &userRepository{view: t}
}

func (t *txStore) OrphanedAssets() repositories.OrphanedAssetRepository {
	return &orphanedAssetRepository{view: t}
}

// Transaction nests as a savepoint: a failing fn discards only its own writes.
func (t *txStore) Transaction(ctx context.Context, fn func(tx repositories.RecordStore) error) error {
	nested := &txStore{data: t.data.clone(), clock: t.clock}
	if err := fn(nested); err != nil {
		return err
	}
	t.data = nested.data
	return nil
}

func (t *txStore) do(fn func(st *state, c *clock) error) error {
	return fn(t.data, t.clock)
}

type view interface {
	do(fn func(st *state, c *clock) error) error
}

// clock hands out strictly increasing timestamps so created_at ordering is
// total.
type clock struct {
	now  func() time.Time
	last time.Time
}

func (c *clock) tick() time.Time {
	t := c.now().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi < idj
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func newID() string {
	return uuid.NewString()
}
