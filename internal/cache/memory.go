package cache

import (
	"context"
	"sync"
	"time"

	"shareplace_backend/internal/services/dto"
)

type memoryEntry struct {
	place   *dto.PlaceResponse // nil for a fence
	expires time.Time
}

// MemoryPlaceCache is an in-process PlaceCache for single-instance
// deployments and tests.
type MemoryPlaceCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryPlaceCache(ttl time.Duration) *MemoryPlaceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryPlaceCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryPlaceCache) Get(_ context.Context, id string) (*dto.PlaceResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(id)
	if !ok || e.place == nil {
		return nil, false
	}
	snapshot := *e.place
	return &snapshot, true
}

func (c *MemoryPlaceCache) Set(_ context.Context, place *dto.PlaceResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.live(place.ID); ok && e.place == nil {
		return
	}
	snapshot := *place
	c.entries[place.ID] = memoryEntry{place: &snapshot, expires: c.now().Add(c.ttl)}
}

func (c *MemoryPlaceCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = memoryEntry{expires: c.now().Add(fenceTTL(c.ttl))}
}

// live returns the unexpired entry for id, dropping an expired one.
func (c *MemoryPlaceCache) live(id string) (memoryEntry, bool) {
	e, ok := c.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, id)
		return memoryEntry{}, false
	}
	return e, true
}

// fenceTTL keeps a fence at least as long as a snapshot may live.
func fenceTTL(ttl time.Duration) time.Duration {
	return 2 * ttl
}
