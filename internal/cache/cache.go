package cache

import (
	"context"

	"shareplace_backend/internal/services/dto"
)

// PlaceCache holds place snapshots by id. A miss and a cache failure look
// the same to callers; failures are logged by the implementation.
//
// Invalidate leaves a fence for the id that outlives any snapshot: Set is
// ignored while the fence stands, so a snapshot read before a write can not
// be stored after the write invalidated it.
type PlaceCache interface {
	Get(ctx context.Context, id string) (*dto.PlaceResponse, bool)
	Set(ctx context.Context, place *dto.PlaceResponse)
	Invalidate(ctx context.Context, id string)
}

// Noop is used when the cache is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) (*dto.PlaceResponse, bool) { return nil, false }
func (Noop) Set(context.Context, *dto.PlaceResponse) {}
func (Noop) Invalidate(context.Context, string) {}
