package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"shareplace_backend/internal/logger"
	"shareplace_backend/internal/services/dto"
)

const keyPrefix = "shareplace:place:"

// fenceValue marks an invalidated id. It is never valid JSON.
const fenceValue = "\x00fence"

// setUnlessFenced stores a snapshot unless the key holds a fence.
var setUnlessFenced = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[2] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// Config for the Redis snapshot cache.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisPlaceCache is a read-through snapshot cache over Redis.
type RedisPlaceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewRedisPlaceCache(client *redis.Client, ttl time.Duration) *RedisPlaceCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisPlaceCache{client: client, ttl: ttl}
}

func (c *RedisPlaceCache) Get(ctx context.Context, id string) (*dto.PlaceResponse, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.CtxWithError(ctx, "Place cache read failed", err, "place_id", id)
		}
		return nil, false
	}

	if string(raw) == fenceValue {
		return nil, false
	}

	var place dto.PlaceResponse
	if err := json.Unmarshal(raw, &place); err != nil {
		logger.CtxWithError(ctx, "Place cache entry is corrupt", err, "place_id", id)
		c.client.Del(ctx, keyPrefix+id)
		return nil, false
	}
	return &place, true
}

func (c *RedisPlaceCache) Set(ctx context.Context, place *dto.PlaceResponse) {
	raw, err := json.Marshal(place)
	if err != nil {
		logger.CtxWithError(ctx, "Place cache encode failed", err, "place_id", place.ID)
		return
	}
	err = setUnlessFenced.Run(ctx, c.client, []string{keyPrefix + place.ID}, raw, fenceValue, c.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.CtxWithError(ctx, "Place cache write failed", err, "place_id", place.ID)
	}
}

func (c *RedisPlaceCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Set(ctx, keyPrefix+id, fenceValue, fenceTTL(c.ttl)).Err(); err != nil {
		logger.CtxWithError(ctx, "Place cache invalidation failed", err, "place_id", id)
	}
}
