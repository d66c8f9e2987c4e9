package cache

import (
	"context"
	"encoding/json"
	"errors"
	"field-route-service/internal/domain"
	"field-route-service/internal/platform/obs"
	"field-route-service/internal/ports"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const legKeyPrefix = "leg:"

// RedisLegCache stores road legs as JSON values with a TTL.
type RedisLegCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.LegCache = (*RedisLegCache)(nil)

// NewRedisLegCache wraps client. A ttl <= 0 stores legs without expiry.
func NewRedisLegCache(client *redis.Client, ttl time.Duration) *RedisLegCache {
	return &RedisLegCache{client: client, ttl: ttl}
}

// NewRedisLegCacheFromURL parses a redis:// URL and verifies the connection.
func NewRedisLegCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisLegCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis leg cache: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis leg cache: ping: %w", err)
	}

	return NewRedisLegCache(client, ttl), nil
}

func (r *RedisLegCache) key(from, to domain.Coordinates) string {
	origin, destination := legKey(from, to)
	return legKeyPrefix + origin + "|" + destination
}

func (r *RedisLegCache) Get(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
) (_ ports.RoadLeg, _ bool, err error) {
	defer obs.Time(ctx, "leg.redis.Get")(&err)

	raw, err := r.client.Get(ctx, r.key(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.RoadLeg{}, false, nil
	}
	if err != nil {
		return ports.RoadLeg{}, false, fmt.Errorf("redis leg cache get: %w", err)
	}

	var stored storedLeg
	if err := json.Unmarshal(raw, &stored); err != nil {
		return ports.RoadLeg{}, false, fmt.Errorf("redis leg cache get: decode: %w", err)
	}

	return stored.decode(), true, nil
}

func (r *RedisLegCache) Put(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	leg ports.RoadLeg,
) error {
	raw, err := json.Marshal(encodeLeg(leg))
	if err != nil {
		return fmt.Errorf("redis leg cache put: encode: %w", err)
	}

	if err := r.client.Set(ctx, r.key(from, to), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis leg cache put: %w", err)
	}
	return nil
}

func (r *RedisLegCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLegCache) Close() error {
	return r.client.Close()
}
