package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores search results under a version number. Bumping the
// version orphans every cached search at once; orphans expire by TTL.
type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL}
}

func (c *RedisCache) Close() error { return c.client.Close() }

// GetSearch returns ok=false on a miss. The returned version is the one the
// lookup ran under; pass it back to SetSearch so results read before an
// invalidation land on an orphaned key.
func (c *RedisCache) GetSearch(ctx context.Context, key string) ([]domain.FlightDetails, int64, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.client.Get(ctx, searchKey(version, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, version, false, nil
		}
		return nil, version, false, err
	}

	var flights []domain.FlightDetails
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, version, false, fmt.Errorf("decode cached search: %w", err)
	}
	return flights, version, true, nil
}

// SetSearch stores flights under version, never the current one.
func (c *RedisCache) SetSearch(ctx context.Context, version int64, key string, flights []domain.FlightDetails) error {
	if c.searchTTL <= 0 {
		return nil
	}
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(version, key), payload, c.searchTTL).Err()
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey()).Err()
}

// ClaimIdempotencyKey returns false when the key was already claimed for
// the same flight and has not expired.
func (c *RedisCache) ClaimIdempotencyKey(ctx context.Context, flightID int64, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, idempotencyKey(flightID, key), "claimed", ttl).Result()
}

func (c *RedisCache) ReleaseIdempotencyKey(ctx context.Context, flightID int64, key string) error {
	return c.client.Del(ctx, idempotencyKey(flightID, key)).Err()
}

func (c *RedisCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func versionKey() string {
	return "cache:flights:version"
}

func searchKey(version int64, key string) string {
	return fmt.Sprintf("cache:flights:v%d:%s", version, key)
}

func idempotencyKey(flightID int64, key string) string {
	return fmt.Sprintf("idempotency:seats:%d:%s", flightID, key)
}
