package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bloodlink/internal/nearby/models"
)

const (
	// candidateKeyPrefix namespaces the cached candidate sets, one per type.
	candidateKeyPrefix = "nearby:candidates:"

	DefaultTTL = 30 * time.Second
)

// RedisCache keeps each candidate set for a short TTL so bursts of nearby
// lookups do not each scan every profile table.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a candidate cache. A non-positive ttl uses
// DefaultTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func key(t models.EntityType) string {
	return candidateKeyPrefix + strings.ToLower(strings.ReplaceAll(string(t), " ", "_"))
}

// Get returns the cached set for t. ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, t models.EntityType) ([]models.Candidate, bool, error) {
	raw, err := c.client.Get(ctx, key(t)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get candidates: %w", err)
	}
	var candidates []models.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, false, fmt.Errorf("decode candidates: %w", err)
	}
	return candidates, true, nil
}

// Set stores the set for t with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, t models.EntityType, candidates []models.Candidate) error {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	return c.client.Set(ctx, key(t), raw, c.ttl).Err()
}

// Invalidate drops the cached sets for the given types.
func (c *RedisCache) Invalidate(ctx context.Context, types ...models.EntityType) error {
	if len(types) == 0 {
		return nil
	}
	keys := make([]string, 0, len(types))
	for _, t := range types {
		keys = append(keys, key(t))
	}
	return c.client.Del(ctx, keys...).Err()
}
