package bucket

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bloodlink/internal/ratelimit/models"
)

// slidingWindowScript trims the window, admits the call when under limit and
// returns {allowed, count, oldest_ms}. Runs atomically on the server.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = tostring(now)
if oldest[2] then
  oldestScore = oldest[2]
end
return {allowed, count, oldestScore}
`)

// RedisBucketStore shares sliding windows between replicas using one sorted
// set per key.
type RedisBucketStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisBucketStore(client *redis.Client) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	raw, err := slidingWindowScript.Run(ctx, s.client, []string{key}, nowMs, window.Milliseconds(), limit, member).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(raw) != 3 {
		return nil, fmt.Errorf("rate limit script: unexpected reply of %d values", len(raw))
	}
	allowed, _ := raw[0].(int64)
	count, _ := raw[1].(int64)
	oldestMs, err := strconv.ParseFloat(fmt.Sprint(raw[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("rate limit script: oldest score: %w", err)
	}

	resetAt := time.UnixMilli(int64(oldestMs)).Add(window)
	result := &models.RateLimitResult{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(resetAt.Sub(now))
	}
	return result, nil
}

func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}

// GetCurrentCount counts entries as of the last Allow; expired entries are
// only trimmed there.
func (s *RedisBucketStore) GetCurrentCount(ctx context.Context, key string) (int, error) {
	n, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit: %w", err)
	}
	return int(n), nil
}
