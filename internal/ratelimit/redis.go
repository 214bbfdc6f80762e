package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "financetrack:ratelimit:"

// RedisLimiter keeps a sliding window per key in a Redis sorted set, so
// every dashboard instance sharing the server sees the same counts.
type RedisLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisLimiter wraps client.
func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func (l *RedisLimiter) Name() string { return "redis" }

// Check records the request and counts the ones still inside the window.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if l.client == nil {
		return Result{}, errors.New("redis client is not configured for rate limiting")
	}
	now := l.now()
	if limit <= 0 {
		return Result{ResetAt: now.Add(window)}, nil
	}

	redisKey := redisKeyPrefix + key
	cutoff := float64(now.Add(-window).UnixNano()) / float64(time.Millisecond)
	score := float64(now.UnixNano()) / float64(time.Millisecond)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: score, Member: uuid.NewString()})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %q: %w", key, err)
	}

	n := int(count.Val())
	remaining := limit - n
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   n <= limit,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}, nil
}
