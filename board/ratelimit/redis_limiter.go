// board/ratelimit/redis_limiter.go
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	sharedredis "github.com/Ftotnem/LIVEBOARD/shared/redis"
)

// RedisLimiter keeps the sliding window in a sorted set per caller, so every
// board instance sharing the Redis sees the same budget.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	scope  string
	rate   int
	window time.Duration
	clock  clock.Clock
}

func NewRedis(rdb redis.UniversalClient, scope string, rate int, window time.Duration, clk clock.Clock) *RedisLimiter {
	if clk == nil {
		clk = clock.Real()
	}
	return &RedisLimiter{rdb: rdb, scope: scope, rate: rate, window: window, clock: clk}
}

// Allow trims old hits, records this one and counts the window in a single
// transaction. A rejected request is removed again so it does not use budget.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf(sharedredis.RateLimitKeyPrefix, l.scope, key)
	now := l.clock.Now()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10)

	var count *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		count = pipe.ZCard(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit check for %s failed: %w", key, err)
	}

	if count.Val() > int64(l.rate) {
		if err := l.rdb.ZRem(ctx, redisKey, member).Err(); err != nil {
			return false, fmt.Errorf("failed to roll back rejected hit for %s: %w", key, err)
		}
		return false, nil
	}
	return true, nil
}
