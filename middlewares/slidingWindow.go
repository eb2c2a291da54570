package middlewares

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func (rl *RateLimiter) slidingWindow(ctx context.Context, key string) (decision, error) {
	now := time.Now().UnixMilli()
	windowStart := now - rl.window.Milliseconds()

	pipe := rl.store.Client.TxPipeline()
	// Remove old entries, then add the current request.
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now),
		Member: strconv.FormatInt(now, 10) + "-" + uuid.NewString(),
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rl.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return decision{}, err
	}

	count := card.Val()
	return decision{allowed: count <= rl.limit, remaining: rl.limit - count, reset: rl.window}, nil
}
