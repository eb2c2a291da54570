package middlewares

import (
	"context"
	"fmt"
	"time"
)

// TokenBucketScript is a Lua script for token bucket rate limiting.
const TokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refillRate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local bucket = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(bucket[1])
local last_refill = tonumber(bucket[2])
if tokens == nil then
  tokens = capacity
  last_refill = now
end

local delta = now - last_refill
local refill = delta * refillRate
tokens = math.min(capacity, tokens + refill)
if tokens < requested then
  return -1
else
  tokens = tokens - requested
  redis.call("HMSET", key, "tokens", tokens, "last_refill", now)
  redis.call("EXPIRE", key, 3600)
  return tokens
end
`

// tokenBucket refills limit tokens per window; every request takes one.
func (rl *RateLimiter) tokenBucket(ctx context.Context, key string) (decision, error) {
	refillRate := float64(rl.limit) / float64(rl.window.Milliseconds())
	res, err := rl.store.Client.Eval(ctx, TokenBucketScript, []string{key},
		rl.limit, refillRate, time.Now().UnixMilli(), 1).Result()
	if err != nil {
		return decision{}, err
	}
	// Lua numbers come back truncated to integers.
	tokensLeft, ok := res.(int64)
	if !ok {
		return decision{}, fmt.Errorf("unexpected token bucket reply %T", res)
	}
	return decision{
		allowed:   tokensLeft >= 0,
		remaining: tokensLeft,
		reset:     time.Duration(float64(time.Millisecond) / refillRate),
	}, nil
}
