package middlewares

import (
	"context"
	"fmt"
	"time"
)

// LeakyBucketScript is a Lua script for leaky bucket rate limiting.
const LeakyBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local leakRate = tonumber(ARGV[2])  -- units per millisecond
local now = tonumber(ARGV[3])
local requestCost = tonumber(ARGV[4])

local bucket = redis.call("HMGET", key, "level", "last_update")
local level = tonumber(bucket[1])
local lastUpdate = tonumber(bucket[2])
if level == nil then
  level = 0
  lastUpdate = now
end

local delta = now - lastUpdate
local leaked = delta * leakRate
level = math.max(0, level - leaked)

if level + requestCost > capacity then
  return -1
else
  level = level + requestCost
  redis.call("HMSET", key, "level", level, "last_update", now)
  redis.call("EXPIRE", key, 3600)
  return level
end
`

// leakyBucket drains limit units per window; every request adds one.
func (rl *RateLimiter) leakyBucket(ctx context.Context, key string) (decision, error) {
	leakRate := float64(rl.limit) / float64(rl.window.Milliseconds())
	res, err := rl.store.Client.Eval(ctx, LeakyBucketScript, []string{key},
		rl.limit, leakRate, time.Now().UnixMilli(), 1).Result()
	if err != nil {
		return decision{}, err
	}
	level, ok := res.(int64)
	if !ok {
		return decision{}, fmt.Errorf("unexpected leaky bucket reply %T", res)
	}
	if level < 0 {
		return decision{allowed: false, remaining: 0, reset: time.Duration(float64(time.Millisecond) / leakRate)}, nil
	}
	return decision{allowed: true, remaining: rl.limit - level, reset: rl.window}, nil
}
