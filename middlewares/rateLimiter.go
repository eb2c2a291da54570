package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"streamlit-analytics/cache"
	"streamlit-analytics/logger"
)

// Rate limit algorithms understood by NewRateLimiter.
const (
	FixedWindow   = "fixed"
	SlidingWindow = "sliding"
	TokenBucket   = "token"
	LeakyBucket   = "leaky"
	RateLimitOff  = "off"
)

// decision is the outcome of one rate limit check.
type decision struct {
	allowed   bool
	remaining int64
	reset     time.Duration
}

// RateLimiter throttles per client IP and path with counters kept in Redis.
// A nil store lets every request pass.
type RateLimiter struct {
	store  *cache.RedisStore
	mode   string
	limit  int64
	window time.Duration
}

func NewRateLimiter(store *cache.RedisStore, mode string, limit int64, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{store: store, mode: mode, limit: limit, window: window}
}

func (rl *RateLimiter) check(ctx context.Context, key string) (decision, error) {
	switch rl.mode {
	case SlidingWindow:
		return rl.slidingWindow(ctx, key)
	case TokenBucket:
		return rl.tokenBucket(ctx, key)
	case LeakyBucket:
		return rl.leakyBucket(ctx, key)
	default:
		return rl.fixedWindow(ctx, key)
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil || rl.store == nil || rl.mode == RateLimitOff || rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "rate:" + rl.mode + ":" + getIPAddress(r) + ":" + r.URL.Path
		d, err := rl.check(r.Context(), key)
		if err != nil {
			// In case of error, let the request pass.
			logger.Log.WithError(err).Warn("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}

		remaining := d.remaining
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(d.reset.Seconds())))

		if !d.allowed {
			http.Error(w, "Rate limit exceeded. Try again later.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) fixedWindow(ctx context.Context, key string) (decision, error) {
	client := rl.store.Client
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return decision{}, err
	}
	// If this is the first request, start the window.
	if count == 1 {
		client.Expire(ctx, key, rl.window)
	}

	reset := rl.window
	if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		reset = ttl
	}
	return decision{allowed: count <= rl.limit, remaining: rl.limit - count, reset: reset}, nil
}
