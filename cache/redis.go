package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is an implementation of ChartCache using Redis. Client and Ctx are
// shared with the rate limiters and pub/sub.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
	ttl    time.Duration
}

// NewRedisStore initializes a new RedisStore instance. Entries expire after
// ttl; 0 means persist indefinitely.
func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,     // e.g., "localhost:6379"
		Password: password, // leave empty if no password
		DB:       db,
	})

	ctx := context.Background()
	// Ping Redis to ensure connectivity.
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return &RedisStore{
		Client: rdb,
		Ctx:    ctx,
		ttl:    ttl,
	}, nil
}

// Set stores a value in Redis.
func (r *RedisStore) Set(key string, value []byte) error {
	return r.Client.Set(r.Ctx, key, value, r.ttl).Err()
}

// Get retrieves a value from Redis.
func (r *RedisStore) Get(key string) ([]byte, error) {
	data, err := r.Client.Get(r.Ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

// Delete removes a value from Redis.
func (r *RedisStore) Delete(key string) error {
	return r.Client.Del(r.Ctx, key).Err()
}

// Close closes the Redis client.
func (r *RedisStore) Close() error {
	return r.Client.Close()
}
