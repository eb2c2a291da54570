package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache"
	"github.com/cespare/xxhash/v2"

	"streamlit-analytics/models"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache miss")

// ChartCache stores rendered charts.
type ChartCache interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Close() error
}

// ChartKey identifies a rendered chart. The chart only depends on the per-day
// series and the canvas size.
func ChartKey(series models.DailySeries, width, height int) (string, error) {
	data, err := json.Marshal(series)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("chart:%016x:%dx%d", xxhash.Sum64(data), width, height), nil
}

// BigCacheStore is an implementation of ChartCache using BigCache.
type BigCacheStore struct {
	cache *bigcache.BigCache
}

// NewBigCacheStore initializes a new BigCacheStore.
func NewBigCacheStore(lifeWindow time.Duration) (*BigCacheStore, error) {
	if lifeWindow <= 0 {
		lifeWindow = 10 * time.Minute
	}
	config := bigcache.Config{
		Shards:             64,
		LifeWindow:         lifeWindow,
		CleanWindow:        lifeWindow / 2,
		MaxEntriesInWindow: 1000,
		// rendered SVGs are a few tens of KB
		MaxEntrySize:     64 * 1024,
		HardMaxCacheSize: 64,
		Verbose:          false,
	}
	bc, err := bigcache.NewBigCache(config)
	if err != nil {
		return nil, err
	}
	return &BigCacheStore{
		cache: bc,
	}, nil
}

// Set stores a value in the cache.
func (b *BigCacheStore) Set(key string, value []byte) error {
	return b.cache.Set(key, value)
}

// Get retrieves a value from the cache.
func (b *BigCacheStore) Get(key string) ([]byte, error) {
	data, err := b.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, ErrMiss
	}
	return data, err
}

// Delete removes a value from the cache.
func (b *BigCacheStore) Delete(key string) error {
	err := b.cache.Delete(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

// Close stops the cache (BigCache doesn't need explicit closing, so we return nil).
func (b *BigCacheStore) Close() error {
	return nil
}
