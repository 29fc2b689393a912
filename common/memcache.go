package common

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

const (
	// DefaultExpiration is applied when callers pass a zero expiration.
	DefaultExpiration = 30 * time.Minute
	cleanupInterval   = 32 * time.Minute
)

var _ CacheRepository = (*cacheStore)(nil)

// cacheStore is the in-memory CacheRepository backed by go-cache.
type cacheStore struct {
	cache *cache.Cache
}

// NewCacheStore returns an in-memory CacheRepository with periodic cleanup
// of expired entries.
func NewCacheStore() CacheRepository {
	return &cacheStore{
		cache: cache.New(DefaultExpiration, cleanupInterval),
	}
}

func (c *cacheStore) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if found {
		return value.([]byte), true
	}
	return nil, false
}

func (c *cacheStore) Set(key string, value []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	c.cache.Set(key, value, expiration)
}

func (c *cacheStore) Delete(key string) {
	c.cache.Delete(key)
}
