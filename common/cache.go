package common

import "time"

// CacheRepository defines a minimal interface for a key/value cache.
// The values are stored as raw []byte, which you can marshal/unmarshal
// from JSON or other formats as needed.
//
// Two implementations ship with this module:
//   - NewCacheStore: an in-memory cache (go-cache)
//   - NewRedisCache: a Redis-backed cache for shared deployments
type CacheRepository interface {
	Get(key string) (value []byte, found bool)
	Set(key string, value []byte, expiration time.Duration)
	Delete(key string)
}
