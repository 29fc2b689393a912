package common

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ CacheRepository = (*redisCache)(nil)

// redisCache is a Redis-backed CacheRepository, useful when several
// processes should share one view of the cached API responses.
type redisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache wraps an existing go-redis client as a CacheRepository.
// The CacheRepository interface is synchronous, so the given context is
// used for every Redis operation.
func NewRedisCache(ctx context.Context, client *redis.Client) CacheRepository {
	return &redisCache{
		client: client,
		ctx:    ctx,
	}
}

func (r *redisCache) Get(key string) ([]byte, bool) {
	value, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		// redis.Nil and transport errors are both treated as a miss;
		// the caller re-fetches from the origin either way.
		return nil, false
	}
	return value, true
}

func (r *redisCache) Set(key string, value []byte, expiration time.Duration) {
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	r.client.Set(r.ctx, key, value, expiration)
}

func (r *redisCache) Delete(key string) {
	r.client.Del(r.ctx, key)
}
