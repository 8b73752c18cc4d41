package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the Cache interface with a Redis server, for deployments
// running more than one API instance. Failures are logged and degrade
// to cache misses; the cache never takes a request down with it.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to the given Redis URL (redis://...) and verifies
// the connection with a ping.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Redis{client: client, prefix: "visatrack:"}, nil
}

// Get returns the cached value, or a miss on absence or error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("[cache] redis get %s: %v", key, err)
		return nil, false
	}
	return value, true
}

// Set stores a value for the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		log.Printf("[cache] redis set %s: %v", key, err)
	}
}

// Delete removes a single key.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		log.Printf("[cache] redis del %s: %v", key, err)
	}
}

// Clear drops all keys under the cache prefix.
func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("[cache] redis clear %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("[cache] redis scan: %v", err)
	}
}
