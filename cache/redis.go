package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a shared Redis instance, so rate and token
// caches survive restarts and are shared between replicas.
type Redis struct {
	client *redis.Client
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(key string) (string, bool) {
	value, err := r.client.Get(context.Background(), key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Redis GET %s failed: %v", key, err)
		}
		return "", false
	}
	return value, true
}

func (r *Redis) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		r.Delete(key)
		return
	}
	if err := r.client.Set(context.Background(), key, value, ttl).Err(); err != nil {
		log.Printf("Redis SET %s failed: %v", key, err)
	}
}

func (r *Redis) Delete(key string) {
	if err := r.client.Del(context.Background(), key).Err(); err != nil {
		log.Printf("Redis DEL %s failed: %v", key, err)
	}
}
