package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rapidbounce/postfactory/config"
)

const tagKeyPrefix = "vision:tags:"

// TagCache memoizes vision tags per image URL in redis. Listing galleries
// repeat across runs of the same hotel, and vision calls are the slowest and
// most rate-limited part of the pipeline.
type TagCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect opens a redis-backed tag cache. Returns an error when redis is
// configured but unreachable; callers treat the cache as optional.
func Connect(ctx context.Context, cfg config.CacheConfig) (*TagCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s): %w", cfg.RedisAddr, err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TagCache{client: client, ttl: ttl}, nil
}

// Get returns the cached tags for imageURL, or ok=false on miss or error.
func (c *TagCache) Get(ctx context.Context, imageURL string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, tagKeyPrefix+imageURL).Result()
	if err != nil {
		return nil, false
	}
	var tags []string
	if err := json.Unmarshal([]byte(val), &tags); err != nil {
		return nil, false
	}
	return tags, true
}

// Set stores tags for imageURL. Errors are swallowed; the cache is advisory.
func (c *TagCache) Set(ctx context.Context, imageURL string, tags []string) {
	if c == nil {
		return
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, tagKeyPrefix+imageURL, data, c.ttl).Err()
}
