package caption

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// CacheTTL is how long an image analysis is reused.
const CacheTTL = 24 * time.Hour

const cacheKeyPrefix = "caption:"

// Cache stores analyses by image hash.
type Cache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, key string, r *Result) error
}

// ImageKey returns the SHA-256 hex digest of the image bytes.
func ImageKey(img []byte) string {
	sum := sha256.Sum256(img)
	return hex.EncodeToString(sum[:])
}

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache wraps a connected client. A non-positive ttl uses CacheTTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = CacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// DialRedis connects to the Redis server at url and checks it responds.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Result, error) {
	val, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached analysis: %w", err)
	}

	var r Result
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, fmt.Errorf("decoding cached analysis: %w", err)
	}
	return &r, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r *Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching analysis: %w", err)
	}
	return nil
}
