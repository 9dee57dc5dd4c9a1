package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps go-redis for the application.
type Client struct {
	rdb *redis.Client
}

// Connect creates a Redis client and verifies connectivity.
func Connect(url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error { return c.rdb.Close() }

// Hit increments the fixed-window counter at key and returns the new count.
// The key expires with the window.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Claim sets key to "0" if it does not exist yet. When it does, claimed is
// false and state holds the stored value.
func (c *Client) Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, state string, err error) {
	ok, err := c.rdb.SetNX(ctx, key, "0", ttl).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, "0", nil
	}
	state, err = c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return c.Claim(ctx, key, ttl)
	}
	return false, state, err
}

// Complete marks a claimed key as done, keeping its expiry.
func (c *Client) Complete(ctx context.Context, key string) error {
	return c.rdb.Set(ctx, key, "1", redis.KeepTTL).Err()
}

// Release forgets a claim so the request may be retried.
func (c *Client) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}
