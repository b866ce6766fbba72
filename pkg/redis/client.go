package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/akshayr/portfolio-coach/pkg/config"
)

// Client wraps the Redis connection. A disabled client is valid and
// turns every cache lookup into a miss, so callers never branch on
// whether Redis is configured.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects per config. With REDIS_ENABLED=false the returned
// client is a no-op; with Redis enabled a failed ping is an error so
// misconfiguration surfaces at startup, not as silent cache misses.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether the client holds a live connection.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis exposes the underlying client for operations the Cache helper
// does not cover.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
