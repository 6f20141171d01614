// Package redis backs the desk's exposure cache, resolve locks, API rate
// limits and event bus with go-redis/v9.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type ClientConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
	// KeyPrefix namespaces every key and channel, e.g. "lottodesk:".
	KeyPrefix string
}

// Client is a connected go-redis client plus the desk key prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// New dials Redis and fails unless it answers PING.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	c := &Client{rdb: redis.NewClient(opts), prefix: cfg.KeyPrefix}
	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) key(kind, id string) string {
	return namespaced(c.prefix, kind, id)
}

// namespaced builds prefix+kind[:id].
func namespaced(prefix, kind, id string) string {
	if id == "" {
		return prefix + kind
	}
	return prefix + kind + ":" + id
}
