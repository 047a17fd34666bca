// Package redis stores values as plain Redis strings.
//
// Keys are namespaced with a configurable prefix so several registers can
// share one Redis database. Values never expire.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aanand-mishra/student-register/internal/storage"
)

var _ storage.Storage = (*Client)(nil)

// Config holds Redis connection settings.
type Config struct {
	// Addr is the server address in "host:port" form.
	Addr string

	// Password is the AUTH password (empty if no auth).
	Password string

	// DB is the Redis database number.
	DB int

	// Prefix is prepended to every key.
	Prefix string

	// DialTimeout bounds establishing new connections.
	DialTimeout time.Duration
}

// DefaultConfig returns settings for a local development server.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		Prefix:      "student-register:",
		DialTimeout: 5 * time.Second,
	}
}

// redisAPI is the subset of *redis.Client used here, so tests can swap in
// a fake without a server.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client is a storage.Storage backed by Redis.
type Client struct {
	api    redisAPI
	prefix string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	c, err := NewWithAPI(ctx, rdb, cfg.Prefix)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

// NewWithAPI allows injecting a mockable API (used in tests).
func NewWithAPI(ctx context.Context, api redisAPI, prefix string) (*Client, error) {
	if err := api.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}
	return &Client{api: api, prefix: prefix}, nil
}

func (c *Client) key(key string) string {
	return c.prefix + key
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.api.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return value, nil
}

func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	if err := c.api.Set(ctx, c.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.api.Close()
}
