package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves as an always-empty cache.
type Client struct {
	client *redis.Client
	prefix string
}

// New creates a new Redis client. Every key is namespaced with prefix.
func New(addr, password string, db int, prefix string) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts), prefix: prefix}
}

// Ping reports whether redis is reachable. Callers treat failure as a warning.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON decodes the value at key into dest. It reports false on a miss,
// on redis failure, or when the stored value does not decode.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		// redis.Nil and connectivity errors are both a miss
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Version returns the invalidation counter of key, 0 when it was never
// invalidated or redis is unreachable.
func (c *Client) Version(ctx context.Context, key string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	version, err := c.client.Get(ctx, c.versionKey(key)).Int64()
	if err != nil {
		return 0
	}
	return version
}

// SetJSONIfVersion stores value as JSON with TTL unless key was invalidated
// after version was read. Redis errors and lost races skip the write.
func (c *Client) SetJSONIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	versionKey := c.versionKey(key)
	_ = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.prefix+key, payload, ttl)
			return nil
		})
		return err
	}, versionKey)
}

// Invalidate removes key and bumps its version, so a reader that loaded the
// value before the change cannot store it afterwards.
func (c *Client) Invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.versionKey(key))
	pipe.Del(ctx, c.prefix+key)
	_, _ = pipe.Exec(ctx)
}

func (c *Client) versionKey(key string) string {
	return c.prefix + key + ":version"
}
