// SPDX-License-Identifier: Apache-2.0

// Package redisbridge publishes door/light state to Redis pub/sub and
// watches a Redis list for inbound home-automation commands,
// translating both directions through a small Sink interface so the
// bridge never depends on pkg/door directly.
package redisbridge

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client with the handful of operations the
// bridge needs: hash writes paired with a pub/sub notification, and a
// blocking list pop for inbound commands.
type Client struct {
	rdb *redis.Client
	ctx context.Context
}

// NewClient connects to addr (host:port) and verifies the connection
// with a PING before returning.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisbridge: connect to %s: %w", addr, err)
	}

	return &Client{rdb: rdb, ctx: ctx}, nil
}

// WriteAndPublish HSETs field=value under key and publishes
// "field:value" on a channel named after key, as one pipeline.
func (c *Client) WriteAndPublish(key, field, value string) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(c.ctx, key, field, value)
	pipe.Publish(c.ctx, key, fmt.Sprintf("%s:%s", field, value))
	_, err := pipe.Exec(c.ctx)
	return err
}

// BRPop performs a blocking RPOP on key, waiting up to timeout (0 =
// forever). A timeout is reported as a nil slice and nil error, not
// redis.Nil, so callers can loop without special-casing it.
func (c *Client) BRPop(timeout time.Duration, key string) ([]string, error) {
	result, err := c.rdb.BRPop(c.ctx, timeout, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
