package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/compare_and_delete.lua
var compareAndDeleteScript string

// pendingMarker is stored under an idempotency key while the first request is still running.
const pendingMarker = "pending"

type Client struct {
	rdb           *redis.Client
	compareAndDel *redis.Script
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewClientFromRedis(rdb), nil
}

// NewClientFromRedis wraps an existing connection.
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		compareAndDel: redis.NewScript(compareAndDeleteScript),
	}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func idempotencyKey(key string) string { return "idempotency:order:" + key }

func lockKey(key string) string { return "lock:" + key }

// ReserveIdempotencyKey claims key for a new order creation.
// reserved is true when the caller owns the key and must create the order.
// Otherwise orderID holds the order created under the key, or is empty while
// the first request is still in flight.
func (c *Client) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (orderID string, reserved bool, err error) {
	k := idempotencyKey(key)

	ok, err := c.rdb.SetNX(ctx, k, pendingMarker, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := c.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = c.rdb.SetNX(ctx, k, pendingMarker, ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		return "", ok, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", false, nil
	}
	return val, false, nil
}

// CompleteIdempotencyKey records the order created under key.
func (c *Client) CompleteIdempotencyKey(ctx context.Context, key, orderID string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, idempotencyKey(key), orderID, ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// ReleaseIdempotencyKey frees a key whose creation failed so the client can retry.
// A completed key is left untouched.
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	if _, err := c.compareAndDel.Run(ctx, c.rdb, []string{idempotencyKey(key)}, pendingMarker).Result(); err != nil {
		return fmt.Errorf("release idempotency key script failed: %w", err)
	}
	return nil
}

// AcquireLock acquires a distributed lock. The returned token must be passed to ReleaseLock.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error) {
	token = uuid.New().String()
	acquired, err = c.rdb.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock releases a lock only if it is still held with token.
func (c *Client) ReleaseLock(ctx context.Context, key, token string) error {
	if _, err := c.compareAndDel.Run(ctx, c.rdb, []string{lockKey(key)}, token).Result(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}
