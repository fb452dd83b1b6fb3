package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests - require a disposable Redis, e.g. TEST_REDIS_ADDR=localhost:6379
func newTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires Redis (set TEST_REDIS_ADDR)")
	}

	c, err := NewClient(addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.GetClient().FlushDB(context.Background()).Err())
	return c
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "idempotency:order:abc", idempotencyKey("abc"))
	assert.Equal(t, "lock:order:1", lockKey("order:1"))
}

func TestIdempotencyKeyLifecycle(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	orderID, reserved, err := c.ReserveIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Empty(t, orderID)

	// Second caller sees the first one in flight.
	orderID, reserved, err = c.ReserveIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Empty(t, orderID)

	require.NoError(t, c.CompleteIdempotencyKey(ctx, "k1", "order-1", time.Minute))

	orderID, reserved, err = c.ReserveIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "order-1", orderID)

	// Completed keys survive a release.
	require.NoError(t, c.ReleaseIdempotencyKey(ctx, "k1"))
	orderID, _, err = c.ReserveIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
}

func TestReleasePendingIdempotencyKey(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, reserved, err := c.ReserveIdempotencyKey(ctx, "k2", time.Minute)
	require.NoError(t, err)
	require.True(t, reserved)
	require.NoError(t, c.ReleaseIdempotencyKey(ctx, "k2"))

	_, reserved, err = c.ReserveIdempotencyKey(ctx, "k2", time.Minute)
	require.NoError(t, err)
	assert.True(t, reserved)
}

func TestLock(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	token, ok, err := c.AcquireLock(ctx, "order:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.AcquireLock(ctx, "order:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// A foreign token does not release the lock.
	require.NoError(t, c.ReleaseLock(ctx, "order:1", "someone-else"))
	held, err := c.GetClient().Get(ctx, lockKey("order:1")).Result()
	require.NoError(t, err)
	assert.Equal(t, token, held)

	require.NoError(t, c.ReleaseLock(ctx, "order:1", token))
	_, ok, err = c.AcquireLock(ctx, "order:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
