package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient needs a live redis; the test is skipped without one.
func newTestClient(t *testing.T) *RedisClient {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	c, err := NewRedisClient(context.Background(), Config{Addr: addr, Prefix: "test:" + uuid.NewString() + ":"})
	if err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		_ = c.DeletePattern(context.Background(), "*")
		_ = c.Close()
	})
	return c
}

func TestGetSetDeletePattern(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "products:list:all")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "products:list:all", []byte(`[]`), time.Minute))
	require.NoError(t, c.Set(ctx, "settings:tax", []byte(`16`), time.Minute))
	data, ok, err := c.Get(ctx, "products:list:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, c.DeletePattern(ctx, "products:list:*"))
	_, ok, _ = c.Get(ctx, "products:list:all")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "settings:tax")
	assert.True(t, ok)
}

func TestLockIsExclusiveAndTokenBound(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	token, err := c.AcquireLock(ctx, "product:p1", time.Minute)
	require.NoError(t, err)

	_, err = c.AcquireLock(ctx, "product:p1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, c.ReleaseLock(ctx, "product:p1", "not-the-token"))
	_, err = c.AcquireLock(ctx, "product:p1", time.Minute)
	assert.ErrorIs(t, err, ErrLockHeld, "a foreign token must not release the lock")

	require.NoError(t, c.ReleaseLock(ctx, "product:p1", token))
	_, err = c.AcquireLock(ctx, "product:p1", time.Minute)
	assert.NoError(t, err)
}
