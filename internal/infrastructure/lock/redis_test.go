package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
)

// newTestClient connects to REDIS_TEST_ADDR or skips.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c, err := NewClient(context.Background(), Config{Addr: addr, TTL: 5 * time.Second, Wait: 200 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_AcquireRelease(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	keys := []string{"item:" + id.New().String(), "item:" + id.New().String()}

	release, err := c.Acquire(ctx, keys)
	require.NoError(t, err)

	_, err = c.Acquire(ctx, keys[1:])
	assert.True(t, apperror.HasCode(err, apperror.CodeLocked))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := c.Acquire(ctx, keys)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestClient_PartialFailureReleasesHeldKeys(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	free, busy := "item:"+id.New().String(), "item:"+id.New().String()

	hold, err := c.Acquire(ctx, []string{busy})
	require.NoError(t, err)
	defer func() { _ = hold(ctx) }()

	_, err = c.Acquire(ctx, []string{free, busy})
	require.Error(t, err)

	release, err := c.Acquire(ctx, []string{free})
	require.NoError(t, err, "first key must have been released")
	require.NoError(t, release(ctx))
}
