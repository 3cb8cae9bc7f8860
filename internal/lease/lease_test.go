package lease_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/builderbot/internal/lease"
)

func TestNoopNeverBlocks(t *testing.T) {
	ctx := context.Background()
	var l lease.Locker = lease.Noop{}

	a, err := l.Acquire(ctx, "builds", time.Minute)
	require.NoError(t, err)
	b, err := l.Acquire(ctx, "builds", time.Minute)
	require.NoError(t, err)

	assert.NoError(t, a.Release(ctx))
	assert.NoError(t, b.Release(ctx))
}

// TestRedisExclusion runs against a real server when BUILDERBOT_TEST_REDIS_URL is set.
func TestRedisExclusion(t *testing.T) {
	url := os.Getenv("BUILDERBOT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("BUILDERBOT_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	client, err := lease.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer client.Close()

	key := "builderbot:test:" + t.Name()
	client.Del(ctx, key)

	l := lease.NewRedis(client, nil)
	first, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key, time.Minute)
	assert.ErrorIs(t, err, lease.ErrHeld)

	require.NoError(t, first.Release(ctx))
	require.NoError(t, first.Release(ctx))

	second, err := l.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, second.Release(ctx))
}
