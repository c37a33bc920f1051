//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start Redis container")

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err, "get Redis endpoint")

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, client.Ping(ctx).Err())

	t.Cleanup(func() {
		client.Close()
		_ = redisContainer.Terminate(ctx)
	})
	return client
}

func TestRedisStore_Integration_Reserve(t *testing.T) {
	client := setupRedis(t)
	store := NewRedisStore(client, "bgg:window:test-reserve")
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		r, err := store.Reserve(ctx, time.Second, 3)
		require.NoError(t, err)
		assert.True(t, r.Admitted, "reservation %d", i)
		assert.Equal(t, i, r.Count)
	}

	r, err := store.Reserve(ctx, time.Second, 3)
	require.NoError(t, err)
	assert.False(t, r.Admitted)
	assert.Greater(t, r.Wait, time.Duration(0))
	assert.LessOrEqual(t, r.Wait, time.Second)

	ttl, err := client.PTTL(ctx, store.Key()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "window key must carry an expiry")
}

func TestRedisStore_Integration_SharedWindow(t *testing.T) {
	client := setupRedis(t)
	settings := func() (time.Duration, int) { return 300 * time.Millisecond, 2 }

	a := NewLimiter(NewRedisStore(client, "bgg:window:shared"), settings, zerolog.Nop())
	b := NewLimiter(NewRedisStore(client, "bgg:window:shared"), settings, zerolog.Nop())
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, a.Wait(ctx))
	require.NoError(t, b.Wait(ctx))
	require.NoError(t, a.Wait(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond,
		"third admission across both limiters waits for the shared window")
}

func TestRedisStore_Integration_SeparateKeys(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	a := NewRedisStore(client, "bgg:window:a")
	b := NewRedisStore(client, "bgg:window:b")

	r, err := a.Reserve(ctx, time.Minute, 1)
	require.NoError(t, err)
	require.True(t, r.Admitted)

	r, err = b.Reserve(ctx, time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, r.Admitted, "distinct keys never share a window")
}
