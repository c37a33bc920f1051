//go:build integration

package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/bgg-xml-client/internal/testutil"
	"github.com/Sternrassler/bgg-xml-client/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "start Redis container")

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, rdb.Ping(ctx).Err())

	t.Cleanup(func() {
		rdb.Close()
		_ = redisContainer.Terminate(ctx)
	})
	return rdb
}

func TestClient_Integration_SharedRedisWindow(t *testing.T) {
	rdb := setupRedis(t)
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetResponse("/plays", testutil.NewXMLResponse(playsXML))

	src := newTestSource(t, mock.URL(), func(c *config.Config) {
		c.Admission.WindowSize = 400 * time.Millisecond
		c.Admission.WindowLimit = 2
	})
	a := newTestClient(t, src, WithRedis(rdb, "bgg:window:it"))
	b := newTestClient(t, src, WithRedis(rdb, "bgg:window:it"))

	ctx := context.Background()
	start := time.Now()

	var wg sync.WaitGroup
	for _, c := range []*Client{a, b, a, b} {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			out := c.Execute(ctx, Request{URL: "plays"})
			assert.True(t, out.OK(), "%v", out.Err)
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 4, mock.RequestCount())
	assert.GreaterOrEqual(t, time.Since(start), 350*time.Millisecond,
		"four requests through a shared window of two span a rollover")
}

func TestClient_Integration_RetryThroughRedisWindow(t *testing.T) {
	rdb := setupRedis(t)
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetStatuses("/plays", playsXML, 202, 500, 200)

	c := newTestClient(t, newTestSource(t, mock.URL(), nil), WithRedis(rdb, "bgg:window:retry"))

	out := Fetch[testPlays](context.Background(), c, Request{URL: "plays"})

	require.True(t, out.OK(), "%v", out.Err)
	assert.Equal(t, 2, out.Value.Total)
	assert.Equal(t, 3, mock.PathCount("/plays"))

	n, err := rdb.Exists(context.Background(), "bgg:window:retry").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "every attempt is counted in the shared window")
}
