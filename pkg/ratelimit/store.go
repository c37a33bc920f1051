package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store performs the atomic check-and-increment of a window.
type Store interface {
	Reserve(ctx context.Context, size time.Duration, limit int) (Reservation, error)
}

// MemoryStore keeps one window in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	state WindowState
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory window.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty in-memory window that reads the
// time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

// Reserve implements Store.
func (m *MemoryStore) Reserve(_ context.Context, size time.Duration, limit int) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Reserve(m.now(), size, limit), nil
}

// State returns a snapshot of the window.
func (m *MemoryStore) State() WindowState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// The first INCR of a window sets its expiry, so the window opens at the
// first admission. A key that lost its TTL is given a fresh one.
var reserveScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore keeps the window in Redis. Every client configured with the
// same key shares one window, across processes.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store for the window under key.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient, key: key}
}

// Key returns the Redis key holding the window counter.
func (r *RedisStore) Key() string {
	return r.key
}

// Reserve implements Store.
func (r *RedisStore) Reserve(ctx context.Context, size time.Duration, limit int) (Reservation, error) {
	sizeMs := size.Milliseconds()
	if sizeMs < 1 {
		sizeMs = 1
	}

	vals, err := reserveScript.Run(ctx, r.redis, []string{r.key}, sizeMs).Int64Slice()
	if err != nil {
		return Reservation{}, fmt.Errorf("reserve window in redis: %w", err)
	}
	if len(vals) != 2 {
		return Reservation{}, fmt.Errorf("reserve window in redis: unexpected reply %v", vals)
	}

	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	if count <= limit {
		return Reservation{Admitted: true, Count: count}, nil
	}
	return Reservation{Wait: ttl, Count: count}, nil
}
