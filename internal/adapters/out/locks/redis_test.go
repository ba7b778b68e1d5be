package locks_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"freightdispatch/internal/adapters/out/locks"
	"freightdispatch/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Locker = (*locks.RedisLocker)(nil)

func newRedisLocker(t *testing.T, cfg locks.RedisLockerConfig) (*locks.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return locks.NewRedisLocker(client, cfg, logger), mr
}

func TestRedisLocker_LockAndRelease(t *testing.T) {
	l, mr := newRedisLocker(t, locks.RedisLockerConfig{KeyPrefix: "test:"})

	unlock, err := l.Lock(t.Context(), "chain:1")
	require.NoError(t, err)

	require.True(t, mr.Exists("test:chain:1"))
	assert.Equal(t, locks.DefaultLockTTL, mr.TTL("test:chain:1"))

	unlock()
	assert.False(t, mr.Exists("test:chain:1"))
	unlock()
}

func TestRedisLocker_WaitsForHolder(t *testing.T) {
	l, _ := newRedisLocker(t, locks.RedisLockerConfig{RetryDelay: 5 * time.Millisecond})

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(t.Context(), "chain:1")
			require.NoError(t, err)
			defer unlock()

			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	l, _ := newRedisLocker(t, locks.RedisLockerConfig{RetryDelay: 5 * time.Millisecond})

	unlock, err := l.Lock(t.Context(), "chain:1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "chain:1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLocker_ExpiredLeaseIsNotStolenBack(t *testing.T) {
	l, mr := newRedisLocker(t, locks.RedisLockerConfig{TTL: time.Second, KeyPrefix: "test:"})

	first, err := l.Lock(t.Context(), "chain:1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	second, err := l.Lock(t.Context(), "chain:1")
	require.NoError(t, err)
	token := mustGet(t, mr, "test:chain:1")

	// the first holder's late release must leave the new lease alone
	first()
	assert.Equal(t, token, mustGet(t, mr, "test:chain:1"))

	second()
	assert.False(t, mr.Exists("test:chain:1"))
}

func TestRedisLocker_RedisDown(t *testing.T) {
	l, mr := newRedisLocker(t, locks.RedisLockerConfig{})
	mr.Close()

	_, err := l.Lock(t.Context(), "chain:1")
	require.Error(t, err)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
