package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLockTTL outlives the longest side effect run under a lock so
	// that a healthy holder never loses its key.
	DefaultLockTTL    = 30 * time.Second
	DefaultRetryDelay = 25 * time.Millisecond
	defaultKeyPrefix  = "freightdispatch:lock:"
	releaseTimeout    = 2 * time.Second
)

// compare-and-delete: only the holder's token may release the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLockerConfig struct {
	TTL        time.Duration
	RetryDelay time.Duration
	KeyPrefix  string
}

// RedisLocker is a lease lock on a single Redis node: SET NX PX with a
// random token, released with a compare-and-delete script. The lease
// expires on its own if the holder dies.
type RedisLocker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	prefix     string
	logger     *slog.Logger
}

func NewRedisLocker(client redis.UniversalClient, cfg RedisLockerConfig, logger *slog.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultLockTTL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &RedisLocker{
		client:     client,
		ttl:        cfg.TTL,
		retryDelay: cfg.RetryDelay,
		prefix:     cfg.KeyPrefix,
		logger:     logger.With("component", "redis-locker"),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		timer.Reset(l.retryDelay)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}, nil
}

// release runs on its own context: the caller's may already be cancelled
// and a lock left behind would block the chain until the lease expires.
func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Error("failed to release lock", "key", redisKey, "error", err)
		return
	}
	if n == 0 {
		l.logger.Warn("lock expired before release", "key", redisKey)
	}
}
