package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX. Locks expire after their TTL
// even if the holder dies.
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	retry     time.Duration
	maxWait   time.Duration
}

// NewRedisLocker creates a locker on client
func NewRedisLocker(client redis.UniversalClient, keyPrefix string, maxWait time.Duration) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "pgledger:lock:"
	}
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	return &RedisLocker{
		client:    client,
		keyPrefix: keyPrefix,
		retry:     50 * time.Millisecond,
		maxWait:   maxWait,
	}
}

// Acquire blocks until key is free, ctx is done or maxWait elapses
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, fullKey, token, ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
					return fmt.Errorf("release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, shared.ErrLockNotAcquired
		case <-ticker.C:
		}
	}
}

var _ shared.Locker = (*RedisLocker)(nil)
