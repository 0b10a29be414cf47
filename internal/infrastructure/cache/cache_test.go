package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("serializes holders of the same key", func(t *testing.T) {
		locker := NewInMemoryLocker(time.Second)
		var inside, maxInside atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Acquire(ctx, "bills:generate:101:2024-03", time.Second)
				require.NoError(t, err)
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				require.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside.Load())
		assert.Zero(t, locker.Size())
	})

	t.Run("different keys do not block", func(t *testing.T) {
		locker := NewInMemoryLocker(time.Second)
		unlockA, err := locker.Acquire(ctx, "a", time.Second)
		require.NoError(t, err)
		unlockB, err := locker.Acquire(ctx, "b", time.Second)
		require.NoError(t, err)
		assert.Equal(t, 2, locker.Size())
		require.NoError(t, unlockA(ctx))
		require.NoError(t, unlockB(ctx))
	})

	t.Run("gives up when the context ends", func(t *testing.T) {
		locker := NewInMemoryLocker(time.Second)
		unlock, err := locker.Acquire(ctx, "k", time.Second)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = locker.Acquire(waitCtx, "k", time.Second)
		assert.ErrorIs(t, err, shared.ErrLockNotAcquired)

		require.NoError(t, unlock(ctx))
		require.NoError(t, unlock(ctx), "double unlock is harmless")
		assert.Zero(t, locker.Size())
	})
	t.Run("gives up after max wait", func(t *testing.T) {
		locker := NewInMemoryLocker(30 * time.Millisecond)
		unlock, err := locker.Acquire(ctx, "ledger:t1:2024-03", time.Second)
		require.NoError(t, err)

		start := time.Now()
		_, err = locker.Acquire(ctx, "ledger:t1:2024-03", time.Second)
		assert.ErrorIs(t, err, shared.ErrLockNotAcquired)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 1, locker.Size())

		require.NoError(t, unlock(ctx))
		assert.Zero(t, locker.Size())
	})
}

func TestInMemoryIdempotencyStore(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	current := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	t.Run("first claim wins", func(t *testing.T) {
		ok, err := store.Claim(ctx, "pay-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "pay-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("released key can be claimed again", func(t *testing.T) {
		_, err := store.Claim(ctx, "pay-2", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "pay-2"))

		ok, err := store.Claim(ctx, "pay-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired keys are swept", func(t *testing.T) {
		_, err := store.Claim(ctx, "short", time.Minute)
		require.NoError(t, err)
		before := store.Size()

		current = current.Add(2 * time.Minute)
		ok, err := store.Claim(ctx, "short", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		current = current.Add(2 * time.Hour)
		store.cleanup()
		assert.Less(t, store.Size(), before)
		assert.Zero(t, store.Size())
	})
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	_, err := NewRedisLocker(client, "", 100*time.Millisecond).Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
}

func TestNewCoordination(t *testing.T) {
	t.Run("in-process when redis is disabled", func(t *testing.T) {
		c, err := NewCoordination(context.Background(), config.RedisConfig{}, time.Second, zap.NewNop())
		require.NoError(t, err)
		defer c.Close()

		assert.IsType(t, &InMemoryLocker{}, c.Locker)
		assert.IsType(t, &InMemoryIdempotencyStore{}, c.Idempotency)
	})

	t.Run("enabled but unreachable redis fails", func(t *testing.T) {
		_, err := NewCoordination(context.Background(),
			config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, time.Second, zap.NewNop())
		assert.Error(t, err)
	})
}
