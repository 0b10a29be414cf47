package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Coordination bundles the locker and idempotency store used by the services.
// Both share one Redis client when Redis is enabled.
type Coordination struct {
	Locker      shared.Locker
	Idempotency shared.IdempotencyStore
	close       func() error
}

// Close releases the Redis client or stops the in-memory sweeper
func (c *Coordination) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// NewCoordination connects to Redis when enabled and falls back to in-process
// implementations otherwise. An enabled but unreachable Redis is an error.
func NewCoordination(ctx context.Context, cfg config.RedisConfig, lockWait time.Duration, logger *zap.Logger) (*Coordination, error) {
	if !cfg.Enabled {
		logger.Warn("redis disabled, using in-process locks and idempotency keys")
		store := NewInMemoryIdempotencyStore()
		return &Coordination{
			Locker:      NewInMemoryLocker(lockWait),
			Idempotency: store,
			close:       store.Close,
		}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("using redis for locks and idempotency keys", zap.String("addr", cfg.Addr()))
	return &Coordination{
		Locker:      NewRedisLocker(client, "", lockWait),
		Idempotency: NewRedisIdempotencyStore(client, ""),
		close:       client.Close,
	}, nil
}
