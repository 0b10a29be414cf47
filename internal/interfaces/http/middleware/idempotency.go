package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"github.com/pgledger/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader names the client-chosen key of a write request
const IdempotencyKeyHeader = "Idempotency-Key"

// DefaultIdempotencyTTL is how long a claimed key blocks a repeat
const DefaultIdempotencyTTL = 24 * time.Hour

const maxIdempotencyKeyLength = 200

// Idempotency rejects a write whose Idempotency-Key was already used within
// ttl. Requests without the header pass through. A request that ends in an
// error status releases its key so the client can retry.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		storeKey := c.Request.Method + ":" + c.FullPath() + ":" + key
		claimed, err := store.Claim(ctx, storeKey, ttl)
		if err != nil {
			// The store being down must not block payments
			logger.L(ctx).Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed",
				GetRequestID(c),
			))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx), storeKey); err != nil {
				logger.L(ctx).Warn("release idempotency key", zap.Error(err))
			}
		}
	}
}
