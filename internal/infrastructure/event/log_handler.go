package event

import (
	"context"

	"github.com/pgledger/backend/internal/domain/shared"
	"github.com/pgledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogHandler writes an info line for each event it receives
type LogHandler struct {
	types []string
}

// NewLogHandler logs the given event types, or all of them when none are given
func NewLogHandler(types ...string) *LogHandler {
	return &LogHandler{types: types}
}

func (h *LogHandler) EventTypes() []string { return h.types }

func (h *LogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.L(ctx).Info("ledger event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}
