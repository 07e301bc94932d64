package service

import (
	"context"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/model"

	"go.uber.org/zap"
)

// publishOrderEvent never fails the caller; the order state in the
// database is the source of truth.
func publishOrderEvent(ctx context.Context, p client.EventPublisher, l *zap.Logger, event model.OrderEvent) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(context.WithoutCancel(ctx), event); err != nil {
		l.Warn("failed to publish order event",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}
