package uow

import (
	"context"

	"github.com/voucherdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Publish hands committed events to the publisher. Failures are logged and
// swallowed because the unit of work has already committed.
func Publish(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
