package event

import (
	"context"

	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var _ shared.EventHandler = (*AuditHandler)(nil)

// AuditHandler writes every committed event to the "audit" logger with its
// JSON payload
type AuditHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(serializer *EventSerializer, l *zap.Logger) *AuditHandler {
	if serializer == nil {
		serializer = NewEventSerializer()
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &AuditHandler{serializer: serializer, logger: l.Named("audit")}
}

// EventTypes subscribes to every event
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.String("aggregate_id", ev.AggregateID().String()),
		zap.String("company_id", ev.CompanyID().String()),
		zap.Time("occurred_at", ev.OccurredAt()),
	}

	if !h.serializer.IsRegistered(ev.EventType()) {
		logger.For(ctx, h.logger).Warn("unregistered domain event", fields...)
		return nil
	}

	payload, err := h.serializer.Serialize(ev)
	if err != nil {
		return err
	}
	fields = append(fields, zap.String("payload", string(payload)))
	logger.For(ctx, h.logger).Info("domain event", fields...)
	return nil
}
