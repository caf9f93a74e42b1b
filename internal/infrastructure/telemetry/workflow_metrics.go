package telemetry

import (
	"context"

	appvoucher "github.com/voucherdesk/backend/internal/application/voucher"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	_ appvoucher.RetryObserver = (*WorkflowMetrics)(nil)
	_ shared.EventHandler      = (*WorkflowMetrics)(nil)
)

// WorkflowMetrics counts voucher decisions, approval lock contention and
// function bookings. It observes the approval retry loop and listens on the
// event bus.
type WorkflowMetrics struct {
	vouchersCreated    *Counter
	approvals          *Counter
	decisions          *Counter
	lockRetries        *Counter
	lockExhausted      *Counter
	functionsCreated   *Counter
	functionsConfirmed *Counter
}

// NewWorkflowMetrics registers the workflow instruments on meter
func NewWorkflowMetrics(meter metric.Meter) (*WorkflowMetrics, error) {
	m := &WorkflowMetrics{}
	counters := []struct {
		dst               **Counter
		name, description string
	}{
		{&m.vouchersCreated, "voucher_created_total", "Vouchers created"},
		{&m.approvals, "voucher_approval_total", "Approval decisions recorded, by decision"},
		{&m.decisions, "voucher_decided_total", "Vouchers that reached a terminal status"},
		{&m.lockRetries, "voucher_lock_retry_total", "Approval attempts retried after lock contention"},
		{&m.lockExhausted, "voucher_lock_exhausted_total", "Approvals that gave up after all retries"},
		{&m.functionsCreated, "function_created_total", "Function bookings created"},
		{&m.functionsConfirmed, "function_confirmed_total", "Function bookings confirmed"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.description, "1")
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}
	return m, nil
}

// LockRetried counts a retry and marks it on the current span
func (m *WorkflowMetrics) LockRetried(ctx context.Context, attempt int) {
	m.lockRetries.Inc(ctx, AttrAttempt.Int(attempt))
	trace.SpanFromContext(ctx).AddEvent("voucher.lock_retry", trace.WithAttributes(AttrAttempt.Int(attempt)))
}

// LockExhausted counts an approval that stayed busy
func (m *WorkflowMetrics) LockExhausted(ctx context.Context) {
	m.lockExhausted.Inc(ctx)
	trace.SpanFromContext(ctx).AddEvent("voucher.lock_exhausted")
}

// EventTypes lists the events this handler counts
func (m *WorkflowMetrics) EventTypes() []string {
	return []string{
		voucher.EventTypeVoucherCreated,
		voucher.EventTypeApprovalRecorded,
		voucher.EventTypeVoucherDecided,
		venue.EventTypeFunctionCreated,
		venue.EventTypeFunctionConfirmed,
	}
}

// Handle increments the counter matching the event
func (m *WorkflowMetrics) Handle(ctx context.Context, ev shared.DomainEvent) error {
	company := AttrCompanyID.String(ev.CompanyID().String())
	switch e := ev.(type) {
	case *voucher.VoucherCreatedEvent:
		m.vouchersCreated.Inc(ctx, company, AttrPaymentType.String(string(e.PaymentType)))
	case *voucher.ApprovalRecordedEvent:
		m.approvals.Inc(ctx, company, AttrDecision.String(string(e.Decision)))
	case *voucher.VoucherDecidedEvent:
		m.decisions.Inc(ctx, company, AttrStatus.String(string(e.Status)))
	case *venue.FunctionCreatedEvent:
		m.functionsCreated.Inc(ctx, company, AttrLocation.String(string(e.Location)))
	case *venue.FunctionConfirmedEvent:
		m.functionsConfirmed.Inc(ctx, company)
	}
	return nil
}
