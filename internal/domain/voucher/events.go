package voucher

import (
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// AggregateTypeVoucher is the aggregate type of voucher events
const AggregateTypeVoucher = "Voucher"

const (
	EventTypeVoucherCreated   = "VoucherCreated"
	EventTypeApprovalRecorded = "VoucherApprovalRecorded"
	EventTypeVoucherDecided   = "VoucherDecided"
)

// VoucherCreatedEvent is published when a voucher is created
type VoucherCreatedEvent struct {
	shared.BaseDomainEvent
	Number      string      `json:"number"`
	PaymentType PaymentType `json:"payment_type"`
	Total       string      `json:"total"`
}

// NewVoucherCreatedEvent creates a new VoucherCreatedEvent
func NewVoucherCreatedEvent(v *Voucher) *VoucherCreatedEvent {
	return &VoucherCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherCreated, AggregateTypeVoucher, v.ID, v.CompanyID),
		Number:          v.Number,
		PaymentType:     v.PaymentType,
		Total:           v.Total(),
	}
}

// ApprovalRecordedEvent is published for every recorded decision
type ApprovalRecordedEvent struct {
	shared.BaseDomainEvent
	Number     string    `json:"number"`
	ApproverID uuid.UUID `json:"approver_id"`
	Decision   Decision  `json:"decision"`
}

// NewApprovalRecordedEvent creates a new ApprovalRecordedEvent
func NewApprovalRecordedEvent(v *Voucher, a *Approval) *ApprovalRecordedEvent {
	return &ApprovalRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApprovalRecorded, AggregateTypeVoucher, v.ID, v.CompanyID),
		Number:          v.Number,
		ApproverID:      a.ApproverID,
		Decision:        a.Status,
	}
}

// VoucherDecidedEvent is published when a voucher reaches APPROVED or REJECTED
type VoucherDecidedEvent struct {
	shared.BaseDomainEvent
	Number    string     `json:"number"`
	Status    Status     `json:"status"`
	DecidedBy *uuid.UUID `json:"decided_by,omitempty"`
}

// NewVoucherDecidedEvent creates a new VoucherDecidedEvent. decidedBy is nil
// when a chain edit approved the voucher.
func NewVoucherDecidedEvent(v *Voucher, decidedBy *uuid.UUID) *VoucherDecidedEvent {
	return &VoucherDecidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherDecided, AggregateTypeVoucher, v.ID, v.CompanyID),
		Number:          v.Number,
		Status:          v.Status,
		DecidedBy:       decidedBy,
	}
}
