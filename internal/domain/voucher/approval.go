package voucher

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// Decision is an approver's verdict on a voucher
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// IsValid reports whether d is a known decision
func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// Approval is one approver's latest decision on a voucher. There is at most
// one row per (voucher, approver); a resubmission overwrites it.
type Approval struct {
	shared.BaseEntity
	VoucherID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_approvals_voucher_approver"`
	ApproverID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_approvals_voucher_approver"`
	Status          Decision  `gorm:"type:varchar(10);not null"`
	RejectionReason *string   `gorm:"type:text"`
	DecidedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Approval) TableName() string {
	return "voucher_approvals"
}

// NewApproval validates a decision. A rejection needs a reason; an approval
// never keeps one.
func NewApproval(voucherID, approverID uuid.UUID, d Decision, reason string) (*Approval, error) {
	if !d.IsValid() {
		return nil, shared.NewValidationError("Invalid decision.")
	}
	a := &Approval{
		BaseEntity: shared.NewBaseEntity(),
		VoucherID:  voucherID,
		ApproverID: approverID,
		Status:     d,
	}
	a.DecidedAt = a.CreatedAt
	if d == DecisionRejected {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, shared.NewValidationError("Rejection reason is required.")
		}
		a.RejectionReason = &reason
	}
	return a, nil
}

// MergeApproval returns approvals with a replacing any earlier decision by
// the same approver.
func MergeApproval(approvals []Approval, a Approval) []Approval {
	out := make([]Approval, 0, len(approvals)+1)
	for _, existing := range approvals {
		if existing.ApproverID != a.ApproverID {
			out = append(out, existing)
		}
	}
	return append(out, a)
}

// CountDecisions returns the number of approvals and rejections
func CountDecisions(approvals []Approval) (approved, rejected int) {
	for _, a := range approvals {
		switch a.Status {
		case DecisionApproved:
			approved++
		case DecisionRejected:
			rejected++
		}
	}
	return approved, rejected
}
