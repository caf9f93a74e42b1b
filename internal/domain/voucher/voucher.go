package voucher

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// NumberPrefix prefixes every voucher number
const NumberPrefix = "VCH"

// PaymentType is how a voucher is paid out
type PaymentType string

const (
	PaymentCash      PaymentType = "CASH"
	PaymentCheque    PaymentType = "CHEQUE"
	PaymentPettyCash PaymentType = "PETTY_CASH"
)

// IsValid reports whether p is a known payment type
func (p PaymentType) IsValid() bool {
	return p == PaymentCash || p == PaymentCheque || p == PaymentPettyCash
}

// NameTitle is the salutation printed before the payee
type NameTitle string

const (
	TitleMr  NameTitle = "MR"
	TitleMrs NameTitle = "MRS"
	TitleMs  NameTitle = "MS"
)

// IsValid reports whether t is a known title
func (t NameTitle) IsValid() bool {
	return t == TitleMr || t == TitleMrs || t == TitleMs
}

// Status is the workflow state of a voucher
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Voucher is a payment request moving through the company's approval chain
type Voucher struct {
	shared.CompanyAggregateRoot
	Number       string      `gorm:"column:voucher_number;type:varchar(20);not null;uniqueIndex"`
	Date         time.Time   `gorm:"column:voucher_date;type:date;not null"`
	PaymentType  PaymentType `gorm:"type:varchar(20);not null"`
	NameTitle    NameTitle   `gorm:"type:varchar(5);not null"`
	PayTo        string      `gorm:"type:varchar(200);not null"`
	ChequeNumber *string     `gorm:"type:varchar(50)"`
	ChequeDate   *time.Time  `gorm:"type:date"`
	AccountID    *uuid.UUID  `gorm:"type:uuid;index"`
	Status       Status      `gorm:"type:varchar(10);not null;index"`

	// RequiredApproversSnapshot is captured once at creation. It becomes the
	// record of truth when the voucher leaves PENDING.
	RequiredApproversSnapshot []string `gorm:"serializer:json;type:text"`

	Particulars []Particular `gorm:"foreignKey:VoucherID"`
	Attachments []Attachment `gorm:"foreignKey:VoucherID"`
}

// TableName returns the table name for GORM
func (Voucher) TableName() string {
	return "vouchers"
}

// Details are the header fields of a voucher
type Details struct {
	Date         time.Time
	PaymentType  PaymentType
	NameTitle    NameTitle
	PayTo        string
	ChequeNumber string
	ChequeDate   *time.Time
	AccountID    *uuid.UUID
}

// Content is everything a create or edit supplies. Empty MainFiles or
// ChequeFiles on edit keep the existing attachments of that kind.
type Content struct {
	Details
	MainFiles   []File
	ChequeFiles []File
	Particulars []ParticularInput
}

// NewVoucher builds a PENDING voucher. number must come from the serialized
// voucher sequence.
func NewVoucher(companyID, createdBy uuid.UUID, number string, c Content) (*Voucher, error) {
	v := &Voucher{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, createdBy),
		Number:               number,
		Status:               StatusPending,
	}
	if err := v.applyDetails(c.Details); err != nil {
		return nil, err
	}
	if len(c.ChequeFiles) > 0 && v.PaymentType != PaymentCheque {
		return nil, shared.NewValidationError("Cheque attachments are only allowed for Cheque payments.")
	}

	particulars, err := buildParticulars(v.ID, nil, c.Particulars)
	if err != nil {
		return nil, err
	}

	attachments := make([]Attachment, 0, len(c.MainFiles)+len(c.ChequeFiles))
	for _, f := range c.MainFiles {
		attachments = append(attachments, newAttachment(v.ID, nil, AttachmentMain, f))
	}
	for _, f := range c.ChequeFiles {
		attachments = append(attachments, newAttachment(v.ID, nil, AttachmentCheque, f))
	}
	if v.PaymentType == PaymentCheque && countKind(attachments, AttachmentCheque) == 0 {
		return nil, shared.NewValidationError("At least one cheque attachment is required for Cheque payments.")
	}

	v.Particulars = particulars
	v.Attachments = attachments
	if err := v.CheckInvariants(); err != nil {
		return nil, err
	}

	v.AddDomainEvent(NewVoucherCreatedEvent(v))
	return v, nil
}

// CanEdit reports whether editor may still change the voucher. Only the
// creator may, and only before anyone has decided on it.
func (v *Voucher) CanEdit(editor uuid.UUID, approvalCount int64) bool {
	return v.Status == StatusPending &&
		approvalCount == 0 &&
		v.CreatedByUser(editor)
}

// Edit replaces the voucher content. It returns the attachments that are no
// longer referenced so their stored objects can be removed after commit.
func (v *Voucher) Edit(editor uuid.UUID, approvalCount int64, c Content) ([]Attachment, error) {
	if !v.CanEdit(editor, approvalCount) {
		return nil, shared.NewNotFound("Voucher not found or cannot be edited.")
	}

	staged := *v
	if err := staged.applyDetails(c.Details); err != nil {
		return nil, err
	}

	var kept, detached []Attachment
	for _, a := range v.Attachments {
		switch {
		case a.Kind == AttachmentMain && len(c.MainFiles) > 0:
			detached = append(detached, a)
		case a.Kind == AttachmentCheque && (staged.PaymentType != PaymentCheque || len(c.ChequeFiles) > 0):
			detached = append(detached, a)
		default:
			kept = append(kept, a)
		}
	}
	if len(c.ChequeFiles) > 0 && staged.PaymentType != PaymentCheque {
		return nil, shared.NewValidationError("Cheque attachments are only allowed for Cheque payments.")
	}
	for _, f := range c.MainFiles {
		kept = append(kept, newAttachment(v.ID, nil, AttachmentMain, f))
	}
	for _, f := range c.ChequeFiles {
		kept = append(kept, newAttachment(v.ID, nil, AttachmentCheque, f))
	}
	if staged.PaymentType == PaymentCheque && countKind(kept, AttachmentCheque) == 0 {
		return nil, shared.NewValidationError("At least one cheque attachment is required for Cheque payments.")
	}

	particulars, removed, err := diffParticulars(v.ID, v.Particulars, c.Particulars)
	if err != nil {
		return nil, err
	}
	detached = append(detached, removed...)

	staged.Attachments = kept
	staged.Particulars = particulars
	if err := staged.CheckInvariants(); err != nil {
		return nil, err
	}

	*v = staged
	v.Touch()
	return detached, nil
}

// AllAttachments returns voucher-level and particular attachments together
func (v *Voucher) AllAttachments() []Attachment {
	out := append([]Attachment(nil), v.Attachments...)
	for _, p := range v.Particulars {
		out = append(out, p.Attachments...)
	}
	return out
}

// AttachmentsOfKind returns the voucher-level attachments of kind
func (v *Voucher) AttachmentsOfKind(kind AttachmentKind) []Attachment {
	return shared.Where(v.Attachments, func(a Attachment) bool { return a.Kind == kind })
}

// CheckInvariants verifies the structural rules every persisted voucher
// obeys. A failure here is a bug, not a user error.
func (v *Voucher) CheckInvariants() error {
	if len(v.Particulars) == 0 {
		return shared.NewInvariantViolation("voucher " + v.Number + " has no particulars")
	}
	for _, p := range v.Particulars {
		if len(p.Attachments) == 0 {
			return shared.NewInvariantViolation("voucher " + v.Number + " has a particular without attachments")
		}
	}
	if v.PaymentType == PaymentCheque {
		if v.ChequeNumber == nil || v.ChequeDate == nil || v.AccountID == nil {
			return shared.NewInvariantViolation("cheque voucher " + v.Number + " is missing cheque fields")
		}
		if countKind(v.Attachments, AttachmentCheque) == 0 {
			return shared.NewInvariantViolation("cheque voucher " + v.Number + " has no cheque attachment")
		}
	} else {
		if v.ChequeNumber != nil || v.ChequeDate != nil || v.AccountID != nil {
			return shared.NewInvariantViolation("voucher " + v.Number + " carries cheque fields")
		}
		if countKind(v.Attachments, AttachmentCheque) > 0 {
			return shared.NewInvariantViolation("voucher " + v.Number + " carries cheque attachments")
		}
	}
	return nil
}

// FreezeSnapshot captures the chain's current required approvers. It is a
// no-op once the voucher has left PENDING.
func (v *Voucher) FreezeSnapshot(chain Chain) {
	if v.Status.IsTerminal() {
		return
	}
	v.RequiredApproversSnapshot = chain.RequiredUsernames()
}

// ComputeRequiredApprovers returns the frozen snapshot for decided vouchers
// and the live chain otherwise.
func (v *Voucher) ComputeRequiredApprovers(chain Chain) []string {
	if v.Status.IsTerminal() {
		return append([]string{}, v.RequiredApproversSnapshot...)
	}
	return chain.RequiredUsernames()
}

// CheckApprover verifies approver may record a decision right now. approvals
// must be the decisions already recorded for this voucher.
func (v *Voucher) CheckApprover(chain Chain, approver Approver, designationID *uuid.UUID, approvals []Approval) error {
	if v.Status != StatusPending {
		return shared.NewConflict("This voucher is no longer pending.")
	}
	if !chain.Requires(approver.UserID) {
		return shared.NewPermissionDenied("You are not authorized to approve this voucher.")
	}
	if designationID == nil {
		return shared.NewPermissionDenied("Your designation is not in the approval chain.")
	}
	level, ok := chain.LevelForDesignation(*designationID)
	if !ok {
		return shared.NewPermissionDenied("Your designation is not in the approval chain.")
	}
	if prev, ok := chain.PreviousLevel(*level); ok && !prev.ApprovedBy(approvals) {
		return shared.NewConflict("Waiting for " + prev.DesignationName + " to approve first.")
	}
	return nil
}

// ApplyDecisions recomputes the status from the recorded decisions. It
// returns true when the voucher reached a terminal status.
func (v *Voucher) ApplyDecisions(chain Chain, approvals []Approval, decidedBy uuid.UUID) bool {
	if v.Status != StatusPending {
		return false
	}
	next := chain.Evaluate(approvals)
	if next == StatusPending {
		return false
	}
	v.Status = next
	v.Touch()
	v.AddDomainEvent(NewVoucherDecidedEvent(v, &decidedBy))
	return true
}

// Recalculate re-evaluates a voucher after its chain was replaced. Only the
// PENDING to APPROVED transition is possible here; decided vouchers and
// rejections are left alone.
func (v *Voucher) Recalculate(chain Chain, approvals []Approval) bool {
	if v.Status != StatusPending {
		return false
	}
	if chain.Evaluate(approvals) != StatusApproved {
		return false
	}
	v.Status = StatusApproved
	v.Touch()
	v.AddDomainEvent(NewVoucherDecidedEvent(v, nil))
	return true
}

// Total sums the particular amounts
func (v *Voucher) Total() string {
	return sumParticulars(v.Particulars).StringFixed(2)
}

func (v *Voucher) applyDetails(d Details) error {
	if d.Date.IsZero() {
		return shared.NewValidationError("Voucher date is required.")
	}
	if !d.PaymentType.IsValid() {
		return shared.NewValidationError("Invalid payment type.")
	}
	if !d.NameTitle.IsValid() {
		return shared.NewValidationError("Invalid name title.")
	}
	payTo := strings.TrimSpace(d.PayTo)
	if payTo == "" {
		return shared.NewValidationError("Pay to is required.")
	}
	if len(payTo) > 200 {
		return shared.NewValidationError("Pay to cannot exceed 200 characters.")
	}

	v.Date = shared.DateOnly(d.Date)
	v.PaymentType = d.PaymentType
	v.NameTitle = d.NameTitle
	v.PayTo = payTo

	if d.PaymentType != PaymentCheque {
		v.ChequeNumber = nil
		v.ChequeDate = nil
		v.AccountID = nil
		return nil
	}

	number := strings.TrimSpace(d.ChequeNumber)
	if number == "" {
		return shared.NewValidationError("Cheque number is required.")
	}
	if d.ChequeDate == nil || d.ChequeDate.IsZero() {
		return shared.NewValidationError("Cheque date is required.")
	}
	if d.AccountID == nil || *d.AccountID == uuid.Nil {
		return shared.NewValidationError("Account Details is required.")
	}
	chequeDate := shared.DateOnly(*d.ChequeDate)
	accountID := *d.AccountID
	v.ChequeNumber = &number
	v.ChequeDate = &chequeDate
	v.AccountID = &accountID
	return nil
}

func countKind(attachments []Attachment, kind AttachmentKind) int {
	return len(shared.Where(attachments, func(a Attachment) bool { return a.Kind == kind }))
}
