package voucher

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListFilter selects vouchers of a company
type ListFilter struct {
	Status   Status
	Search   string
	Page     int
	PageSize int
}

// Summary is a list row: the voucher header plus decision counts
type Summary struct {
	ID            uuid.UUID       `gorm:"column:id"`
	Number        string          `gorm:"column:voucher_number"`
	Date          time.Time       `gorm:"column:voucher_date"`
	PaymentType   PaymentType     `gorm:"column:payment_type"`
	NameTitle     NameTitle       `gorm:"column:name_title"`
	PayTo         string          `gorm:"column:pay_to"`
	Status        Status          `gorm:"column:status"`
	CreatedBy     *uuid.UUID      `gorm:"column:created_by"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	Total         decimal.Decimal `gorm:"column:total_amount"`
	ApprovedCount int64           `gorm:"column:approved_count"`
	RejectedCount int64           `gorm:"column:rejected_count"`
}

// Repository defines the interface for voucher persistence. Every lookup is
// scoped by company; a voucher of another company reads as not found.
type Repository interface {
	// Create inserts the voucher with its particulars and attachments
	Create(ctx context.Context, v *Voucher) error

	// Save updates the header and replaces particulars and attachments
	Save(ctx context.Context, v *Voucher) error

	// UpdateStatus persists the status column only
	UpdateStatus(ctx context.Context, v *Voucher) error

	// Delete removes the voucher with its particulars, attachments and approvals
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// FindByID loads the voucher with particulars and attachments
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Voucher, error)

	// LockForApproval loads the voucher header under FOR UPDATE NOWAIT
	LockForApproval(ctx context.Context, companyID, id uuid.UUID) (*Voucher, error)

	// LockUndecided locks every PENDING or APPROVED voucher of the company
	LockUndecided(ctx context.Context, companyID uuid.UUID) ([]Voucher, error)

	// FindAll lists vouchers with decision counts, newest first
	FindAll(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]Summary, int64, error)

	// CountByCompany counts the vouchers of a company
	CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)

	// CountByAccount counts vouchers drawing on a bank account
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// MaxNumber returns the highest numeric suffix among voucher numbers
	MaxNumber(ctx context.Context) (int, error)
}

// ApprovalRepository defines the interface for approval persistence
type ApprovalRepository interface {
	// FindByVoucher returns every decision recorded on a voucher
	FindByVoucher(ctx context.Context, voucherID uuid.UUID) ([]Approval, error)

	// FindByVouchers returns decisions grouped by voucher id
	FindByVouchers(ctx context.Context, voucherIDs []uuid.UUID) (map[uuid.UUID][]Approval, error)

	// Upsert inserts a, or overwrites the decision of the same approver
	Upsert(ctx context.Context, a *Approval) error

	// CountByVoucher counts decisions on a voucher
	CountByVoucher(ctx context.Context, voucherID uuid.UUID) (int64, error)
}
