package tenancy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// BankAccount is an account cheques can be drawn on
type BankAccount struct {
	shared.BaseEntity
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_bank_accounts_identity"`
	BankName      string     `gorm:"type:varchar(200);not null;uniqueIndex:idx_bank_accounts_identity"`
	AccountNumber string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_bank_accounts_identity"`
	IsActive      bool       `gorm:"not null;default:true"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BankAccount) TableName() string {
	return "bank_accounts"
}

// NewBankAccount creates an active account
func NewBankAccount(companyID uuid.UUID, bankName, accountNumber string, createdBy uuid.UUID) (*BankAccount, error) {
	bankName = strings.TrimSpace(bankName)
	accountNumber = strings.TrimSpace(accountNumber)
	if bankName == "" {
		return nil, shared.NewValidationError("Bank name is required")
	}
	if accountNumber == "" {
		return nil, shared.NewValidationError("Account number is required")
	}
	if len(accountNumber) > 50 {
		return nil, shared.NewValidationError("Account number cannot exceed 50 characters")
	}
	return &BankAccount{
		BaseEntity:    shared.NewBaseEntity(),
		CompanyID:     companyID,
		BankName:      bankName,
		AccountNumber: accountNumber,
		IsActive:      true,
		CreatedBy:     &createdBy,
	}, nil
}

// Label is the display form used on vouchers
func (a *BankAccount) Label() string {
	return fmt.Sprintf("%s - %s", a.BankName, a.AccountNumber)
}

// ToggleActive flips the active flag
func (a *BankAccount) ToggleActive() {
	a.IsActive = !a.IsActive
	a.Touch()
}

// EnsureDeletable refuses deletion while vouchers reference the account
func (a *BankAccount) EnsureDeletable(voucherCount int64) error {
	if voucherCount > 0 {
		return shared.NewConflict(fmt.Sprintf("Cannot delete: %d voucher(s) use this account. Deactivate instead.", voucherCount))
	}
	return nil
}
