package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// GormBankAccountRepository implements BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// Create creates a new account
func (r *GormBankAccountRepository) Create(ctx context.Context, a *tenancy.BankAccount) error {
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

// Update updates an existing account
func (r *GormBankAccountRepository) Update(ctx context.Context, a *tenancy.BankAccount) error {
	result := r.db.WithContext(ctx).Save(a)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an account
func (r *GormBankAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&tenancy.BankAccount{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds an account within companyID
func (r *GormBankAccountRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*tenancy.BankAccount, error) {
	var a tenancy.BankAccount
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// FindByCompany returns accounts ordered by bank name
func (r *GormBankAccountRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]tenancy.BankAccount, error) {
	var accounts []tenancy.BankAccount
	query := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("bank_name").Order("account_number").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Exists checks for an account with the same bank and number in companyID
func (r *GormBankAccountRepository) Exists(ctx context.Context, companyID uuid.UUID, bankName, accountNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&tenancy.BankAccount{}).
		Where("company_id = ? AND bank_name = ? AND account_number = ?",
			companyID, strings.TrimSpace(bankName), strings.TrimSpace(accountNumber)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormBankAccountRepository implements BankAccountRepository
var _ tenancy.BankAccountRepository = (*GormBankAccountRepository)(nil)
