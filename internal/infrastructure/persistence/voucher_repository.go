package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockNoWait is FOR UPDATE NOWAIT: a held row fails fast with 55P03 instead
// of queueing behind the holder
var lockNoWait = clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}

const voucherSummaryColumns = `vouchers.id, vouchers.voucher_number, vouchers.voucher_date,
	vouchers.payment_type, vouchers.name_title, vouchers.pay_to, vouchers.status,
	vouchers.created_by, vouchers.created_at,
	COALESCE((SELECT SUM(p.amount) FROM particulars p WHERE p.voucher_id = vouchers.id), 0) AS total_amount,
	(SELECT COUNT(*) FROM voucher_approvals a WHERE a.voucher_id = vouchers.id AND a.status = 'APPROVED') AS approved_count,
	(SELECT COUNT(*) FROM voucher_approvals a WHERE a.voucher_id = vouchers.id AND a.status = 'REJECTED') AS rejected_count`

// GormVoucherRepository implements voucher.Repository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// Create inserts the voucher with its particulars and attachments
func (r *GormVoucherRepository) Create(ctx context.Context, v *voucher.Voucher) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(v).Error; err != nil {
		return translate(err)
	}
	return r.writeChildren(db, v)
}

// Save updates the header and replaces particulars and attachments
func (r *GormVoucherRepository) Save(ctx context.Context, v *voucher.Voucher) error {
	db := r.db.WithContext(ctx)
	result := db.Omit(clause.Associations).Save(v)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	if err := db.Where("voucher_id = ?", v.ID).Delete(&voucher.Attachment{}).Error; err != nil {
		return err
	}
	if err := db.Where("voucher_id = ?", v.ID).Delete(&voucher.Particular{}).Error; err != nil {
		return err
	}
	return r.writeChildren(db, v)
}

func (r *GormVoucherRepository) writeChildren(db *gorm.DB, v *voucher.Voucher) error {
	if len(v.Particulars) > 0 {
		if err := db.Omit(clause.Associations).Create(&v.Particulars).Error; err != nil {
			return translate(err)
		}
	}
	attachments := v.AllAttachments()
	if len(attachments) > 0 {
		if err := db.Create(&attachments).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

// UpdateStatus persists the status column only
func (r *GormVoucherRepository) UpdateStatus(ctx context.Context, v *voucher.Voucher) error {
	result := r.db.WithContext(ctx).Model(&voucher.Voucher{}).
		Where("id = ? AND company_id = ?", v.ID, v.CompanyID).
		Updates(map[string]any{"status": v.Status, "updated_at": v.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the voucher with its particulars, attachments and approvals
func (r *GormVoucherRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&voucher.Voucher{}).Where("id = ? AND company_id = ?", id, companyID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	for _, child := range []any{&voucher.Approval{}, &voucher.Attachment{}, &voucher.Particular{}} {
		if err := db.Where("voucher_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}
	return db.Where("id = ? AND company_id = ?", id, companyID).Delete(&voucher.Voucher{}).Error
}

// FindByID loads the voucher with particulars and attachments
func (r *GormVoucherRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*voucher.Voucher, error) {
	var v voucher.Voucher
	err := r.db.WithContext(ctx).
		Preload("Particulars", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Particulars.Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at") }).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Where("particular_id IS NULL").Order("uploaded_at")
		}).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// LockForApproval loads the voucher header under FOR UPDATE NOWAIT. A held
// lock surfaces as shared.ErrBusy.
func (r *GormVoucherRepository) LockForApproval(ctx context.Context, companyID, id uuid.UUID) (*voucher.Voucher, error) {
	var v voucher.Voucher
	err := r.db.WithContext(ctx).
		Clauses(lockNoWait).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// LockUndecided locks every PENDING or APPROVED voucher of the company
func (r *GormVoucherRepository) LockUndecided(ctx context.Context, companyID uuid.UUID) ([]voucher.Voucher, error) {
	var vouchers []voucher.Voucher
	err := r.db.WithContext(ctx).
		Clauses(lockNoWait).
		Where("company_id = ? AND status IN ?", companyID, []voucher.Status{voucher.StatusPending, voucher.StatusApproved}).
		Order("id").
		Find(&vouchers).Error
	if err != nil {
		return nil, translate(err)
	}
	return vouchers, nil
}

// FindAll lists vouchers with decision counts, newest first
func (r *GormVoucherRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter voucher.ListFilter) ([]voucher.Summary, int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&voucher.Voucher{}).Where("vouchers.company_id = ?", companyID)
	if filter.Status != "" {
		query = query.Where("vouchers.status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(vouchers.voucher_number) LIKE ? OR LOWER(vouchers.pay_to) LIKE ?", pattern, pattern)
	}
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []voucher.Summary
	query = query.Select(voucherSummaryColumns).Order("vouchers.created_at DESC").Order("vouchers.voucher_number DESC")
	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountByCompany counts the vouchers of a company
func (r *GormVoucherRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voucher.Voucher{}).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}

// CountByAccount counts vouchers drawing on a bank account
func (r *GormVoucherRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voucher.Voucher{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}

// MaxNumber returns the highest numeric suffix among voucher numbers
func (r *GormVoucherRepository) MaxNumber(ctx context.Context) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&voucher.Voucher{}).
		Where("voucher_number LIKE ?", voucher.NumberPrefix+"%").
		Pluck("voucher_number", &numbers).Error; err != nil {
		return 0, err
	}
	return shared.MaxNumberSuffix(voucher.NumberPrefix, numbers), nil
}

// Ensure GormVoucherRepository implements voucher.Repository
var _ voucher.Repository = (*GormVoucherRepository)(nil)
