package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormApprovalRepository implements voucher.ApprovalRepository using GORM
type GormApprovalRepository struct {
	db *gorm.DB
}

// NewGormApprovalRepository creates a new GormApprovalRepository
func NewGormApprovalRepository(db *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

// FindByVoucher returns every decision recorded on a voucher
func (r *GormApprovalRepository) FindByVoucher(ctx context.Context, voucherID uuid.UUID) ([]voucher.Approval, error) {
	var approvals []voucher.Approval
	if err := r.db.WithContext(ctx).
		Where("voucher_id = ?", voucherID).
		Order("decided_at").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

// FindByVouchers returns decisions grouped by voucher id
func (r *GormApprovalRepository) FindByVouchers(ctx context.Context, voucherIDs []uuid.UUID) (map[uuid.UUID][]voucher.Approval, error) {
	grouped := make(map[uuid.UUID][]voucher.Approval, len(voucherIDs))
	if len(voucherIDs) == 0 {
		return grouped, nil
	}
	var approvals []voucher.Approval
	if err := r.db.WithContext(ctx).
		Where("voucher_id IN ?", voucherIDs).
		Order("decided_at").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	for _, a := range approvals {
		grouped[a.VoucherID] = append(grouped[a.VoucherID], a)
	}
	return grouped, nil
}

// Upsert inserts a, or overwrites the decision of the same approver
func (r *GormApprovalRepository) Upsert(ctx context.Context, a *voucher.Approval) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "voucher_id"}, {Name: "approver_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "rejection_reason", "decided_at", "updated_at"}),
		}).
		Create(a).Error)
}

// CountByVoucher counts decisions on a voucher
func (r *GormApprovalRepository) CountByVoucher(ctx context.Context, voucherID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&voucher.Approval{}).Where("voucher_id = ?", voucherID).Count(&count).Error
	return count, err
}

// Ensure GormApprovalRepository implements voucher.ApprovalRepository
var _ voucher.ApprovalRepository = (*GormApprovalRepository)(nil)
