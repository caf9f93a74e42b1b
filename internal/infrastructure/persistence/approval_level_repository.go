package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// GormApprovalLevelRepository implements ApprovalLevelRepository using GORM
type GormApprovalLevelRepository struct {
	db *gorm.DB
}

// NewGormApprovalLevelRepository creates a new GormApprovalLevelRepository
func NewGormApprovalLevelRepository(db *gorm.DB) *GormApprovalLevelRepository {
	return &GormApprovalLevelRepository{db: db}
}

// FindByCompany returns every level ordered by order
func (r *GormApprovalLevelRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]tenancy.ApprovalLevel, error) {
	var levels []tenancy.ApprovalLevel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("level_order").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// FindActiveByCompany returns active levels ordered by order
func (r *GormApprovalLevelRepository) FindActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]tenancy.ApprovalLevel, error) {
	var levels []tenancy.ApprovalLevel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("level_order").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// ReplaceAll deletes the company's levels and inserts levels in their place.
// Callers run it inside a transaction so readers never see a half chain.
func (r *GormApprovalLevelRepository) ReplaceAll(ctx context.Context, companyID uuid.UUID, levels []tenancy.ApprovalLevel) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("company_id = ?", companyID).Delete(&tenancy.ApprovalLevel{}).Error; err != nil {
		return err
	}
	if len(levels) == 0 {
		return nil
	}
	return translate(db.Create(&levels).Error)
}

// Ensure GormApprovalLevelRepository implements ApprovalLevelRepository
var _ tenancy.ApprovalLevelRepository = (*GormApprovalLevelRepository)(nil)
