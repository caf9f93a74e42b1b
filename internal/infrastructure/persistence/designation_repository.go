package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// GormDesignationRepository implements DesignationRepository using GORM
type GormDesignationRepository struct {
	db *gorm.DB
}

// NewGormDesignationRepository creates a new GormDesignationRepository
func NewGormDesignationRepository(db *gorm.DB) *GormDesignationRepository {
	return &GormDesignationRepository{db: db}
}

// Create creates a new designation
func (r *GormDesignationRepository) Create(ctx context.Context, d *tenancy.Designation) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

// FindByID finds a designation within companyID
func (r *GormDesignationRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*tenancy.Designation, error) {
	var d tenancy.Designation
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// FindByCompany returns a company's designations ordered by name
func (r *GormDesignationRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]tenancy.Designation, error) {
	var designations []tenancy.Designation
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name").
		Find(&designations).Error; err != nil {
		return nil, err
	}
	return designations, nil
}

// FindByName finds a designation by name within companyID
func (r *GormDesignationRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*tenancy.Designation, error) {
	var d tenancy.Designation
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND LOWER(name) = ?", companyID, strings.ToLower(strings.TrimSpace(name))).
		First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// ExistsByName checks whether name is taken within companyID
func (r *GormDesignationRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&tenancy.Designation{}).
		Where("company_id = ? AND LOWER(name) = ?", companyID, strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormDesignationRepository implements DesignationRepository
var _ tenancy.DesignationRepository = (*GormDesignationRepository)(nil)
