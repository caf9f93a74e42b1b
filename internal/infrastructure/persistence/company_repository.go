package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// GormCompanyRepository implements CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// Create creates a new company
func (r *GormCompanyRepository) Create(ctx context.Context, company *tenancy.Company) error {
	return translate(r.db.WithContext(ctx).Create(company).Error)
}

// Update updates an existing company
func (r *GormCompanyRepository) Update(ctx context.Context, company *tenancy.Company) error {
	result := r.db.WithContext(ctx).Save(company)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a company
func (r *GormCompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&tenancy.Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	var company tenancy.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// FindByName finds a company by name, ignoring case
func (r *GormCompanyRepository) FindByName(ctx context.Context, name string) (*tenancy.Company, error) {
	var company tenancy.Company
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&company).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// FindAll returns every company ordered by name
func (r *GormCompanyRepository) FindAll(ctx context.Context) ([]tenancy.Company, error) {
	var companies []tenancy.Company
	if err := r.db.WithContext(ctx).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// FindActive returns every active company ordered by name
func (r *GormCompanyRepository) FindActive(ctx context.Context) ([]tenancy.Company, error) {
	var companies []tenancy.Company
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// FindActiveForUser returns the active companies where userID holds an active membership
func (r *GormCompanyRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID) ([]tenancy.Company, error) {
	var companies []tenancy.Company
	members := r.db.Model(&tenancy.Membership{}).
		Select("company_id").
		Where("user_id = ? AND is_active = ?", userID, true)
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND id IN (?)", true, members).
		Order("name").
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// FindOldestExcept returns the earliest created company other than id
func (r *GormCompanyRepository) FindOldestExcept(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	var company tenancy.Company
	if err := r.db.WithContext(ctx).
		Where("id <> ?", id).
		Order("created_at ASC").
		First(&company).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

// ExistsByName checks whether another company already uses name
func (r *GormCompanyRepository) ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&tenancy.Company{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ tenancy.CompanyRepository = (*GormCompanyRepository)(nil)
