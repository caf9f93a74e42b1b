package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"gorm.io/gorm"
)

// GormMembershipRepository implements MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Create creates a new membership
func (r *GormMembershipRepository) Create(ctx context.Context, m *tenancy.Membership) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

// Update updates an existing membership
func (r *GormMembershipRepository) Update(ctx context.Context, m *tenancy.Membership) error {
	result := r.db.WithContext(ctx).Save(m)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a membership by ID
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Membership, error) {
	var m tenancy.Membership
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// FindByUserAndCompany finds the membership for (userID, companyID)
func (r *GormMembershipRepository) FindByUserAndCompany(ctx context.Context, userID, companyID uuid.UUID) (*tenancy.Membership, error) {
	var m tenancy.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// FindByCompany returns every membership of a company
func (r *GormMembershipRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]tenancy.Membership, error) {
	var memberships []tenancy.Membership
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// FindActiveByUser returns the user's active memberships across companies
func (r *GormMembershipRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]tenancy.Membership, error) {
	var memberships []tenancy.Membership
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// FindApprovers returns active Admin Staff memberships holding one of designationIDs
func (r *GormMembershipRepository) FindApprovers(ctx context.Context, companyID uuid.UUID, designationIDs []uuid.UUID) ([]tenancy.Membership, error) {
	if len(designationIDs) == 0 {
		return nil, nil
	}
	var memberships []tenancy.Membership
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ? AND role_group = ?", companyID, true, tenancy.GroupAdminStaff).
		Where("designation_id IN ?", designationIDs).
		Order("created_at").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// Ensure GormMembershipRepository implements MembershipRepository
var _ tenancy.MembershipRepository = (*GormMembershipRepository)(nil)
