package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// permissionFlagColumns are the capability columns of user_permissions
var permissionFlagColumns = []string{
	"can_create_voucher",
	"can_edit_voucher",
	"can_view_voucher_list",
	"can_view_voucher_detail",
	"can_print_voucher",
	"can_create_function",
	"can_edit_function",
	"can_delete_function",
	"can_view_function_list",
	"can_view_function_detail",
	"can_print_function",
}

// GormPermissionRepository implements PermissionRepository using GORM
type GormPermissionRepository struct {
	db *gorm.DB
}

// NewGormPermissionRepository creates a new GormPermissionRepository
func NewGormPermissionRepository(db *gorm.DB) *GormPermissionRepository {
	return &GormPermissionRepository{db: db}
}

// Find returns the row for (userID, companyID)
func (r *GormPermissionRepository) Find(ctx context.Context, userID, companyID uuid.UUID) (*identity.UserPermission, error) {
	var perm identity.UserPermission
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&perm).Error; err != nil {
		return nil, translate(err)
	}
	return &perm, nil
}

// FindByCompany returns every row of a company
func (r *GormPermissionRepository) FindByCompany(ctx context.Context, companyID uuid.UUID) ([]identity.UserPermission, error) {
	var perms []identity.UserPermission
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

// Save upserts the row keyed on (user_id, company_id)
func (r *GormPermissionRepository) Save(ctx context.Context, perm *identity.UserPermission) error {
	updates := append([]string{"updated_by", "updated_at"}, permissionFlagColumns...)
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).
		Create(perm).Error)
}

// CreateIfAbsent inserts perm unless a row already exists
func (r *GormPermissionRepository) CreateIfAbsent(ctx context.Context, perm *identity.UserPermission) error {
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
			DoNothing: true,
		}).
		Create(perm).Error)
}

// Ensure GormPermissionRepository implements PermissionRepository
var _ identity.PermissionRepository = (*GormPermissionRepository)(nil)
