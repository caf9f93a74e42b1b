package persistence

import (
	"context"
	"errors"

	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrganizationProfileRepository reads and writes the single
// organization_profile row
type GormOrganizationProfileRepository struct {
	db *gorm.DB
}

// NewGormOrganizationProfileRepository creates a new GormOrganizationProfileRepository
func NewGormOrganizationProfileRepository(db *gorm.DB) *GormOrganizationProfileRepository {
	return &GormOrganizationProfileRepository{db: db}
}

// Get returns the profile, or an empty profile when the row is missing
func (r *GormOrganizationProfileRepository) Get(ctx context.Context) (*tenancy.OrganizationProfile, error) {
	var p tenancy.OrganizationProfile
	err := r.db.WithContext(ctx).First(&p, "id = ?", tenancy.OrganizationProfileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tenancy.EmptyOrganizationProfile(), nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the row
func (r *GormOrganizationProfileRepository) Save(ctx context.Context, p *tenancy.OrganizationProfile) error {
	p.ID = tenancy.OrganizationProfileID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// Ensure GormOrganizationProfileRepository implements OrganizationProfileRepository
var _ tenancy.OrganizationProfileRepository = (*GormOrganizationProfileRepository)(nil)
