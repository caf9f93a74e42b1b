package tenancy

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// OrganizationProfileID is the primary key of the only profile row
const OrganizationProfileID = 1

// OrganizationProfile holds organization-wide letterhead defaults. It is a
// one-row table read and written through OrganizationProfileRepository only.
type OrganizationProfile struct {
	ID        int        `gorm:"primaryKey;autoIncrement:false"`
	Name      string     `gorm:"type:varchar(200)"`
	GSTNo     string     `gorm:"column:gst_no;type:varchar(20)"`
	PANNo     string     `gorm:"column:pan_no;type:varchar(15)"`
	Address   string     `gorm:"type:text"`
	Email     string     `gorm:"type:varchar(254)"`
	Phone     string     `gorm:"type:varchar(20)"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (OrganizationProfile) TableName() string {
	return "organization_profile"
}

// EmptyOrganizationProfile is what a missing row reads as
func EmptyOrganizationProfile() *OrganizationProfile {
	return &OrganizationProfile{ID: OrganizationProfileID}
}

// Apply copies profile fields onto the row
func (p *OrganizationProfile) Apply(profile CompanyProfile, editor uuid.UUID) error {
	email := strings.TrimSpace(profile.Email)
	if len(email) > 254 {
		return shared.NewValidationError("Email cannot exceed 254 characters")
	}
	p.ID = OrganizationProfileID
	p.Name = strings.TrimSpace(profile.Name)
	p.GSTNo = strings.TrimSpace(profile.GSTNo)
	p.PANNo = strings.TrimSpace(profile.PANNo)
	p.Address = strings.TrimSpace(profile.Address)
	p.Email = email
	p.Phone = strings.TrimSpace(profile.Phone)
	p.UpdatedBy = &editor
	p.UpdatedAt = time.Now()
	return nil
}
