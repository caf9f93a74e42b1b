package tenancy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// Company is the tenant boundary. Every voucher, function booking,
// designation, approval level and permission row belongs to exactly one.
type Company struct {
	shared.BaseAggregateRoot
	Name      string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	GSTNo     string     `gorm:"column:gst_no;type:varchar(20)"`
	PANNo     string     `gorm:"column:pan_no;type:varchar(15)"`
	Address   string     `gorm:"type:text"`
	Email     string     `gorm:"type:varchar(254)"`
	Phone     string     `gorm:"type:varchar(20)"`
	IsActive  bool       `gorm:"not null;default:true"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// CompanyProfile carries the editable letterhead fields of a company
type CompanyProfile struct {
	Name    string
	GSTNo   string
	PANNo   string
	Address string
	Email   string
	Phone   string
}

// NewCompany creates an active company
func NewCompany(profile CompanyProfile, createdBy uuid.UUID) (*Company, error) {
	c := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IsActive:          true,
		CreatedBy:         &createdBy,
	}
	if err := c.Update(profile); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewCompanyCreatedEvent(c))
	return c, nil
}

// Update replaces the profile fields
func (c *Company) Update(profile CompanyProfile) error {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return shared.NewValidationError("Company name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("Company name cannot exceed 200 characters")
	}
	c.Name = name
	c.GSTNo = strings.TrimSpace(profile.GSTNo)
	c.PANNo = strings.TrimSpace(profile.PANNo)
	c.Address = strings.TrimSpace(profile.Address)
	c.Email = strings.TrimSpace(profile.Email)
	c.Phone = strings.TrimSpace(profile.Phone)
	c.Touch()
	return nil
}

// ToggleActive flips the active flag. Deactivation is always allowed.
func (c *Company) ToggleActive() {
	c.IsActive = !c.IsActive
	c.Touch()
}

// EnsureDeletable refuses deletion of a company that still owns documents
func (c *Company) EnsureDeletable(voucherCount, functionCount int64) error {
	if voucherCount > 0 {
		return shared.NewConflict(fmt.Sprintf("Cannot delete company with %d vouchers. Deactivate instead.", voucherCount))
	}
	if functionCount > 0 {
		return shared.NewConflict(fmt.Sprintf("Cannot delete company with %d function bookings. Deactivate instead.", functionCount))
	}
	return nil
}
