package tenancy

import (
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// Designation is a company-scoped job title and the unit an approval chain
// is built from.
type Designation struct {
	shared.BaseEntity
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_designations_company_name"`
	Name      string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_designations_company_name"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Designation) TableName() string {
	return "designations"
}

// NewDesignation creates a designation
func NewDesignation(companyID uuid.UUID, name string, createdBy uuid.UUID) (*Designation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Designation name is required")
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("Designation name cannot exceed 100 characters")
	}
	return &Designation{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Name:       name,
		CreatedBy:  &createdBy,
	}, nil
}
