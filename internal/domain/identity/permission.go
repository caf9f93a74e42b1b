package identity

import (
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// UserPermission holds one user's capability grants inside one company.
type UserPermission struct {
	shared.BaseEntity
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_permissions_user_company"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_permissions_user_company"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`

	CanCreateVoucher      bool `gorm:"not null"`
	CanEditVoucher        bool `gorm:"not null"`
	CanViewVoucherList    bool `gorm:"not null"`
	CanViewVoucherDetail  bool `gorm:"not null"`
	CanPrintVoucher       bool `gorm:"not null"`
	CanCreateFunction     bool `gorm:"not null"`
	CanEditFunction       bool `gorm:"not null"`
	CanDeleteFunction     bool `gorm:"not null"`
	CanViewFunctionList   bool `gorm:"not null"`
	CanViewFunctionDetail bool `gorm:"not null"`
	CanPrintFunction      bool `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserPermission) TableName() string {
	return "user_permissions"
}

// NewDefaultUserPermission returns the grants a user gets before anyone has
// edited their rights.
func NewDefaultUserPermission(userID, companyID uuid.UUID) *UserPermission {
	p := &UserPermission{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		CompanyID:  companyID,
	}
	for _, c := range AllCapabilities {
		*p.flag(c) = c.DefaultAllowed()
	}
	return p
}

// Has reports whether the capability is granted
func (p *UserPermission) Has(c Capability) bool {
	f := p.flag(c)
	if f == nil {
		return false
	}
	return *f
}

// Set grants or revokes one capability
func (p *UserPermission) Set(c Capability, granted bool) error {
	f := p.flag(c)
	if f == nil {
		return shared.NewValidationError("Unknown permission: " + string(c))
	}
	*f = granted
	return nil
}

// Apply sets every capability present in flags. Unknown keys are rejected
// before anything changes.
func (p *UserPermission) Apply(flags map[Capability]bool, updatedBy uuid.UUID) error {
	for c := range flags {
		if !c.IsValid() {
			return shared.NewValidationError("Unknown permission: " + string(c))
		}
	}
	for c, granted := range flags {
		*p.flag(c) = granted
	}
	p.UpdatedBy = &updatedBy
	p.Touch()
	return nil
}

// Flags returns every capability with its current grant
func (p *UserPermission) Flags() map[Capability]bool {
	out := make(map[Capability]bool, len(AllCapabilities))
	for _, c := range AllCapabilities {
		out[c] = *p.flag(c)
	}
	return out
}

func (p *UserPermission) flag(c Capability) *bool {
	switch c {
	case CapCreateVoucher:
		return &p.CanCreateVoucher
	case CapEditVoucher:
		return &p.CanEditVoucher
	case CapViewVoucherList:
		return &p.CanViewVoucherList
	case CapViewVoucherDetail:
		return &p.CanViewVoucherDetail
	case CapPrintVoucher:
		return &p.CanPrintVoucher
	case CapCreateFunction:
		return &p.CanCreateFunction
	case CapEditFunction:
		return &p.CanEditFunction
	case CapDeleteFunction:
		return &p.CanDeleteFunction
	case CapViewFunctionList:
		return &p.CanViewFunctionList
	case CapViewFunctionDetail:
		return &p.CanViewFunctionDetail
	case CapPrintFunction:
		return &p.CanPrintFunction
	default:
		return nil
	}
}
