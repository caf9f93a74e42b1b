package tenancy

import (
	"strings"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

// RoleGroup is the coarse role a member holds inside a company
type RoleGroup string

const (
	GroupAdminStaff  RoleGroup = "Admin Staff"
	GroupAccountants RoleGroup = "Accountants"
)

// IsValid reports whether g is a known role group
func (g RoleGroup) IsValid() bool {
	return g == GroupAdminStaff || g == GroupAccountants
}

// Membership binds a user to a company. Rows are deactivated, never deleted,
// so historical approvals keep resolving.
type Membership struct {
	shared.BaseEntity
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Group         RoleGroup  `gorm:"column:role_group;type:varchar(30);not null"`
	DesignationID *uuid.UUID `gorm:"type:uuid;index"`
	Mobile        string     `gorm:"type:varchar(15)"`
	IsActive      bool       `gorm:"not null;default:true"`

	domainEvents []shared.DomainEvent `gorm:"-"`
}

// TableName returns the table name for GORM
func (Membership) TableName() string {
	return "memberships"
}

// NewMembership creates an active membership. designation must belong to
// companyID when given.
func NewMembership(userID, companyID uuid.UUID, group RoleGroup, designation *Designation, mobile string) (*Membership, error) {
	m := &Membership{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		CompanyID:  companyID,
		IsActive:   true,
	}
	if err := m.Assign(group, designation); err != nil {
		return nil, err
	}
	if err := m.SetMobile(mobile); err != nil {
		return nil, err
	}
	m.domainEvents = append(m.domainEvents, NewMembershipChangedEvent(m))
	return m, nil
}

// Assign sets the role group and designation together. Admin Staff need a
// designation from the same company; Accountants never carry one.
func (m *Membership) Assign(group RoleGroup, designation *Designation) error {
	if !group.IsValid() {
		return shared.NewValidationError("Invalid role group: " + string(group))
	}
	switch group {
	case GroupAdminStaff:
		if designation == nil {
			return shared.NewValidationError("Designation is required for Admin Staff")
		}
		if designation.CompanyID != m.CompanyID {
			return shared.NewValidationError("Designation does not belong to this company")
		}
		id := designation.ID
		m.DesignationID = &id
	case GroupAccountants:
		m.DesignationID = nil
	}
	m.Group = group
	m.Touch()
	return nil
}

// SetMobile validates and stores a contact number
func (m *Membership) SetMobile(mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if len(mobile) > 15 {
		return shared.NewValidationError("Mobile number cannot exceed 15 characters")
	}
	m.Mobile = mobile
	return nil
}

// Deactivate marks the membership inactive
func (m *Membership) Deactivate() {
	if !m.IsActive {
		return
	}
	m.IsActive = false
	m.Touch()
	m.domainEvents = append(m.domainEvents, NewMembershipChangedEvent(m))
}

// Activate marks the membership active
func (m *Membership) Activate() {
	if m.IsActive {
		return
	}
	m.IsActive = true
	m.Touch()
	m.domainEvents = append(m.domainEvents, NewMembershipChangedEvent(m))
}

// IsApprover reports whether the member can sit in an approval chain
func (m *Membership) IsApprover() bool {
	return m.IsActive && m.Group == GroupAdminStaff && m.DesignationID != nil
}

// GetDomainEvents returns pending events
func (m *Membership) GetDomainEvents() []shared.DomainEvent {
	return m.domainEvents
}

// ClearDomainEvents drops pending events
func (m *Membership) ClearDomainEvents() {
	m.domainEvents = nil
}

// ActiveGroups returns the distinct role groups of the active memberships
func ActiveGroups(memberships []Membership) []RoleGroup {
	seen := make(map[RoleGroup]bool)
	var groups []RoleGroup
	for _, m := range memberships {
		if !m.IsActive || seen[m.Group] {
			continue
		}
		seen[m.Group] = true
		groups = append(groups, m.Group)
	}
	return groups
}
