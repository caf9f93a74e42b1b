package tenancy

import (
	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
)

const (
	AggregateTypeCompany    = "Company"
	AggregateTypeMembership = "Membership"
)

const (
	EventTypeCompanyCreated      = "CompanyCreated"
	EventTypeMembershipChanged   = "MembershipChanged"
	EventTypeApprovalChainEdited = "ApprovalChainEdited"
)

// CompanyCreatedEvent is published when a company is created
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(c *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, c.ID, c.ID),
		Name:            c.Name,
	}
}

// MembershipChangedEvent is published when a membership is created, edited
// or deactivated
type MembershipChangedEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID `json:"user_id"`
	Group    RoleGroup `json:"group"`
	IsActive bool      `json:"is_active"`
}

// NewMembershipChangedEvent creates a new MembershipChangedEvent
func NewMembershipChangedEvent(m *Membership) *MembershipChangedEvent {
	return &MembershipChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipChanged, AggregateTypeMembership, m.ID, m.CompanyID),
		UserID:          m.UserID,
		Group:           m.Group,
		IsActive:        m.IsActive,
	}
}

// ApprovalChainEditedEvent is published after a chain replacement commits
type ApprovalChainEditedEvent struct {
	shared.BaseDomainEvent
	Levels      int `json:"levels"`
	Recomputed  int `json:"recomputed"`
	NewApproved int `json:"new_approved"`
}

// NewApprovalChainEditedEvent creates a new ApprovalChainEditedEvent
func NewApprovalChainEditedEvent(companyID uuid.UUID, levels, recomputed, newApproved int) *ApprovalChainEditedEvent {
	return &ApprovalChainEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApprovalChainEdited, AggregateTypeCompany, companyID, companyID),
		Levels:          levels,
		Recomputed:      recomputed,
		NewApproved:     newApproved,
	}
}
