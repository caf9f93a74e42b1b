package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

const membershipAdminOnly = "Only superusers can manage memberships."

// MembershipService assigns users to companies and keeps the auth group
// mirror in step. The mirror is written as the last step inside the
// transaction, so a mirror failure rolls the membership change back.
type MembershipService struct {
	scope  uow.TransactionScope
	mirror tenancy.GroupMirror
	events shared.EventPublisher
	logger *zap.Logger
}

// NewMembershipService creates a new membership service
func NewMembershipService(scope uow.TransactionScope, mirror tenancy.GroupMirror, events shared.EventPublisher, logger *zap.Logger) *MembershipService {
	return &MembershipService{
		scope:  scope,
		mirror: mirror,
		events: events,
		logger: logger,
	}
}

// CreateMembership assigns a user to a company, grants default permissions
// and resets the mirror to exactly the new group.
func (s *MembershipService) CreateMembership(ctx context.Context, actor identity.Principal, input CreateMembershipInput) (*MembershipDTO, error) {
	if err := appidentity.RequireSuperuser(actor, membershipAdminOnly); err != nil {
		return nil, err
	}

	var m *tenancy.Membership
	var collector uow.EventCollector
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		user, err := repos.Users().FindByID(ctx, input.UserID)
		if err != nil {
			return notFoundAs(err, "User not found")
		}
		company, err := repos.Companies().FindByID(ctx, input.CompanyID)
		if err != nil {
			return notFoundAs(err, "Company not found")
		}

		existing, err := repos.Memberships().FindByUserAndCompany(ctx, user.ID, company.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return shared.NewConflict(fmt.Sprintf("%s is already assigned to %s", user.Username, company.Name))
		}

		designation, err := loadDesignation(ctx, repos, company.ID, input.DesignationID)
		if err != nil {
			return err
		}
		m, err = tenancy.NewMembership(user.ID, company.ID, input.Group, designation, input.Mobile)
		if err != nil {
			return err
		}
		if err := repos.Memberships().Create(ctx, m); err != nil {
			return err
		}
		if err := appidentity.EnsureDefaultPermissions(ctx, repos, user.ID, company.ID); err != nil {
			return err
		}
		collector.Collect(m)
		return s.mirror.Reset(ctx, user.ID, []tenancy.RoleGroup{m.Group})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("membership created",
		zap.String("membership_id", m.ID.String()),
		zap.String("user_id", m.UserID.String()),
		zap.String("company_id", m.CompanyID.String()),
		zap.String("group", string(m.Group)),
	)
	uow.Publish(ctx, s.events, s.logger, collector.Events())
	return ToMembershipDTO(m), nil
}

// UpdateMembership changes group, designation, mobile or active flag. The
// mirror is re-synced when the group or the active flag changes.
func (s *MembershipService) UpdateMembership(ctx context.Context, actor identity.Principal, id uuid.UUID, input UpdateMembershipInput) (*MembershipDTO, error) {
	if err := appidentity.RequireSuperuser(actor, membershipAdminOnly); err != nil {
		return nil, err
	}

	var m *tenancy.Membership
	var collector uow.EventCollector
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		m, err = repos.Memberships().FindByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "Membership not found")
		}
		oldGroup, oldActive := m.Group, m.IsActive

		if input.Group != nil || input.DesignationID != nil {
			group := m.Group
			if input.Group != nil {
				group = *input.Group
			}
			designationID := input.DesignationID
			if designationID == nil && group == tenancy.GroupAdminStaff {
				designationID = m.DesignationID
			}
			designation, err := loadDesignation(ctx, repos, m.CompanyID, designationID)
			if err != nil {
				return err
			}
			if err := m.Assign(group, designation); err != nil {
				return err
			}
		}
		if input.Mobile != nil {
			if err := m.SetMobile(*input.Mobile); err != nil {
				return err
			}
		}
		if input.IsActive != nil {
			if *input.IsActive {
				m.Activate()
			} else {
				m.Deactivate()
			}
		}
		if err := repos.Memberships().Update(ctx, m); err != nil {
			return err
		}
		collector.Collect(m)

		switch {
		case oldActive != m.IsActive:
			return s.resyncMirror(ctx, repos, m.UserID)
		case oldGroup != m.Group:
			return s.mirror.Reset(ctx, m.UserID, []tenancy.RoleGroup{m.Group})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("membership updated",
		zap.String("membership_id", m.ID.String()),
		zap.String("group", string(m.Group)),
		zap.Bool("active", m.IsActive),
	)
	uow.Publish(ctx, s.events, s.logger, collector.Events())
	return ToMembershipDTO(m), nil
}

// DeactivateMembership soft-deletes a membership
func (s *MembershipService) DeactivateMembership(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdateMembership(ctx, actor, id, UpdateMembershipInput{IsActive: &inactive})
	return err
}

// ListMemberships returns the memberships of a company
func (s *MembershipService) ListMemberships(ctx context.Context, actor identity.Principal, companyID uuid.UUID) ([]MembershipDTO, error) {
	if err := appidentity.RequireSuperuser(actor, membershipAdminOnly); err != nil {
		return nil, err
	}
	memberships, err := s.scope.Repositories().Memberships().FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]MembershipDTO, 0, len(memberships))
	for i := range memberships {
		out = append(out, *ToMembershipDTO(&memberships[i]))
	}
	return out, nil
}

// IsAdminStaff reports whether userID holds an active Admin Staff membership
// in companyID
func IsAdminStaff(ctx context.Context, repos uow.Repositories, userID, companyID uuid.UUID) (bool, error) {
	m, err := repos.Memberships().FindByUserAndCompany(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.IsActive && m.Group == tenancy.GroupAdminStaff, nil
}

func (s *MembershipService) resyncMirror(ctx context.Context, repos uow.Repositories, userID uuid.UUID) error {
	active, err := repos.Memberships().FindActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.mirror.Reset(ctx, userID, tenancy.ActiveGroups(active))
}

func loadDesignation(ctx context.Context, repos uow.Repositories, companyID uuid.UUID, id *uuid.UUID) (*tenancy.Designation, error) {
	if id == nil {
		return nil, nil
	}
	d, err := repos.Designations().FindByID(ctx, companyID, *id)
	if err != nil {
		return nil, notFoundAs(err, "Designation not found in this company")
	}
	return d, nil
}

func notFoundAs(err error, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFound(message)
	}
	return err
}
