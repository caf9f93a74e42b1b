package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const rightsAdminOnly = "Only superusers can manage user rights."

// PermissionService manages per-company capability grants
type PermissionService struct {
	scope  uow.TransactionScope
	logger *zap.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(scope uow.TransactionScope, logger *zap.Logger) *PermissionService {
	return &PermissionService{
		scope:  scope,
		logger: logger,
	}
}

// GetOrDefaultPermissions returns the stored row for (userID, companyID), or
// an unsaved row holding the defaults when there is none.
func (s *PermissionService) GetOrDefaultPermissions(ctx context.Context, userID, companyID uuid.UUID) (*identity.UserPermission, error) {
	return getOrDefault(ctx, s.scope.Repositories(), userID, companyID)
}

// UpdatePermissions sets the given flags for a member of companyID
func (s *PermissionService) UpdatePermissions(ctx context.Context, editor identity.Principal, companyID uuid.UUID, input PermissionUpdate) (*PermissionDTO, error) {
	if err := RequireSuperuser(editor, rightsAdminOnly); err != nil {
		return nil, err
	}

	var saved *identity.UserPermission
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		saved, err = applyPermissions(ctx, repos, editor, companyID, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user rights updated",
		zap.String("user_id", input.UserID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("updated_by", editor.UserID.String()),
	)
	return ToPermissionDTO(saved), nil
}

// BulkUpdatePermissions applies several updates in one transaction
func (s *PermissionService) BulkUpdatePermissions(ctx context.Context, editor identity.Principal, companyID uuid.UUID, inputs []PermissionUpdate) (int, error) {
	if err := RequireSuperuser(editor, rightsAdminOnly); err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, shared.NewValidationError("No permission updates supplied.")
	}

	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		for _, in := range inputs {
			if _, err := applyPermissions(ctx, repos, editor, companyID, in); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("user rights bulk updated",
		zap.Int("count", len(inputs)),
		zap.String("company_id", companyID.String()),
	)
	return len(inputs), nil
}

// ListUserRights returns every active member of companyID with their grants,
// defaults filled in for members without a row.
func (s *PermissionService) ListUserRights(ctx context.Context, editor identity.Principal, companyID uuid.UUID) ([]UserRightsDTO, error) {
	if err := RequireSuperuser(editor, rightsAdminOnly); err != nil {
		return nil, err
	}
	repos := s.scope.Repositories()

	memberships, err := repos.Memberships().FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	perms, err := repos.Permissions().FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]*identity.UserPermission, len(perms))
	for i := range perms {
		byUser[perms[i].UserID] = &perms[i]
	}

	userIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		if m.IsActive {
			userIDs = append(userIDs, m.UserID)
		}
	}
	users, err := repos.Users().FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]UserRightsDTO, 0, len(users))
	for _, u := range users {
		perm, ok := byUser[u.ID]
		if !ok {
			perm = identity.NewDefaultUserPermission(u.ID, companyID)
		}
		out = append(out, UserRightsDTO{
			UserID:      u.ID,
			Username:    u.Username,
			IsSuperuser: u.IsSuperuser,
			Permissions: perm.Flags(),
		})
	}
	return out, nil
}

// EnsureDefaultPermissions creates the default row unless one exists. It runs
// inside the caller's transaction.
func EnsureDefaultPermissions(ctx context.Context, repos uow.Repositories, userID, companyID uuid.UUID) error {
	return repos.Permissions().CreateIfAbsent(ctx, identity.NewDefaultUserPermission(userID, companyID))
}

func applyPermissions(ctx context.Context, repos uow.Repositories, editor identity.Principal, companyID uuid.UUID, in PermissionUpdate) (*identity.UserPermission, error) {
	m, err := repos.Memberships().FindByUserAndCompany(ctx, in.UserID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("User is not a member of this company")
		}
		return nil, err
	}
	if !m.IsActive {
		return nil, shared.NewValidationError("User is not a member of this company")
	}

	perm, err := getOrDefault(ctx, repos, in.UserID, companyID)
	if err != nil {
		return nil, err
	}
	if err := perm.Apply(in.Flags, editor.UserID); err != nil {
		return nil, err
	}
	if err := repos.Permissions().Save(ctx, perm); err != nil {
		return nil, err
	}
	return perm, nil
}

func getOrDefault(ctx context.Context, repos uow.Repositories, userID, companyID uuid.UUID) (*identity.UserPermission, error) {
	perm, err := repos.Permissions().Find(ctx, userID, companyID)
	if err == nil {
		return perm, nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return identity.NewDefaultUserPermission(userID, companyID), nil
	}
	return nil, err
}
