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

// UserService manages the user directory
type UserService struct {
	scope  uow.TransactionScope
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(scope uow.TransactionScope, logger *zap.Logger) *UserService {
	return &UserService{
		scope:  scope,
		logger: logger,
	}
}

// CreateUser adds a user to the directory
func (s *UserService) CreateUser(ctx context.Context, actor identity.Principal, input CreateUserInput) (*UserDTO, error) {
	if err := RequireSuperuser(actor, "Only superusers can create users."); err != nil {
		return nil, err
	}

	user, err := identity.NewUser(input.Username, input.Email, input.IsSuperuser)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		exists, err := repos.Users().ExistsByUsername(ctx, user.Username)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflict("Username already exists")
		}
		return repos.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Bool("superuser", user.IsSuperuser),
	)
	return ToUserDTO(user), nil
}

// ListUsers lists the directory
func (s *UserService) ListUsers(ctx context.Context, actor identity.Principal, filter shared.Filter) (*shared.Paginated[UserDTO], error) {
	if err := RequireSuperuser(actor, "Only superusers can list users."); err != nil {
		return nil, err
	}
	filter = filter.Normalized()
	users, total, err := s.scope.Repositories().Users().FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := make([]UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, *ToUserDTO(&users[i]))
	}
	page := shared.NewPaginated(dtos, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ResolvePrincipal turns an authenticated user id into a Principal. Unknown
// and inactive users are refused.
func (s *UserService) ResolvePrincipal(ctx context.Context, userID uuid.UUID) (identity.Principal, error) {
	user, err := s.scope.Repositories().Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.Principal{}, shared.NewPermissionDenied("Unknown user.")
		}
		return identity.Principal{}, err
	}
	if !user.IsActive {
		return identity.Principal{}, shared.NewPermissionDenied("User account is inactive.")
	}
	return user.Principal(), nil
}
