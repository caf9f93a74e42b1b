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

// AuthorizationService is the single gate every use case passes before it
// touches storage.
type AuthorizationService struct {
	scope  uow.TransactionScope
	logger *zap.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(scope uow.TransactionScope, logger *zap.Logger) *AuthorizationService {
	return &AuthorizationService{
		scope:  scope,
		logger: logger,
	}
}

// Authorize decides whether p may use capability c in companyID. It only reads.
func (s *AuthorizationService) Authorize(ctx context.Context, p identity.Principal, c identity.Capability, companyID uuid.UUID) (identity.Decision, error) {
	if p.IsSuperuser || companyID == uuid.Nil {
		return identity.Authorize(p, c, companyID, false, nil), nil
	}

	repos := s.scope.Repositories()
	member, err := isActiveMember(ctx, repos, p.UserID, companyID)
	if err != nil {
		return identity.Decision{}, err
	}
	if !member {
		return identity.Authorize(p, c, companyID, false, nil), nil
	}

	perm, err := repos.Permissions().Find(ctx, p.UserID, companyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return identity.Decision{}, err
	}
	return identity.Authorize(p, c, companyID, true, perm), nil
}

// isActiveMember reports an active membership of userID in companyID, which
// must itself be active
func isActiveMember(ctx context.Context, repos uow.Repositories, userID, companyID uuid.UUID) (bool, error) {
	company, err := repos.Companies().FindByID(ctx, companyID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !company.IsActive {
		return false, nil
	}

	m, err := repos.Memberships().FindByUserAndCompany(ctx, userID, companyID)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsActive, nil
}

// Require is Authorize turned into an error for denials
func (s *AuthorizationService) Require(ctx context.Context, p identity.Principal, c identity.Capability, companyID uuid.UUID) error {
	decision, err := s.Authorize(ctx, p, c, companyID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		s.logger.Warn("authorization denied",
			zap.String("user_id", p.UserID.String()),
			zap.String("capability", c.String()),
			zap.String("company_id", companyID.String()),
			zap.String("reason", decision.Reason),
		)
	}
	return decision.Err()
}

// RequireSuperuser rejects everyone but superusers with message
func RequireSuperuser(p identity.Principal, message string) error {
	if p.IsSuperuser {
		return nil
	}
	return shared.NewPermissionDenied(message)
}
