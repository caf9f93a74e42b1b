package tenancy

import (
	"context"

	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// OrganizationService reads and writes the one-row organization profile
type OrganizationService struct {
	scope  uow.TransactionScope
	logger *zap.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(scope uow.TransactionScope, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{scope: scope, logger: logger}
}

// GetOrganizationProfile returns the profile, empty when never saved
func (s *OrganizationService) GetOrganizationProfile(ctx context.Context) (*OrganizationProfileDTO, error) {
	p, err := s.scope.Repositories().OrganizationProfile().Get(ctx)
	if err != nil {
		return nil, err
	}
	return toOrganizationProfileDTO(p), nil
}

// UpdateOrganizationProfile upserts the profile row
func (s *OrganizationService) UpdateOrganizationProfile(ctx context.Context, actor identity.Principal, input CompanyInput) (*OrganizationProfileDTO, error) {
	if err := appidentity.RequireSuperuser(actor, "Only superusers can change organization settings."); err != nil {
		return nil, err
	}
	var p *tenancy.OrganizationProfile
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		p, err = repos.OrganizationProfile().Get(ctx)
		if err != nil {
			return err
		}
		if err := p.Apply(input.profile(), actor.UserID); err != nil {
			return err
		}
		return repos.OrganizationProfile().Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("organization profile updated", zap.String("updated_by", actor.UserID.String()))
	return toOrganizationProfileDTO(p), nil
}

func toOrganizationProfileDTO(p *tenancy.OrganizationProfile) *OrganizationProfileDTO {
	return &OrganizationProfileDTO{
		Name:    p.Name,
		GSTNo:   p.GSTNo,
		PANNo:   p.PANNo,
		Address: p.Address,
		Email:   p.Email,
		Phone:   p.Phone,
	}
}
