package tenancy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// DesignationService manages company job titles
type DesignationService struct {
	scope  uow.TransactionScope
	logger *zap.Logger
}

// NewDesignationService creates a new designation service
func NewDesignationService(scope uow.TransactionScope, logger *zap.Logger) *DesignationService {
	return &DesignationService{scope: scope, logger: logger}
}

// CreateDesignation adds a designation to a company
func (s *DesignationService) CreateDesignation(ctx context.Context, actor identity.Principal, companyID uuid.UUID, name string) (*DesignationDTO, error) {
	if err := appidentity.RequireSuperuser(actor, "Only superusers can manage designations."); err != nil {
		return nil, err
	}
	d, err := tenancy.NewDesignation(companyID, name, actor.UserID)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		company, err := repos.Companies().FindByID(ctx, companyID)
		if err != nil {
			return notFoundAs(err, "Company not found")
		}
		exists, err := repos.Designations().ExistsByName(ctx, companyID, d.Name)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflict(fmt.Sprintf("Designation already exists in %s", company.Name))
		}
		return repos.Designations().Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("designation created",
		zap.String("designation_id", d.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("name", d.Name),
	)
	return &DesignationDTO{ID: d.ID, CompanyID: d.CompanyID, Name: d.Name}, nil
}

// ListDesignations returns a company's designations ordered by name
func (s *DesignationService) ListDesignations(ctx context.Context, companyID uuid.UUID) ([]DesignationDTO, error) {
	designations, err := s.scope.Repositories().Designations().FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]DesignationDTO, 0, len(designations))
	for _, d := range designations {
		out = append(out, DesignationDTO{ID: d.ID, CompanyID: d.CompanyID, Name: d.Name})
	}
	return out, nil
}

// ListApprovalLevels returns a company's chain ordered by order, inactive
// levels included
func (s *DesignationService) ListApprovalLevels(ctx context.Context, companyID uuid.UUID) ([]ApprovalLevelDTO, error) {
	repos := s.scope.Repositories()
	levels, err := repos.ApprovalLevels().FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	designations, err := repos.Designations().FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(designations))
	for _, d := range designations {
		names[d.ID] = d.Name
	}

	out := make([]ApprovalLevelDTO, 0, len(levels))
	for _, l := range levels {
		out = append(out, ApprovalLevelDTO{
			ID:              l.ID,
			DesignationID:   l.DesignationID,
			DesignationName: names[l.DesignationID],
			Order:           l.Order,
			IsActive:        l.IsActive,
		})
	}
	return out, nil
}
