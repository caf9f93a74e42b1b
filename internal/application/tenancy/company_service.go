package tenancy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

const companyAdminOnly = "Only superusers can manage companies."

// CompanyService manages tenants
type CompanyService struct {
	scope           uow.TransactionScope
	events          shared.EventPublisher
	templateCompany string
	logger          *zap.Logger
}

// NewCompanyService creates a new company service. templateCompany names the
// company whose approval chain seeds new companies; empty means the oldest.
func NewCompanyService(scope uow.TransactionScope, events shared.EventPublisher, templateCompany string, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		scope:           scope,
		events:          events,
		templateCompany: templateCompany,
		logger:          logger,
	}
}

// CreateCompany creates a company and copies the template company's approval
// chain into it as same-named designations.
func (s *CompanyService) CreateCompany(ctx context.Context, actor identity.Principal, input CompanyInput) (*CompanyDTO, error) {
	if err := appidentity.RequireSuperuser(actor, companyAdminOnly); err != nil {
		return nil, err
	}
	company, err := tenancy.NewCompany(input.profile(), actor.UserID)
	if err != nil {
		return nil, err
	}

	seeded := 0
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		exists, err := repos.Companies().ExistsByName(ctx, company.Name, nil)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflict("Company with this name already exists")
		}
		if err := repos.Companies().Create(ctx, company); err != nil {
			return err
		}
		seeded, err = s.seedChain(ctx, repos, company, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("company created",
		zap.String("company_id", company.ID.String()),
		zap.String("name", company.Name),
		zap.Int("seeded_levels", seeded),
	)
	events := company.GetDomainEvents()
	company.ClearDomainEvents()
	uow.Publish(ctx, s.events, s.logger, events)
	return ToCompanyDTO(company), nil
}

func (s *CompanyService) seedChain(ctx context.Context, repos uow.Repositories, company *tenancy.Company, actor uuid.UUID) (int, error) {
	template, err := s.findTemplate(ctx, repos, company.ID)
	if err != nil || template == nil {
		return 0, err
	}

	levels, err := repos.ApprovalLevels().FindByCompany(ctx, template.ID)
	if err != nil || len(levels) == 0 {
		return 0, err
	}
	templateDesignations, err := repos.Designations().FindByCompany(ctx, template.ID)
	if err != nil {
		return 0, err
	}

	designations := make(map[uuid.UUID]tenancy.Designation, len(levels))
	entries := make([]tenancy.ChainEntry, 0, len(levels))
	for _, level := range levels {
		src, ok := shared.FirstWhere(templateDesignations, func(d tenancy.Designation) bool { return d.ID == level.DesignationID })
		if !ok {
			continue
		}
		d, err := tenancy.NewDesignation(company.ID, src.Name, actor)
		if err != nil {
			return 0, err
		}
		if err := repos.Designations().Create(ctx, d); err != nil {
			return 0, err
		}
		designations[d.ID] = *d
		entries = append(entries, tenancy.ChainEntry{DesignationID: d.ID, IsActive: level.IsActive})
	}

	copied, err := tenancy.BuildApprovalLevels(company, entries, designations, actor)
	if err != nil {
		return 0, err
	}
	if err := repos.ApprovalLevels().ReplaceAll(ctx, company.ID, copied); err != nil {
		return 0, err
	}
	return len(copied), nil
}

func (s *CompanyService) findTemplate(ctx context.Context, repos uow.Repositories, newID uuid.UUID) (*tenancy.Company, error) {
	if s.templateCompany != "" {
		c, err := repos.Companies().FindByName(ctx, s.templateCompany)
		if err == nil && c.ID != newID {
			return c, nil
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	c, err := repos.Companies().FindOldestExcept(ctx, newID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// UpdateCompany replaces a company's profile
func (s *CompanyService) UpdateCompany(ctx context.Context, actor identity.Principal, id uuid.UUID, input CompanyInput) (*CompanyDTO, error) {
	if err := appidentity.RequireSuperuser(actor, companyAdminOnly); err != nil {
		return nil, err
	}
	var company *tenancy.Company
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		company, err = repos.Companies().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := company.Update(input.profile()); err != nil {
			return err
		}
		exists, err := repos.Companies().ExistsByName(ctx, company.Name, &company.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflict("Company with this name already exists")
		}
		return repos.Companies().Update(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	return ToCompanyDTO(company), nil
}

// ToggleCompanyActive flips the active flag of a company
func (s *CompanyService) ToggleCompanyActive(ctx context.Context, actor identity.Principal, id uuid.UUID) (*CompanyDTO, error) {
	if err := appidentity.RequireSuperuser(actor, companyAdminOnly); err != nil {
		return nil, err
	}
	var company *tenancy.Company
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		company, err = repos.Companies().FindByID(ctx, id)
		if err != nil {
			return err
		}
		company.ToggleActive()
		return repos.Companies().Update(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("company toggled",
		zap.String("company_id", id.String()),
		zap.Bool("active", company.IsActive),
	)
	return ToCompanyDTO(company), nil
}

// DeleteCompany removes a company that owns no vouchers or bookings
func (s *CompanyService) DeleteCompany(ctx context.Context, actor identity.Principal, id uuid.UUID) error {
	if err := appidentity.RequireSuperuser(actor, companyAdminOnly); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		company, err := repos.Companies().FindByID(ctx, id)
		if err != nil {
			return err
		}
		vouchers, err := repos.Vouchers().CountByCompany(ctx, id)
		if err != nil {
			return err
		}
		functions, err := repos.Functions().CountByCompany(ctx, id)
		if err != nil {
			return err
		}
		if err := company.EnsureDeletable(vouchers, functions); err != nil {
			return err
		}
		return repos.Companies().Delete(ctx, id)
	})
	if err != nil {
		s.logger.Warn("company delete refused", zap.String("company_id", id.String()), zap.Error(err))
		return err
	}
	s.logger.Info("company deleted", zap.String("company_id", id.String()))
	return nil
}

// ListCompanies returns every company
func (s *CompanyService) ListCompanies(ctx context.Context, actor identity.Principal) ([]CompanyDTO, error) {
	if err := appidentity.RequireSuperuser(actor, companyAdminOnly); err != nil {
		return nil, err
	}
	companies, err := s.scope.Repositories().Companies().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToCompanyDTOs(companies), nil
}

// ListMyCompanies returns the active companies the user may switch to
func (s *CompanyService) ListMyCompanies(ctx context.Context, actor identity.Principal) ([]CompanyDTO, error) {
	repo := s.scope.Repositories().Companies()
	var (
		companies []tenancy.Company
		err       error
	)
	if actor.IsSuperuser {
		companies, err = repo.FindActive(ctx)
	} else {
		companies, err = repo.FindActiveForUser(ctx, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	return ToCompanyDTOs(companies), nil
}

// SelectCompany checks that actor may act inside companyID and returns it.
// This is where membership is enforced; the capability gate only looks at
// permission rows.
func (s *CompanyService) SelectCompany(ctx context.Context, actor identity.Principal, companyID uuid.UUID) (*CompanyDTO, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrNoActiveCompany
	}
	repos := s.scope.Repositories()
	company, err := repos.Companies().FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewPermissionDenied("You do not have access to this company.")
		}
		return nil, err
	}
	if !company.IsActive {
		return nil, shared.NewPermissionDenied("This company is inactive.")
	}
	if actor.IsSuperuser {
		return ToCompanyDTO(company), nil
	}

	m, err := repos.Memberships().FindByUserAndCompany(ctx, actor.UserID, companyID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, shared.NewPermissionDenied("You do not have access to this company.")
	}
	return ToCompanyDTO(company), nil
}
