package tenancy

import (
	"context"

	"github.com/google/uuid"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

const accountAdminOnly = "Only superusers can manage bank accounts."

// BankAccountService manages the accounts cheques are drawn on
type BankAccountService struct {
	scope  uow.TransactionScope
	logger *zap.Logger
}

// NewBankAccountService creates a new bank account service
func NewBankAccountService(scope uow.TransactionScope, logger *zap.Logger) *BankAccountService {
	return &BankAccountService{scope: scope, logger: logger}
}

// ListActiveAccounts returns the accounts offered on the voucher form
func (s *BankAccountService) ListActiveAccounts(ctx context.Context, companyID uuid.UUID) ([]BankAccountDTO, error) {
	return s.list(ctx, companyID, true)
}

// ListAllAccounts returns active and inactive accounts
func (s *BankAccountService) ListAllAccounts(ctx context.Context, actor identity.Principal, companyID uuid.UUID) ([]BankAccountDTO, error) {
	if err := appidentity.RequireSuperuser(actor, accountAdminOnly); err != nil {
		return nil, err
	}
	return s.list(ctx, companyID, false)
}

func (s *BankAccountService) list(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]BankAccountDTO, error) {
	accounts, err := s.scope.Repositories().BankAccounts().FindByCompany(ctx, companyID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]BankAccountDTO, 0, len(accounts))
	for i := range accounts {
		out = append(out, *ToBankAccountDTO(&accounts[i]))
	}
	return out, nil
}

// CreateAccount adds an account to the company
func (s *BankAccountService) CreateAccount(ctx context.Context, actor identity.Principal, companyID uuid.UUID, bankName, accountNumber string) (*BankAccountDTO, error) {
	if err := appidentity.RequireSuperuser(actor, accountAdminOnly); err != nil {
		return nil, err
	}
	account, err := tenancy.NewBankAccount(companyID, bankName, accountNumber, actor.UserID)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		exists, err := repos.BankAccounts().Exists(ctx, companyID, account.BankName, account.AccountNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewConflict("This account already exists")
		}
		return repos.BankAccounts().Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bank account created",
		zap.String("account_id", account.ID.String()),
		zap.String("company_id", companyID.String()),
	)
	return ToBankAccountDTO(account), nil
}

// ToggleAccount flips the active flag
func (s *BankAccountService) ToggleAccount(ctx context.Context, actor identity.Principal, companyID, id uuid.UUID) (*BankAccountDTO, error) {
	if err := appidentity.RequireSuperuser(actor, accountAdminOnly); err != nil {
		return nil, err
	}
	var account *tenancy.BankAccount
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		account, err = repos.BankAccounts().FindByID(ctx, companyID, id)
		if err != nil {
			return notFoundAs(err, "Account not found")
		}
		account.ToggleActive()
		return repos.BankAccounts().Update(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	return ToBankAccountDTO(account), nil
}

// DeleteAccount removes an account no voucher references
func (s *BankAccountService) DeleteAccount(ctx context.Context, actor identity.Principal, companyID, id uuid.UUID) error {
	if err := appidentity.RequireSuperuser(actor, accountAdminOnly); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		account, err := repos.BankAccounts().FindByID(ctx, companyID, id)
		if err != nil {
			return notFoundAs(err, "Account not found")
		}
		count, err := repos.Vouchers().CountByAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		if err := account.EnsureDeletable(count); err != nil {
			return err
		}
		return repos.BankAccounts().Delete(ctx, account.ID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("bank account deleted", zap.String("account_id", id.String()))
	return nil
}
