package persistence

import (
	"context"

	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. If fn returns an error the
// transaction is rolled back; otherwise it is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
	return translate(err)
}

// Repositories returns repositories bound to the plain connection pool
func (s *GormTransactionScope) Repositories() uow.Repositories {
	return &gormRepositories{db: s.db}
}

// gormRepositories provides access to all repositories on one handle.
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.db)
}

func (r *gormRepositories) Permissions() identity.PermissionRepository {
	return NewGormPermissionRepository(r.db)
}

func (r *gormRepositories) Companies() tenancy.CompanyRepository {
	return NewGormCompanyRepository(r.db)
}

func (r *gormRepositories) Memberships() tenancy.MembershipRepository {
	return NewGormMembershipRepository(r.db)
}

func (r *gormRepositories) Designations() tenancy.DesignationRepository {
	return NewGormDesignationRepository(r.db)
}

func (r *gormRepositories) ApprovalLevels() tenancy.ApprovalLevelRepository {
	return NewGormApprovalLevelRepository(r.db)
}

func (r *gormRepositories) BankAccounts() tenancy.BankAccountRepository {
	return NewGormBankAccountRepository(r.db)
}

func (r *gormRepositories) OrganizationProfile() tenancy.OrganizationProfileRepository {
	return NewGormOrganizationProfileRepository(r.db)
}

func (r *gormRepositories) Vouchers() voucher.Repository {
	return NewGormVoucherRepository(r.db)
}

func (r *gormRepositories) Approvals() voucher.ApprovalRepository {
	return NewGormApprovalRepository(r.db)
}

func (r *gormRepositories) Functions() venue.Repository {
	return NewGormFunctionRepository(r.db)
}

func (r *gormRepositories) Sequences() shared.SequenceRepository {
	return NewGormSequenceRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ uow.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ uow.Repositories = (*gormRepositories)(nil)
