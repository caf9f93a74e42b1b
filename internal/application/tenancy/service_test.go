package tenancy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/infrastructure/cache"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence/persistencetest"
	"go.uber.org/zap"
)

// flakyMirror wraps the in-memory mirror and fails while down is set
type flakyMirror struct {
	*cache.InMemoryGroupMirror
	down bool
}

func (m *flakyMirror) Reset(ctx context.Context, userID uuid.UUID, groups []tenancy.RoleGroup) error {
	if m.down {
		return errors.New("mirror unavailable")
	}
	return m.InMemoryGroupMirror.Reset(ctx, userID, groups)
}

type fixture struct {
	ctx   context.Context
	scope uow.TransactionScope
	root  identity.Principal

	mirror       *flakyMirror
	users        *appidentity.UserService
	companies    *apptenancy.CompanyService
	memberships  *apptenancy.MembershipService
	designations *apptenancy.DesignationService
	accounts     *apptenancy.BankAccountService
	organization *apptenancy.OrganizationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	log := zap.NewNop()
	f := &fixture{
		ctx:          context.Background(),
		scope:        scope,
		mirror:       &flakyMirror{InMemoryGroupMirror: cache.NewInMemoryGroupMirror()},
		users:        appidentity.NewUserService(scope, log),
		companies:    apptenancy.NewCompanyService(scope, nil, "", log),
		designations: apptenancy.NewDesignationService(scope, log),
		accounts:     apptenancy.NewBankAccountService(scope, log),
		organization: apptenancy.NewOrganizationService(scope, log),
	}
	f.memberships = apptenancy.NewMembershipService(scope, f.mirror, nil, log)

	rootUser, err := identity.NewUser("root", "root@example.com", true)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(db).Create(f.ctx, rootUser))
	f.root = rootUser.Principal()
	return f
}

func (f *fixture) company(t *testing.T, name string) *apptenancy.CompanyDTO {
	t.Helper()
	c, err := f.companies.CreateCompany(f.ctx, f.root, apptenancy.CompanyInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) user(t *testing.T, username string) identity.Principal {
	t.Helper()
	u, err := f.users.CreateUser(f.ctx, f.root, appidentity.CreateUserInput{Username: username})
	require.NoError(t, err)
	return identity.Principal{UserID: u.ID, Username: u.Username}
}

func (f *fixture) designation(t *testing.T, companyID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	d, err := f.designations.CreateDesignation(f.ctx, f.root, companyID, name)
	require.NoError(t, err)
	return d.ID
}

func TestCompanyService_SeedsChainFromOldestCompany(t *testing.T) {
	f := newFixture(t)
	head := f.company(t, "Head Office")
	manager := f.designation(t, head.ID, "Manager")
	director := f.designation(t, head.ID, "Director")

	levels := []tenancy.ChainEntry{{DesignationID: manager, IsActive: true}, {DesignationID: director, IsActive: false}}
	err := f.scope.Execute(f.ctx, func(repos uow.Repositories) error {
		company, err := repos.Companies().FindByID(f.ctx, head.ID)
		if err != nil {
			return err
		}
		designations, err := repos.Designations().FindByCompany(f.ctx, head.ID)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]tenancy.Designation)
		for _, d := range designations {
			byID[d.ID] = d
		}
		built, err := tenancy.BuildApprovalLevels(company, levels, byID, f.root.UserID)
		if err != nil {
			return err
		}
		return repos.ApprovalLevels().ReplaceAll(f.ctx, head.ID, built)
	})
	require.NoError(t, err)

	branch := f.company(t, "Branch")
	seeded, err := f.designations.ListApprovalLevels(f.ctx, branch.ID)
	require.NoError(t, err)
	require.Len(t, seeded, 2)
	assert.Equal(t, "Manager", seeded[0].DesignationName)
	assert.True(t, seeded[0].IsActive)
	assert.Equal(t, "Director", seeded[1].DesignationName)
	assert.False(t, seeded[1].IsActive)
	assert.NotEqual(t, manager, seeded[0].DesignationID, "designations are copied, not shared")

	_, err = f.companies.CreateCompany(f.ctx, f.root, apptenancy.CompanyInput{Name: "Branch"})
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestCompanyService_AccessAndLifecycle(t *testing.T) {
	f := newFixture(t)
	acme := f.company(t, "Acme")
	other := f.company(t, "Other")
	clerk := f.user(t, "clerk")
	_, err := f.memberships.CreateMembership(f.ctx, f.root, apptenancy.CreateMembershipInput{
		UserID: clerk.UserID, CompanyID: acme.ID, Group: tenancy.GroupAccountants,
	})
	require.NoError(t, err)

	_, err = f.companies.CreateCompany(f.ctx, clerk, apptenancy.CompanyInput{Name: "Mine"})
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))

	mine, err := f.companies.ListMyCompanies(f.ctx, clerk)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, acme.ID, mine[0].ID)

	_, err = f.companies.SelectCompany(f.ctx, clerk, acme.ID)
	assert.NoError(t, err)
	_, err = f.companies.SelectCompany(f.ctx, clerk, other.ID)
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))
	_, err = f.companies.SelectCompany(f.ctx, clerk, uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrNoActiveCompany)

	toggled, err := f.companies.ToggleCompanyActive(f.ctx, f.root, acme.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	_, err = f.companies.SelectCompany(f.ctx, clerk, acme.ID)
	require.Error(t, err)
	assert.Equal(t, "This company is inactive.", err.Error())

	require.NoError(t, f.companies.DeleteCompany(f.ctx, f.root, other.ID))
	all, err := f.companies.ListCompanies(f.ctx, f.root)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMembershipService_Mirror(t *testing.T) {
	f := newFixture(t)
	acme := f.company(t, "Acme")
	branch := f.company(t, "Branch")
	manager := f.designation(t, acme.ID, "Manager")
	branchManager := f.designation(t, branch.ID, "Manager")
	u := f.user(t, "asha")

	groups := func() []tenancy.RoleGroup {
		g, err := f.mirror.Groups(f.ctx, u.UserID)
		require.NoError(t, err)
		return g
	}

	_, err := f.memberships.CreateMembership(f.ctx, f.root, apptenancy.CreateMembershipInput{
		UserID: u.UserID, CompanyID: acme.ID, Group: tenancy.GroupAdminStaff,
	})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err), "admin staff need a designation")

	_, err = f.memberships.CreateMembership(f.ctx, f.root, apptenancy.CreateMembershipInput{
		UserID: u.UserID, CompanyID: acme.ID, Group: tenancy.GroupAdminStaff, DesignationID: &branchManager,
	})
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err), "designation of another company")

	atAcme, err := f.memberships.CreateMembership(f.ctx, f.root, apptenancy.CreateMembershipInput{
		UserID: u.UserID, CompanyID: acme.ID, Group: tenancy.GroupAdminStaff, DesignationID: &manager,
	})
	require.NoError(t, err)
	assert.Equal(t, []tenancy.RoleGroup{tenancy.GroupAdminStaff}, groups())

	_, err = f.memberships.CreateMembership(f.ctx, f.root, apptenancy.CreateMembershipInput{
		UserID: u.UserID, CompanyID: acme.ID, Group: tenancy.GroupAccountants,
	})
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	// a new membership resets the mirror to exactly its group
	atBranch, err := f.memberships.CreateMembership(f.ctx, f.root, apptenancy.CreateMembershipInput{
		UserID: u.UserID, CompanyID: branch.ID, Group: tenancy.GroupAccountants,
	})
	require.NoError(t, err)
	assert.Equal(t, []tenancy.RoleGroup{tenancy.GroupAccountants}, groups())

	// deactivation re-derives the groups from the remaining active memberships
	require.NoError(t, f.memberships.DeactivateMembership(f.ctx, f.root, atBranch.ID))
	assert.Equal(t, []tenancy.RoleGroup{tenancy.GroupAdminStaff}, groups())

	accountants := tenancy.GroupAccountants
	updated, err := f.memberships.UpdateMembership(f.ctx, f.root, atAcme.ID, apptenancy.UpdateMembershipInput{Group: &accountants})
	require.NoError(t, err)
	assert.Nil(t, updated.DesignationID)
	assert.Equal(t, []tenancy.RoleGroup{tenancy.GroupAccountants}, groups())

	t.Run("mirror failure rolls the change back", func(t *testing.T) {
		f.mirror.down = true
		defer func() { f.mirror.down = false }()

		admin := tenancy.GroupAdminStaff
		_, err := f.memberships.UpdateMembership(f.ctx, f.root, atAcme.ID, apptenancy.UpdateMembershipInput{
			Group:         &admin,
			DesignationID: &manager,
		})
		require.Error(t, err)

		list, err := f.memberships.ListMemberships(f.ctx, f.root, acme.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, tenancy.GroupAccountants, list[0].Group)
	})
}

func TestBankAccountService(t *testing.T) {
	f := newFixture(t)
	acme := f.company(t, "Acme")
	clerk := f.user(t, "clerk")

	_, err := f.accounts.CreateAccount(f.ctx, clerk, acme.ID, "State Bank", "001122")
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))

	account, err := f.accounts.CreateAccount(f.ctx, f.root, acme.ID, "State Bank", "001122")
	require.NoError(t, err)
	_, err = f.accounts.CreateAccount(f.ctx, f.root, acme.ID, "State Bank", "001122")
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	toggled, err := f.accounts.ToggleAccount(f.ctx, f.root, acme.ID, account.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	active, err := f.accounts.ListActiveAccounts(f.ctx, acme.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.accounts.ListAllAccounts(f.ctx, f.root, acme.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, f.accounts.DeleteAccount(f.ctx, f.root, acme.ID, account.ID))
	err = f.accounts.DeleteAccount(f.ctx, f.root, acme.ID, account.ID)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestOrganizationService(t *testing.T) {
	f := newFixture(t)

	empty, err := f.organization.GetOrganizationProfile(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Name)

	_, err = f.organization.UpdateOrganizationProfile(f.ctx, f.user(t, "clerk"), apptenancy.CompanyInput{Name: "X"})
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))

	for _, name := range []string{"  Lakeview Group ", "Lakeview Hospitality"} {
		_, err = f.organization.UpdateOrganizationProfile(f.ctx, f.root, apptenancy.CompanyInput{Name: name, GSTNo: "27ABCDE1234F1Z5"})
		require.NoError(t, err)
	}

	got, err := f.organization.GetOrganizationProfile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lakeview Hospitality", got.Name)
	assert.Equal(t, "27ABCDE1234F1Z5", got.GSTNo)
}
