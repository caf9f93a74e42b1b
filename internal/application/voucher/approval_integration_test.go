//go:build integration

package voucher_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	appvoucher "github.com/voucherdesk/backend/internal/application/voucher"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence/persistencetest"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newPostgresFixture runs the service against postgres with real backoff
// sleeps and enough retries to outlast a briefly held row lock.
func newPostgresFixture(t *testing.T) (*fixture, *gorm.DB) {
	t.Helper()
	db := persistencetest.NewPostgresDB(t)
	f := newFixtureOn(t, db)
	f.svc = appvoucher.NewService(f.scope, appidentity.NewAuthorizationService(f.scope, zap.NewNop()), f.remover, nil, zap.NewNop(),
		appvoucher.WithRetryObserver(f.observer),
		appvoucher.WithConfig(appvoucher.Config{MaxRetries: 6, BaseBackoff: 50 * time.Millisecond}),
	)
	return f, db
}

// holdVoucherLock keeps the voucher row locked until the returned func runs
func holdVoucherLock(t *testing.T, f *fixture, db *gorm.DB, id uuid.UUID) func() {
	t.Helper()
	tx := db.Begin()
	require.NoError(t, tx.Error)
	_, err := persistence.NewGormVoucherRepository(tx).LockForApproval(f.ctx, f.company, id)
	require.NoError(t, err)

	var once sync.Once
	release := func() { once.Do(func() { tx.Rollback() }) }
	t.Cleanup(release)
	return release
}

func approveConcurrently(f *fixture, id uuid.UUID, approvers ...identity.Principal) []error {
	errs := make([]error, len(approvers))
	var wg sync.WaitGroup
	for i, p := range approvers {
		wg.Add(1)
		go func(i int, p identity.Principal) {
			defer wg.Done()
			_, errs[i] = approve(f, p, id)
		}(i, p)
	}
	wg.Wait()
	return errs
}

func TestPostgres_RecordApproval_ConcurrentApproversBothLand(t *testing.T) {
	f, db := newPostgresFixture(t)
	managerDesignation := f.designation("Manager")
	directorDesignation := f.designation("Director")
	f.chain(managerDesignation, directorDesignation)

	clerk := f.member("clerk", tenancy.GroupAccountants, nil)
	asha := f.member("asha", tenancy.GroupAdminStaff, &managerDesignation)
	bala := f.member("bala", tenancy.GroupAdminStaff, &managerDesignation)
	director := f.member("director", tenancy.GroupAdminStaff, &directorDesignation)
	v := f.create(clerk)

	release := holdVoucherLock(t, f, db, v.ID)
	done := make(chan []error, 1)
	go func() { done <- approveConcurrently(f, v.ID, asha, bala) }()
	time.Sleep(120 * time.Millisecond)
	release()

	for _, err := range <-done {
		assert.NoError(t, err)
	}
	assert.NotEmpty(t, f.observer.retried, "both callers met the held lock")
	assert.Zero(t, f.observer.exhausted)

	detail, err := f.svc.GetVoucherDetail(f.ctx, f.root, f.company, v.ID)
	require.NoError(t, err)
	assert.Equal(t, voucher.StatusPending, detail.Status)
	require.Len(t, detail.Approvals, 2)
	approvers := []string{detail.Approvals[0].Approver, detail.Approvals[1].Approver}
	assert.ElementsMatch(t, []string{"asha", "bala"}, approvers)

	res, err := approve(f, director, v.ID)
	require.NoError(t, err)
	assert.Equal(t, voucher.StatusApproved, res.Status)
}

func TestPostgres_RecordApproval_DoubleSubmitKeepsOneRow(t *testing.T) {
	f, db := newPostgresFixture(t)
	managerDesignation := f.designation("Manager")
	directorDesignation := f.designation("Director")
	f.chain(managerDesignation, directorDesignation)

	clerk := f.member("clerk", tenancy.GroupAccountants, nil)
	manager := f.member("manager", tenancy.GroupAdminStaff, &managerDesignation)
	f.member("director", tenancy.GroupAdminStaff, &directorDesignation)
	v := f.create(clerk)

	release := holdVoucherLock(t, f, db, v.ID)
	done := make(chan []error, 1)
	go func() { done <- approveConcurrently(f, v.ID, manager, manager) }()
	time.Sleep(120 * time.Millisecond)
	release()

	for _, err := range <-done {
		assert.NoError(t, err)
	}

	detail, err := f.svc.GetVoucherDetail(f.ctx, f.root, f.company, v.ID)
	require.NoError(t, err)
	assert.Equal(t, voucher.StatusPending, detail.Status)
	require.Len(t, detail.Approvals, 1)
	assert.Equal(t, "manager", detail.Approvals[0].Approver)
	assert.Equal(t, voucher.DecisionApproved, detail.Approvals[0].Status)
}
