package venue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appidentity "github.com/voucherdesk/backend/internal/application/identity"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	appvenue "github.com/voucherdesk/backend/internal/application/venue"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/infrastructure/cache"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence"
	"github.com/voucherdesk/backend/internal/infrastructure/persistence/persistencetest"
	"go.uber.org/zap"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// the venue clock reads 18:00 local on 15 June
var now = time.Date(2026, 6, 15, 18, 0, 0, 0, ist)

type fixture struct {
	ctx     context.Context
	svc     *appvenue.Service
	root    identity.Principal
	admin   identity.Principal
	clerk    identity.Principal
	outsider identity.Principal
	company  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	log := zap.NewNop()
	ctx := context.Background()

	rootUser, err := identity.NewUser("root", "root@example.com", true)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(db).Create(ctx, rootUser))
	root := identity.Principal{UserID: rootUser.ID, Username: rootUser.Username, IsSuperuser: true}

	company, err := apptenancy.NewCompanyService(scope, nil, "", log).
		CreateCompany(ctx, root, apptenancy.CompanyInput{Name: "Lakeview Banquets"})
	require.NoError(t, err)

	users := appidentity.NewUserService(scope, log)
	memberships := apptenancy.NewMembershipService(scope, cache.NewInMemoryGroupMirror(), nil, log)
	frontOffice, err := apptenancy.NewDesignationService(scope, log).CreateDesignation(ctx, root, company.ID, "Front Office")
	require.NoError(t, err)
	member := func(username string, group tenancy.RoleGroup) identity.Principal {
		u, err := users.CreateUser(ctx, root, appidentity.CreateUserInput{Username: username})
		require.NoError(t, err)
		var designationID *uuid.UUID
		if group == tenancy.GroupAdminStaff {
			designationID = &frontOffice.ID
		}
		_, err = memberships.CreateMembership(ctx, root, apptenancy.CreateMembershipInput{
			UserID:        u.ID,
			CompanyID:     company.ID,
			Group:         group,
			DesignationID: designationID,
		})
		require.NoError(t, err)
		return identity.Principal{UserID: u.ID, Username: u.Username}
	}

	walkIn, err := users.CreateUser(ctx, root, appidentity.CreateUserInput{Username: "walkin"})
	require.NoError(t, err)

	svc := appvenue.NewService(scope, appidentity.NewAuthorizationService(scope, log), nil, ist, log).
		WithClock(func() time.Time { return now })
	return &fixture{
		ctx:      ctx,
		svc:      svc,
		root:     root,
		admin:    member("admin", tenancy.GroupAdminStaff),
		clerk:    member("clerk", tenancy.GroupAccountants),
		outsider: identity.Principal{UserID: walkIn.ID, Username: walkIn.Username},
		company:  company.ID,
	}
}

func booking(date time.Time, from, to string) appvenue.FunctionInput {
	return appvenue.FunctionInput{
		FunctionDate:   date,
		TimeFrom:       venue.MustClock(from),
		TimeTo:         venue.MustClock(to),
		FunctionName:   "Sharma Anniversary",
		BookedBy:       "Anil Sharma",
		ContactNumbers: []string{"9876543210", "  "},
		Address:        "12 Lake Road",
		MenuItems:      venue.Menu{Starters: []string{"Paneer tikka"}},
		NoOfPax:        100,
		RatePerPax:     decimal.NewFromInt(500),
		GSTOption:      venue.GSTIncluding,
		HallRent:       decimal.NewFromInt(5000),
		Location:       venue.LocationBanquet,
		ExtraCharges:   []venue.ExtraCharge{{Description: "DJ", Rate: decimal.NewFromInt(1000)}},
	}
}

func day(offset int) time.Time {
	return time.Date(2026, 6, 15+offset, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) create(t *testing.T, in appvenue.FunctionInput) *appvenue.FunctionDTO {
	t.Helper()
	b, err := f.svc.CreateFunction(f.ctx, f.clerk, f.company, in)
	require.NoError(t, err)
	return b
}

func (f *fixture) confirm(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := f.svc.ConfirmFunction(f.ctx, f.admin, f.company, id, appvenue.ConfirmInput{
		AdvanceAmount: decimal.NewFromInt(20000),
		DueAmount:     decimal.NewFromInt(38500),
	})
	require.NoError(t, err)
}

func TestService_CreateFunction(t *testing.T) {
	f := newFixture(t)

	next, err := f.svc.NextFunctionNumber(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "FN0001", next)

	b := f.create(t, booking(day(3), "12:00", "16:00"))
	assert.Equal(t, "FN0001", b.Number)
	assert.Equal(t, venue.StatusPending, b.Status)
	assert.True(t, decimal.NewFromInt(58500).Equal(b.TotalAmount), b.TotalAmount.String())
	assert.Equal(t, []string{"9876543210"}, b.ContactNumbers)
	assert.Equal(t, "2026-06-18", b.FunctionDate)

	in := booking(day(3), "18:00", "22:00")
	in.GSTOption = venue.GSTExcluding
	in.RatePerPax = decimal.NewFromInt(105)
	in.HallRent = decimal.Zero
	in.ExtraCharges = nil
	excl := f.create(t, in)
	assert.Equal(t, "FN0002", excl.Number)
	assert.True(t, decimal.NewFromInt(10000).Equal(excl.TotalAmount), excl.TotalAmount.String())

	bad := booking(day(3), "12:00", "16:00")
	bad.ContactNumbers = []string{" "}
	_, err = f.svc.CreateFunction(f.ctx, f.clerk, f.company, bad)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	listed, err := f.svc.ListByDate(f.ctx, f.clerk, f.company, day(3))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "FN0001", listed[0].Number)

	dates, err := f.svc.BookedDates(f.ctx, f.clerk, f.company)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-06-18"}, dates)
}

func TestService_CheckConflict(t *testing.T) {
	f := newFixture(t)
	existing := f.create(t, booking(day(1), "12:00", "16:00"))

	tests := []struct {
		name     string
		from, to string
		exclude  *uuid.UUID
		want     int
	}{
		{"overlapping start", "10:00", "13:00", nil, 1},
		{"contained", "13:00", "14:00", nil, 1},
		{"ends as it starts", "09:00", "12:00", nil, 0},
		{"starts as it ends", "16:00", "20:00", nil, 0},
		{"excluded self", "12:00", "16:00", &existing.ID, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.CheckConflict(f.ctx, f.clerk, f.company, appvenue.ConflictQuery{
				Date:      day(1),
				TimeFrom:  venue.MustClock(tt.from),
				TimeTo:    venue.MustClock(tt.to),
				ExcludeID: tt.exclude,
			})
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	_, err := f.svc.CheckConflict(f.ctx, f.clerk, f.company, appvenue.ConflictQuery{
		Date:     day(1),
		TimeFrom: venue.MustClock("16:00"),
		TimeTo:   venue.MustClock("12:00"),
	})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestService_ConfirmFunction(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, booking(day(2), "12:00", "16:00"))

	_, err := f.svc.ConfirmFunction(f.ctx, f.clerk, f.company, b.ID, appvenue.ConfirmInput{
		AdvanceAmount: decimal.NewFromInt(20000),
		DueAmount:     decimal.NewFromInt(38500),
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))
	assert.Equal(t, "Only Admin Staff can confirm functions", err.Error())

	tests := []struct {
		name     string
		advance  int64
		due      string
		contains string
	}{
		{"due mismatch", 20000, "38000", "Due amount"},
		{"advance above total", 60000, "0", "cannot exceed"},
		{"negative advance", -1, "58501", "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ConfirmFunction(f.ctx, f.admin, f.company, b.ID, appvenue.ConfirmInput{
				AdvanceAmount: decimal.NewFromInt(tt.advance),
				DueAmount:     decimal.RequireFromString(tt.due),
			})
			require.Error(t, err)
			assert.Equal(t, shared.KindValidation, shared.KindOf(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	confirmed, err := f.svc.ConfirmFunction(f.ctx, f.admin, f.company, b.ID, appvenue.ConfirmInput{
		AdvanceAmount:   decimal.NewFromInt(20000),
		DueAmount:       decimal.RequireFromString("38500.004"),
		FoodPickupTime:  "17:30",
		FoodServiceTime: "null",
	})
	require.NoError(t, err)
	assert.Equal(t, venue.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.DueAmount)
	assert.True(t, decimal.NewFromInt(38500).Equal(*confirmed.DueAmount))
	require.NotNil(t, confirmed.FoodPickupTime)
	assert.Equal(t, "17:30", confirmed.FoodPickupTime.String())
	assert.Nil(t, confirmed.FoodServiceTime)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.True(t, now.Equal(*confirmed.ConfirmedAt))

	_, err = f.svc.ConfirmFunction(f.ctx, f.root, f.company, b.ID, appvenue.ConfirmInput{
		AdvanceAmount: decimal.NewFromInt(20000),
		DueAmount:     decimal.NewFromInt(38500),
	})
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	t.Run("details", func(t *testing.T) {
		instructions := "  No onions  "
		_, err := f.svc.UpdateFunctionDetails(f.ctx, f.clerk, f.company, b.ID, appvenue.ServiceDetailsInput{SpecialInstructions: &instructions})
		require.Error(t, err)
		assert.Equal(t, "Only Admin Staff can perform this action.", err.Error())

		updated, err := f.svc.UpdateFunctionDetails(f.ctx, f.admin, f.company, b.ID, appvenue.ServiceDetailsInput{
			FoodPickupTime:      "18:00",
			FoodServiceTime:     "19:15",
			SpecialInstructions: &instructions,
		})
		require.NoError(t, err)
		require.NotNil(t, updated.SpecialInstructions)
		assert.Equal(t, "No onions", *updated.SpecialInstructions)
		assert.Equal(t, "19:15", updated.FoodServiceTime.String())
	})
}

func TestService_IsCompletedUsesCallerTime(t *testing.T) {
	f := newFixture(t)
	b := &venue.FunctionBooking{FunctionDate: day(0), TimeFrom: venue.MustClock("12:00"), TimeTo: venue.MustClock("16:00")}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before the end", time.Date(2026, 6, 15, 15, 59, 0, 0, ist), false},
		{"at the end", time.Date(2026, 6, 15, 16, 0, 0, 0, ist), true},
		{"next morning", time.Date(2026, 6, 16, 9, 0, 0, 0, ist), true},
		{"same instant in UTC", time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC), true},
		{"day before", time.Date(2026, 6, 14, 23, 0, 0, 0, ist), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.svc.IsCompleted(b, tt.now))
		})
	}
}

func TestService_NonMemberIsDenied(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateFunction(f.ctx, f.outsider, f.company, booking(day(3), "12:00", "16:00"))
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))

	b := f.create(t, booking(day(3), "12:00", "16:00"))
	_, err = f.svc.ConfirmFunction(f.ctx, f.outsider, f.company, b.ID, appvenue.ConfirmInput{
		AdvanceAmount: decimal.NewFromInt(1000),
		DueAmount:     decimal.NewFromInt(1000),
	})
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))

	_, err = f.svc.ListByDate(f.ctx, f.outsider, f.company, day(3))
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))
}

func TestService_Completion(t *testing.T) {
	f := newFixture(t)
	past := f.create(t, booking(day(-2), "12:00", "16:00"))
	earlierToday := f.create(t, booking(day(0), "10:00", "16:00"))
	laterToday := f.create(t, booking(day(0), "17:00", "23:00"))
	tomorrow := f.create(t, booking(day(1), "12:00", "16:00"))
	pending := f.create(t, booking(day(-1), "12:00", "16:00"))
	for _, b := range []*appvenue.FunctionDTO{past, earlierToday, laterToday, tomorrow} {
		f.confirm(t, b.ID)
	}

	completed, err := f.svc.Completed(f.ctx, f.clerk, f.company)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, earlierToday.ID, completed[0].ID)
	assert.Equal(t, past.ID, completed[1].ID)
	assert.True(t, completed[0].IsCompleted)

	upcoming, err := f.svc.UpcomingConfirmed(f.ctx, f.clerk, f.company)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, laterToday.ID, upcoming[0].ID)
	assert.Equal(t, tomorrow.ID, upcoming[1].ID)

	count, err := f.svc.UpcomingCount(f.ctx, f.clerk, f.company)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = f.svc.CompletedCount(f.ctx, f.clerk, f.company)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// pending bookings never count as completed
	got, err := f.svc.GetFunction(f.ctx, f.clerk, f.company, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, venue.StatusPending, got.Status)

	_, err = f.svc.CancelFunction(f.ctx, f.root, f.company, earlierToday.ID)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	cancelled, err := f.svc.CancelFunction(f.ctx, f.root, f.company, laterToday.ID)
	require.NoError(t, err)
	assert.Equal(t, venue.StatusCancelled, cancelled.Status)
	_, err = f.svc.CancelFunction(f.ctx, f.root, f.company, laterToday.ID)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	_, err = f.svc.UpdateFunction(f.ctx, f.root, f.company, laterToday.ID, booking(day(0), "17:00", "22:00"))
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestService_EditAndDelete(t *testing.T) {
	f := newFixture(t)
	b := f.create(t, booking(day(4), "12:00", "16:00"))

	_, err := f.svc.UpdateFunction(f.ctx, f.clerk, f.company, b.ID, booking(day(4), "12:00", "15:00"))
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err), "edit capability defaults off")

	in := booking(day(4), "12:00", "15:00")
	in.NoOfPax = 50
	updated, err := f.svc.UpdateFunction(f.ctx, f.root, f.company, b.ID, in)
	require.NoError(t, err)
	assert.Equal(t, b.Number, updated.Number)
	assert.True(t, decimal.NewFromInt(32250).Equal(updated.TotalAmount), updated.TotalAmount.String())

	err = f.svc.DeleteFunction(f.ctx, f.clerk, f.company, b.ID)
	assert.Equal(t, shared.KindPermissionDenied, shared.KindOf(err))
	require.NoError(t, f.svc.DeleteFunction(f.ctx, f.root, f.company, b.ID))

	_, err = f.svc.GetFunction(f.ctx, f.root, f.company, b.ID)
	require.Error(t, err)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	assert.Equal(t, "Function not found or does not belong to active company", err.Error())

	err = f.svc.DeleteFunction(f.ctx, f.root, uuid.New(), b.ID)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}
