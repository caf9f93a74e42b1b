package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/domain/voucher"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB opens GORM over a mocked postgres connection
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedUser(t *testing.T, db *gorm.DB, username string) *identity.User {
	u, err := identity.NewUser(username, username+"@example.com", false)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db).Create(context.Background(), u))
	return u
}

func seedCompany(t *testing.T, db *gorm.DB, name string, creator uuid.UUID) *tenancy.Company {
	c, err := tenancy.NewCompany(tenancy.CompanyProfile{Name: name}, creator)
	require.NoError(t, err)
	require.NoError(t, NewGormCompanyRepository(db).Create(context.Background(), c))
	return c
}

func seedDesignation(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string, creator uuid.UUID) *tenancy.Designation {
	d, err := tenancy.NewDesignation(companyID, name, creator)
	require.NoError(t, err)
	require.NoError(t, NewGormDesignationRepository(db).Create(context.Background(), d))
	return d
}

func cashVoucher(t *testing.T, companyID, creator uuid.UUID, number string, amounts ...string) *voucher.Voucher {
	particulars := make([]voucher.ParticularInput, 0, len(amounts))
	for i, a := range amounts {
		in := voucher.ParticularInput{Description: "Item", Amount: decimal.RequireFromString(a)}
		if i == 0 {
			in.Files = []voucher.File{{StorageKey: "vouchers/" + number + "/p0.pdf", FileName: "p0.pdf", ContentType: "application/pdf", Size: 10}}
		}
		particulars = append(particulars, in)
	}
	v, err := voucher.NewVoucher(companyID, creator, number, voucher.Content{
		Details: voucher.Details{
			Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			PaymentType: voucher.PaymentCash,
			NameTitle:   voucher.TitleMr,
			PayTo:       "Ravi Kumar",
		},
		MainFiles:   []voucher.File{{StorageKey: "vouchers/" + number + "/main.pdf", FileName: "main.pdf", ContentType: "application/pdf", Size: 20}},
		Particulars: particulars,
	})
	require.NoError(t, err)
	return v
}

func booking(t *testing.T, companyID, creator uuid.UUID, number string, date time.Time, from, to string) *venue.FunctionBooking {
	f, err := venue.NewFunctionBooking(companyID, creator, number, venue.Details{
		FunctionDate:   date,
		TimeFrom:       venue.MustClock(from),
		TimeTo:         venue.MustClock(to),
		FunctionName:   "Reception",
		BookedBy:       "Anita",
		ContactNumbers: []string{"9876543210"},
		Address:        "12 Lake Road",
		NoOfPax:        100,
		RatePerPax:     decimal.NewFromInt(10),
		GSTOption:      venue.GSTIncluding,
		HallRent:       decimal.Zero,
		Location:       venue.LocationBanquet,
	})
	require.NoError(t, err)
	return f
}
