package venue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for booking persistence. Every lookup is
// scoped by company.
type Repository interface {
	Create(ctx context.Context, f *FunctionBooking) error
	Update(ctx context.Context, f *FunctionBooking) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// FindByID finds a booking within companyID
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*FunctionBooking, error)

	// FindByDate returns the bookings of one day ordered by start time
	FindByDate(ctx context.Context, companyID uuid.UUID, date time.Time) ([]FunctionBooking, error)

	// FindBetween returns bookings dated in [from, to), optionally of one status
	FindBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time, status Status) ([]FunctionBooking, error)

	// FindByStatusFrom returns bookings of status dated on or after from
	FindByStatusFrom(ctx context.Context, companyID uuid.UUID, status Status, from time.Time) ([]FunctionBooking, error)

	// FindByStatusUntil returns bookings of status dated on or before until, newest first
	FindByStatusUntil(ctx context.Context, companyID uuid.UUID, status Status, until time.Time) ([]FunctionBooking, error)

	// BookedDates returns the distinct dates holding a non-cancelled booking
	BookedDates(ctx context.Context, companyID uuid.UUID) ([]time.Time, error)

	// CountByCompany counts the bookings of a company
	CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)

	// MaxNumber returns the highest numeric suffix among function numbers
	MaxNumber(ctx context.Context) (int, error)
}
