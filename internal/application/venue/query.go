package venue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/venue"
)

// GetFunction returns one booking
func (s *Service) GetFunction(ctx context.Context, p identity.Principal, companyID, id uuid.UUID) (*FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionDetail, companyID); err != nil {
		return nil, err
	}
	f, err := s.scope.Repositories().Functions().FindByID(ctx, companyID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return toFunctionDTO(f, s.IsCompleted(f, s.now())), nil
}

// NextFunctionNumber previews the number the next booking will probably get.
// Nothing is reserved.
func (s *Service) NextFunctionNumber(ctx context.Context) (string, error) {
	n, err := s.scope.Repositories().Functions().MaxNumber(ctx)
	if err != nil {
		return "", err
	}
	return shared.FormatNumber(venue.NumberPrefix, n+1), nil
}

// BookedDates returns the dates holding a non-cancelled booking
func (s *Service) BookedDates(ctx context.Context, p identity.Principal, companyID uuid.UUID) ([]string, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return nil, err
	}
	dates, err := s.scope.Repositories().Functions().BookedDates(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(shared.DateLayout))
	}
	return out, nil
}

// ListByDate returns the bookings of one day ordered by start time
func (s *Service) ListByDate(ctx context.Context, p identity.Principal, companyID uuid.UUID, date time.Time) ([]FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return nil, err
	}
	bookings, err := s.scope.Repositories().Functions().FindByDate(ctx, companyID, shared.DateOnly(date))
	if err != nil {
		return nil, err
	}
	return s.toDTOs(bookings), nil
}

// ListByMonth returns every booking of a calendar month
func (s *Service) ListByMonth(ctx context.Context, p identity.Principal, companyID uuid.UUID, year int, month time.Month) ([]FunctionDTO, error) {
	return s.listMonth(ctx, p, companyID, year, month, "")
}

// PendingByMonth returns the PENDING bookings of a calendar month
func (s *Service) PendingByMonth(ctx context.Context, p identity.Principal, companyID uuid.UUID, year int, month time.Month) ([]FunctionDTO, error) {
	return s.listMonth(ctx, p, companyID, year, month, venue.StatusPending)
}

func (s *Service) listMonth(ctx context.Context, p identity.Principal, companyID uuid.UUID, year int, month time.Month, status venue.Status) ([]FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return nil, err
	}
	if month < time.January || month > time.December {
		return nil, shared.NewValidationError("Invalid month.")
	}
	from, to := shared.MonthRange(year, month)
	bookings, err := s.scope.Repositories().Functions().FindBetween(ctx, companyID, from, to, status)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(bookings), nil
}

// UpcomingConfirmed returns CONFIRMED bookings whose end has not passed
func (s *Service) UpcomingConfirmed(ctx context.Context, p identity.Principal, companyID uuid.UUID) ([]FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return nil, err
	}
	upcoming, err := s.upcoming(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(upcoming), nil
}

// UpcomingCount counts UpcomingConfirmed
func (s *Service) UpcomingCount(ctx context.Context, p identity.Principal, companyID uuid.UUID) (int, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return 0, err
	}
	upcoming, err := s.upcoming(ctx, companyID)
	return len(upcoming), err
}

// Completed returns CONFIRMED bookings whose end has passed, newest first
func (s *Service) Completed(ctx context.Context, p identity.Principal, companyID uuid.UUID) ([]FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return nil, err
	}
	completed, err := s.completed(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(completed), nil
}

// CompletedCount counts Completed
func (s *Service) CompletedCount(ctx context.Context, p identity.Principal, companyID uuid.UUID) (int, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return 0, err
	}
	completed, err := s.completed(ctx, companyID)
	return len(completed), err
}

func (s *Service) upcoming(ctx context.Context, companyID uuid.UUID) ([]venue.FunctionBooking, error) {
	now := s.now()
	bookings, err := s.scope.Repositories().Functions().FindByStatusFrom(ctx, companyID, venue.StatusConfirmed, s.dateOf(now))
	if err != nil {
		return nil, err
	}
	return shared.Where(bookings, func(f venue.FunctionBooking) bool { return !s.IsCompleted(&f, now) }), nil
}

func (s *Service) completed(ctx context.Context, companyID uuid.UUID) ([]venue.FunctionBooking, error) {
	now := s.now()
	bookings, err := s.scope.Repositories().Functions().FindByStatusUntil(ctx, companyID, venue.StatusConfirmed, s.dateOf(now))
	if err != nil {
		return nil, err
	}
	return shared.Where(bookings, func(f venue.FunctionBooking) bool { return s.IsCompleted(&f, now) }), nil
}

func (s *Service) dateOf(t time.Time) time.Time {
	return shared.DateOnly(t.In(s.loc))
}

func (s *Service) toDTOs(bookings []venue.FunctionBooking) []FunctionDTO {
	now := s.now()
	out := make([]FunctionDTO, 0, len(bookings))
	for i := range bookings {
		out = append(out, *toFunctionDTO(&bookings[i], s.IsCompleted(&bookings[i], now)))
	}
	return out
}
