package venue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	apptenancy "github.com/voucherdesk/backend/internal/application/tenancy"
	"github.com/voucherdesk/backend/internal/application/uow"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"go.uber.org/zap"
)

const sequenceName = venue.NumberPrefix

// Authorizer is the capability gate every mutating entrypoint passes first
type Authorizer interface {
	Require(ctx context.Context, p identity.Principal, c identity.Capability, companyID uuid.UUID) error
}

// Service runs the function booking engine
type Service struct {
	scope  uow.TransactionScope
	authz  Authorizer
	events shared.EventPublisher
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new booking service. loc is the venue's local time
// zone; completion is judged in it.
func NewService(scope uow.TransactionScope, authz Authorizer, events shared.EventPublisher, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		scope:  scope,
		authz:  authz,
		events: events,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the clock the read paths use as the current time
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IsCompleted reports whether the booking's end is at or before now, judged
// in the venue's zone
func (s *Service) IsCompleted(f *venue.FunctionBooking, now time.Time) bool {
	return f.IsCompleted(now, s.loc)
}

// CreateFunction numbers and stores a new PENDING booking
func (s *Service) CreateFunction(ctx context.Context, p identity.Principal, companyID uuid.UUID, input FunctionInput) (*FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapCreateFunction, companyID); err != nil {
		return nil, err
	}

	var f *venue.FunctionBooking
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		n, err := repos.Sequences().Next(ctx, sequenceName, repos.Functions().MaxNumber)
		if err != nil {
			return err
		}
		f, err = venue.NewFunctionBooking(companyID, p.UserID, shared.FormatNumber(venue.NumberPrefix, n), input.details())
		if err != nil {
			return err
		}
		return repos.Functions().Create(ctx, f)
	})
	if err != nil {
		s.logger.Warn("function create failed", zap.String("company_id", companyID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("function created",
		zap.String("function_id", f.ID.String()),
		zap.String("number", f.Number),
		zap.String("total", f.TotalAmount.StringFixed(2)),
	)
	s.publish(ctx, f)
	return toFunctionDTO(f, s.IsCompleted(f, s.now())), nil
}

// UpdateFunction replaces a booking's details and recomputes its amounts
func (s *Service) UpdateFunction(ctx context.Context, p identity.Principal, companyID, id uuid.UUID, input FunctionInput) (*FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapEditFunction, companyID); err != nil {
		return nil, err
	}
	f, err := s.mutate(ctx, companyID, id, func(f *venue.FunctionBooking) error {
		return f.Update(input.details())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("function updated", zap.String("function_id", id.String()))
	return toFunctionDTO(f, s.IsCompleted(f, s.now())), nil
}

// ConfirmFunction records the advance and food timings of a PENDING booking.
// Only superusers and the company's Admin Staff may confirm.
func (s *Service) ConfirmFunction(ctx context.Context, p identity.Principal, companyID, id uuid.UUID, input ConfirmInput) (*FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionDetail, companyID); err != nil {
		return nil, err
	}
	if err := s.requireAdminStaff(ctx, p, companyID, "Only Admin Staff can confirm functions"); err != nil {
		return nil, err
	}

	pickup := venue.ParseClockLenient(input.FoodPickupTime)
	service := venue.ParseClockLenient(input.FoodServiceTime)
	f, err := s.mutate(ctx, companyID, id, func(f *venue.FunctionBooking) error {
		return f.Confirm(input.AdvanceAmount, input.DueAmount, pickup, service, p.UserID, s.now())
	})
	if err != nil {
		s.logger.Warn("function confirm refused", zap.String("function_id", id.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("function confirmed",
		zap.String("function_id", f.ID.String()),
		zap.String("advance", f.AdvanceAmount.StringFixed(2)),
		zap.String("due", f.DueAmount.StringFixed(2)),
	)
	s.publish(ctx, f)
	return toFunctionDTO(f, s.IsCompleted(f, s.now())), nil
}

// UpdateFunctionDetails edits the food timings and special instructions
func (s *Service) UpdateFunctionDetails(ctx context.Context, p identity.Principal, companyID, id uuid.UUID, input ServiceDetailsInput) (*FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionDetail, companyID); err != nil {
		return nil, err
	}
	if err := s.requireAdminStaff(ctx, p, companyID, "Only Admin Staff can perform this action."); err != nil {
		return nil, err
	}

	pickup := venue.ParseClockLenient(input.FoodPickupTime)
	service := venue.ParseClockLenient(input.FoodServiceTime)
	f, err := s.mutate(ctx, companyID, id, func(f *venue.FunctionBooking) error {
		f.UpdateServiceDetails(pickup, service, input.SpecialInstructions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toFunctionDTO(f, s.IsCompleted(f, s.now())), nil
}

// CancelFunction marks a booking cancelled
func (s *Service) CancelFunction(ctx context.Context, p identity.Principal, companyID, id uuid.UUID) (*FunctionDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapEditFunction, companyID); err != nil {
		return nil, err
	}
	f, err := s.mutate(ctx, companyID, id, func(f *venue.FunctionBooking) error {
		return f.Cancel(s.now(), s.loc)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("function cancelled", zap.String("function_id", id.String()))
	return toFunctionDTO(f, s.IsCompleted(f, s.now())), nil
}

// DeleteFunction removes a booking
func (s *Service) DeleteFunction(ctx context.Context, p identity.Principal, companyID, id uuid.UUID) error {
	if err := s.authz.Require(ctx, p, identity.CapDeleteFunction, companyID); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Functions().FindByID(ctx, companyID, id); err != nil {
			return notFound(err)
		}
		return repos.Functions().Delete(ctx, companyID, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("function deleted",
		zap.String("function_id", id.String()),
		zap.String("deleted_by", p.Username),
	)
	return nil
}

// CheckConflict returns the bookings of the same company and date that
// overlap the requested slot. It is advisory; creation does not enforce it.
func (s *Service) CheckConflict(ctx context.Context, p identity.Principal, companyID uuid.UUID, q ConflictQuery) ([]ConflictDTO, error) {
	if err := s.authz.Require(ctx, p, identity.CapViewFunctionList, companyID); err != nil {
		return nil, err
	}
	if !q.TimeFrom.Before(q.TimeTo) {
		return nil, shared.NewValidationError("End time must be after start time.")
	}
	bookings, err := s.scope.Repositories().Functions().FindByDate(ctx, companyID, shared.DateOnly(q.Date))
	if err != nil {
		return nil, err
	}

	conflicts := venue.FindConflicts(bookings, q.TimeFrom, q.TimeTo, q.ExcludeID)
	out := make([]ConflictDTO, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, ConflictDTO{
			ID:           c.ID,
			Number:       c.Number,
			FunctionName: c.FunctionName,
			TimeFrom:     c.TimeFrom,
			TimeTo:       c.TimeTo,
			Location:     c.Location,
			Status:       c.Status,
		})
	}
	return out, nil
}

func (s *Service) mutate(ctx context.Context, companyID, id uuid.UUID, fn func(f *venue.FunctionBooking) error) (*venue.FunctionBooking, error) {
	var f *venue.FunctionBooking
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		f, err = repos.Functions().FindByID(ctx, companyID, id)
		if err != nil {
			return notFound(err)
		}
		if err := fn(f); err != nil {
			return err
		}
		return repos.Functions().Update(ctx, f)
	})
	return f, err
}

func (s *Service) requireAdminStaff(ctx context.Context, p identity.Principal, companyID uuid.UUID, message string) error {
	if p.IsSuperuser {
		return nil
	}
	ok, err := apptenancy.IsAdminStaff(ctx, s.scope.Repositories(), p.UserID, companyID)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("admin staff check failed",
			zap.String("user_id", p.UserID.String()),
			zap.String("company_id", companyID.String()),
		)
		return shared.NewPermissionDenied(message)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, f *venue.FunctionBooking) {
	events := f.GetDomainEvents()
	f.ClearDomainEvents()
	uow.Publish(ctx, s.events, s.logger, events)
}

func notFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFound("Function not found or does not belong to active company")
	}
	return err
}
