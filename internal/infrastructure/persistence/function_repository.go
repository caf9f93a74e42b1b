package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"gorm.io/gorm"
)

// GormFunctionRepository implements venue.Repository using GORM
type GormFunctionRepository struct {
	db *gorm.DB
}

// NewGormFunctionRepository creates a new GormFunctionRepository
func NewGormFunctionRepository(db *gorm.DB) *GormFunctionRepository {
	return &GormFunctionRepository{db: db}
}

// Create creates a new booking
func (r *GormFunctionRepository) Create(ctx context.Context, f *venue.FunctionBooking) error {
	return translate(r.db.WithContext(ctx).Create(f).Error)
}

// Update updates an existing booking
func (r *GormFunctionRepository) Update(ctx context.Context, f *venue.FunctionBooking) error {
	result := r.db.WithContext(ctx).Save(f)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a booking within companyID
func (r *GormFunctionRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		Delete(&venue.FunctionBooking{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a booking within companyID
func (r *GormFunctionRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*venue.FunctionBooking, error) {
	var f venue.FunctionBooking
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// FindByDate returns the bookings of one day ordered by start time
func (r *GormFunctionRepository) FindByDate(ctx context.Context, companyID uuid.UUID, date time.Time) ([]venue.FunctionBooking, error) {
	var bookings []venue.FunctionBooking
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND function_date = ?", companyID, shared.DateOnly(date)).
		Order("time_from").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindBetween returns bookings dated in [from, to), optionally of one status
func (r *GormFunctionRepository) FindBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time, status venue.Status) ([]venue.FunctionBooking, error) {
	var bookings []venue.FunctionBooking
	query := r.db.WithContext(ctx).
		Where("company_id = ? AND function_date >= ? AND function_date < ?", companyID, shared.DateOnly(from), shared.DateOnly(to))
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("function_date").Order("time_from").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindByStatusFrom returns bookings of status dated on or after from
func (r *GormFunctionRepository) FindByStatusFrom(ctx context.Context, companyID uuid.UUID, status venue.Status, from time.Time) ([]venue.FunctionBooking, error) {
	var bookings []venue.FunctionBooking
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ? AND function_date >= ?", companyID, status, shared.DateOnly(from)).
		Order("function_date").
		Order("time_from").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindByStatusUntil returns bookings of status dated on or before until, newest first
func (r *GormFunctionRepository) FindByStatusUntil(ctx context.Context, companyID uuid.UUID, status venue.Status, until time.Time) ([]venue.FunctionBooking, error) {
	var bookings []venue.FunctionBooking
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ? AND function_date <= ?", companyID, status, shared.DateOnly(until)).
		Order("function_date DESC").
		Order("time_from DESC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// BookedDates returns the distinct dates holding a non-cancelled booking
func (r *GormFunctionRepository) BookedDates(ctx context.Context, companyID uuid.UUID) ([]time.Time, error) {
	var bookings []venue.FunctionBooking
	if err := r.db.WithContext(ctx).
		Select("function_date").
		Where("company_id = ? AND status <> ?", companyID, venue.StatusCancelled).
		Order("function_date").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(bookings))
	for _, b := range bookings {
		d := shared.DateOnly(b.FunctionDate)
		if n := len(dates); n > 0 && dates[n-1].Equal(d) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// CountByCompany counts the bookings of a company
func (r *GormFunctionRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&venue.FunctionBooking{}).Where("company_id = ?", companyID).Count(&count).Error
	return count, err
}

// MaxNumber returns the highest numeric suffix among function numbers
func (r *GormFunctionRepository) MaxNumber(ctx context.Context) (int, error) {
	var numbers []string
	if err := r.db.WithContext(ctx).Model(&venue.FunctionBooking{}).
		Where("function_number LIKE ?", venue.NumberPrefix+"%").
		Pluck("function_number", &numbers).Error; err != nil {
		return 0, err
	}
	return shared.MaxNumberSuffix(venue.NumberPrefix, numbers), nil
}

// Ensure GormFunctionRepository implements venue.Repository
var _ venue.Repository = (*GormFunctionRepository)(nil)
