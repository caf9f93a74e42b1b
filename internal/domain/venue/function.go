package venue

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/shared/valueobject"
)

// NumberPrefix prefixes every function number
const NumberPrefix = "FN"

// Status is the booking state. Completion is not a status; see IsCompleted.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Location is where a function is held
type Location string

const (
	LocationBanquet    Location = "Banquet"
	LocationRestaurant Location = "Restaurant"
	LocationFamilyRoom Location = "Family Room"
	LocationOutdoor    Location = "Outdoor"
)

// IsValid reports whether l is a known location
func (l Location) IsValid() bool {
	switch l {
	case LocationBanquet, LocationRestaurant, LocationFamilyRoom, LocationOutdoor:
		return true
	}
	return false
}

// Menu lists the dishes by course
type Menu struct {
	WelcomeDrink []string `json:"welcome_drink"`
	Starters     []string `json:"starters"`
	MainCourse   []string `json:"main_course"`
	Desserts     []string `json:"desserts"`
}

// FunctionBooking is a venue booking for one date and time range
type FunctionBooking struct {
	shared.CompanyAggregateRoot
	Number       string    `gorm:"column:function_number;type:varchar(20);not null;uniqueIndex"`
	FunctionDate time.Time `gorm:"type:date;not null;index"`
	TimeFrom     ClockTime `gorm:"type:varchar(5);not null"`
	TimeTo       ClockTime `gorm:"type:varchar(5);not null"`
	FunctionName string    `gorm:"type:varchar(200);not null"`
	BookedBy     string    `gorm:"type:varchar(200);not null"`

	ContactNumbers []string `gorm:"serializer:json;type:text"`
	Address        string   `gorm:"type:text"`
	MenuItems      Menu     `gorm:"serializer:json;type:text"`

	NoOfPax      int             `gorm:"not null"`
	RatePerPax   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	GSTOption    GSTMode         `gorm:"column:gst_option;type:varchar(20);not null"`
	HallRent     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Location     Location        `gorm:"type:varchar(50);not null"`
	ExtraCharges []ExtraCharge   `gorm:"serializer:json;type:text"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Status              Status           `gorm:"type:varchar(20);not null;index"`
	AdvanceAmount       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DueAmount           *decimal.Decimal `gorm:"type:decimal(12,2)"`
	FoodPickupTime      *ClockTime       `gorm:"type:varchar(5)"`
	FoodServiceTime     *ClockTime       `gorm:"type:varchar(5)"`
	SpecialInstructions *string          `gorm:"type:text"`
	ConfirmedBy         *uuid.UUID       `gorm:"type:uuid"`
	ConfirmedAt         *time.Time
}

// TableName returns the table name for GORM
func (FunctionBooking) TableName() string {
	return "function_bookings"
}

// Details are the fields a booking is created or edited with
type Details struct {
	FunctionDate   time.Time
	TimeFrom       ClockTime
	TimeTo         ClockTime
	FunctionName   string
	BookedBy       string
	ContactNumbers []string
	Address        string
	MenuItems      Menu
	NoOfPax        int
	RatePerPax     decimal.Decimal
	GSTOption      GSTMode
	HallRent       decimal.Decimal
	Location       Location
	ExtraCharges   []ExtraCharge
}

// NewFunctionBooking creates a PENDING booking. number must come from the
// serialized function sequence.
func NewFunctionBooking(companyID, createdBy uuid.UUID, number string, d Details) (*FunctionBooking, error) {
	f := &FunctionBooking{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, createdBy),
		Number:               number,
		Status:               StatusPending,
	}
	if err := f.apply(d); err != nil {
		return nil, err
	}
	f.AddDomainEvent(NewFunctionCreatedEvent(f))
	return f, nil
}

// Update replaces the booking details and recomputes the amounts
func (f *FunctionBooking) Update(d Details) error {
	if f.Status == StatusCancelled {
		return shared.NewConflict("Cancelled functions cannot be edited.")
	}
	staged := *f
	if err := staged.apply(d); err != nil {
		return err
	}
	*f = staged
	f.Touch()
	return nil
}

// Recalculate refreshes the total and the due amount. It runs on every save.
func (f *FunctionBooking) Recalculate() {
	f.TotalAmount = ComputeTotal(f.NoOfPax, f.RatePerPax, f.GSTOption, f.HallRent, f.ExtraCharges)
	advance := decimal.Zero
	if f.AdvanceAmount != nil {
		advance = *f.AdvanceAmount
	}
	due := ComputeDue(f.TotalAmount, advance)
	f.DueAmount = &due
}

// Confirm records the advance and food timings. due is the client's own
// computation and must agree with total-advance within a paisa.
func (f *FunctionBooking) Confirm(advance, due decimal.Decimal, pickup, service *ClockTime, confirmedBy uuid.UUID, now time.Time) error {
	if f.Status == StatusConfirmed {
		return shared.NewConflict("Function is already confirmed.")
	}
	if f.Status == StatusCancelled {
		return shared.NewConflict("Cancelled functions cannot be confirmed.")
	}
	if advance.IsNegative() {
		return shared.NewValidationError("Advance amount cannot be negative.")
	}
	if advance.GreaterThan(f.TotalAmount) {
		return shared.NewValidationError("Advance amount cannot exceed total amount.")
	}
	if !valueobject.WithinTolerance(f.TotalAmount.Sub(advance), due) {
		return shared.NewValidationError("Due amount does not match total minus advance.")
	}

	adv := valueobject.RoundMoney(advance)
	f.AdvanceAmount = &adv
	f.FoodPickupTime = pickup
	f.FoodServiceTime = service
	f.Status = StatusConfirmed
	f.ConfirmedBy = &confirmedBy
	f.ConfirmedAt = &now
	f.Recalculate()
	f.Touch()
	f.AddDomainEvent(NewFunctionConfirmedEvent(f))
	return nil
}

// UpdateServiceDetails edits the food timings and, when instructions is
// non-nil, the special instructions.
func (f *FunctionBooking) UpdateServiceDetails(pickup, service *ClockTime, instructions *string) {
	f.FoodPickupTime = pickup
	f.FoodServiceTime = service
	if instructions != nil {
		trimmed := strings.TrimSpace(*instructions)
		if trimmed == "" {
			f.SpecialInstructions = nil
		} else {
			f.SpecialInstructions = &trimmed
		}
	}
	f.Touch()
}

// Cancel marks a booking cancelled. Completed bookings stay as they are.
func (f *FunctionBooking) Cancel(now time.Time, loc *time.Location) error {
	if f.Status == StatusCancelled {
		return shared.NewConflict("Function is already cancelled.")
	}
	if f.IsCompleted(now, loc) {
		return shared.NewConflict("Completed functions cannot be cancelled.")
	}
	f.Status = StatusCancelled
	f.Touch()
	return nil
}

// EndsAt is the end of the booking in loc
func (f *FunctionBooking) EndsAt(loc *time.Location) time.Time {
	return f.TimeTo.On(f.FunctionDate, loc)
}

// IsCompleted reports whether now is at or past the booking's end in loc.
// It is the only notion of completion; nothing is stored for it.
func (f *FunctionBooking) IsCompleted(now time.Time, loc *time.Location) bool {
	return !now.Before(f.EndsAt(loc))
}

// Overlaps reports whether the booking's range intersects [from, to)
func (f *FunctionBooking) Overlaps(from, to ClockTime) bool {
	return Overlaps(f.TimeFrom, f.TimeTo, from, to)
}

func (f *FunctionBooking) apply(d Details) error {
	if d.FunctionDate.IsZero() {
		return shared.NewValidationError("Function date is required.")
	}
	if !d.TimeFrom.Before(d.TimeTo) {
		return shared.NewValidationError("End time must be after start time.")
	}
	name := strings.TrimSpace(d.FunctionName)
	if name == "" {
		return shared.NewValidationError("Function name is required.")
	}
	bookedBy := strings.TrimSpace(d.BookedBy)
	if bookedBy == "" {
		return shared.NewValidationError("Booked by is required.")
	}
	contacts := make([]string, 0, len(d.ContactNumbers))
	for _, c := range d.ContactNumbers {
		if c = strings.TrimSpace(c); c != "" {
			contacts = append(contacts, c)
		}
	}
	if len(contacts) == 0 {
		return shared.NewValidationError("At least one contact number is required")
	}
	address := strings.TrimSpace(d.Address)
	if address == "" {
		return shared.NewValidationError("Address is required.")
	}
	if len(address) > 500 {
		return shared.NewValidationError("Address cannot exceed 500 characters.")
	}
	if d.NoOfPax <= 0 {
		return shared.NewValidationError("Number of pax must be greater than zero.")
	}
	if d.RatePerPax.IsNegative() {
		return shared.NewValidationError("Rate per pax cannot be negative.")
	}
	if d.HallRent.IsNegative() {
		return shared.NewValidationError("Hall rent cannot be negative.")
	}
	if !d.Location.IsValid() {
		return shared.NewValidationError("Invalid location.")
	}
	gst := d.GSTOption
	if gst == "" {
		gst = GSTIncluding
	}
	if !gst.IsValid() {
		return shared.NewValidationError("Invalid GST option.")
	}
	extras := make([]ExtraCharge, 0, len(d.ExtraCharges))
	for _, e := range d.ExtraCharges {
		if e.Rate.IsNegative() {
			return shared.NewValidationError("Extra charge rate cannot be negative.")
		}
		extras = append(extras, ExtraCharge{Description: strings.TrimSpace(e.Description), Rate: valueobject.RoundMoney(e.Rate)})
	}

	f.FunctionDate = shared.DateOnly(d.FunctionDate)
	f.TimeFrom = d.TimeFrom
	f.TimeTo = d.TimeTo
	f.FunctionName = name
	f.BookedBy = bookedBy
	f.ContactNumbers = contacts
	f.Address = address
	f.MenuItems = d.MenuItems
	f.NoOfPax = d.NoOfPax
	f.RatePerPax = valueobject.RoundMoney(d.RatePerPax)
	f.GSTOption = gst
	f.HallRent = valueobject.RoundMoney(d.HallRent)
	f.Location = d.Location
	f.ExtraCharges = extras
	f.Recalculate()
	return nil
}
