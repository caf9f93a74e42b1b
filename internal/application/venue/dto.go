package venue

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucherdesk/backend/internal/domain/venue"
)

// FunctionInput contains input for creating or editing a booking
type FunctionInput struct {
	FunctionDate   time.Time
	TimeFrom       venue.ClockTime
	TimeTo         venue.ClockTime
	FunctionName   string
	BookedBy       string
	ContactNumbers []string
	Address        string
	MenuItems      venue.Menu
	NoOfPax        int
	RatePerPax     decimal.Decimal
	GSTOption      venue.GSTMode
	HallRent       decimal.Decimal
	Location       venue.Location
	ExtraCharges   []venue.ExtraCharge
}

func (in FunctionInput) details() venue.Details {
	return venue.Details{
		FunctionDate:   in.FunctionDate,
		TimeFrom:       in.TimeFrom,
		TimeTo:         in.TimeTo,
		FunctionName:   in.FunctionName,
		BookedBy:       in.BookedBy,
		ContactNumbers: in.ContactNumbers,
		Address:        in.Address,
		MenuItems:      in.MenuItems,
		NoOfPax:        in.NoOfPax,
		RatePerPax:     in.RatePerPax,
		GSTOption:      in.GSTOption,
		HallRent:       in.HallRent,
		Location:       in.Location,
		ExtraCharges:   in.ExtraCharges,
	}
}

// ConfirmInput carries the confirmation fields. Times are parsed leniently:
// empty, "null" or malformed values mean absent.
type ConfirmInput struct {
	AdvanceAmount   decimal.Decimal
	DueAmount       decimal.Decimal
	FoodPickupTime  string
	FoodServiceTime string
}

// ServiceDetailsInput edits the food timings. SpecialInstructions is nil when
// the request did not carry the field.
type ServiceDetailsInput struct {
	FoodPickupTime      string
	FoodServiceTime     string
	SpecialInstructions *string
}

// ConflictQuery describes a prospective booking slot
type ConflictQuery struct {
	Date      time.Time
	TimeFrom  venue.ClockTime
	TimeTo    venue.ClockTime
	ExcludeID *uuid.UUID
}

// FunctionDTO represents function booking data transfer object
type FunctionDTO struct {
	ID                  uuid.UUID           `json:"id"`
	Number              string              `json:"function_number"`
	FunctionDate        string              `json:"function_date"`
	TimeFrom            venue.ClockTime     `json:"time_from"`
	TimeTo              venue.ClockTime     `json:"time_to"`
	FunctionName        string              `json:"function_name"`
	BookedBy            string              `json:"booked_by"`
	ContactNumbers      []string            `json:"contact_numbers"`
	Address             string              `json:"address"`
	MenuItems           venue.Menu          `json:"menu_items"`
	NoOfPax             int                 `json:"no_of_pax"`
	RatePerPax          decimal.Decimal     `json:"rate_per_pax"`
	GSTOption           venue.GSTMode       `json:"gst_option"`
	HallRent            decimal.Decimal     `json:"hall_rent"`
	Location            venue.Location      `json:"location"`
	ExtraCharges        []venue.ExtraCharge `json:"extra_charges"`
	TotalAmount         decimal.Decimal     `json:"total_amount"`
	Status              venue.Status        `json:"status"`
	AdvanceAmount       *decimal.Decimal    `json:"advance_amount,omitempty"`
	DueAmount           *decimal.Decimal    `json:"due_amount,omitempty"`
	FoodPickupTime      *venue.ClockTime    `json:"food_pickup_time,omitempty"`
	FoodServiceTime     *venue.ClockTime    `json:"food_service_time,omitempty"`
	SpecialInstructions *string             `json:"special_instructions,omitempty"`
	ConfirmedAt         *time.Time          `json:"confirmed_at,omitempty"`
	IsCompleted         bool                `json:"is_completed"`
}

// ConflictDTO is a booking that overlaps a requested slot
type ConflictDTO struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"function_number"`
	FunctionName string          `json:"function_name"`
	TimeFrom     venue.ClockTime `json:"time_from"`
	TimeTo       venue.ClockTime `json:"time_to"`
	Location     venue.Location  `json:"location"`
	Status       venue.Status    `json:"status"`
}

func toFunctionDTO(f *venue.FunctionBooking, completed bool) *FunctionDTO {
	return &FunctionDTO{
		ID:                  f.ID,
		Number:              f.Number,
		FunctionDate:        f.FunctionDate.Format("2006-01-02"),
		TimeFrom:            f.TimeFrom,
		TimeTo:              f.TimeTo,
		FunctionName:        f.FunctionName,
		BookedBy:            f.BookedBy,
		ContactNumbers:      f.ContactNumbers,
		Address:             f.Address,
		MenuItems:           f.MenuItems,
		NoOfPax:             f.NoOfPax,
		RatePerPax:          f.RatePerPax,
		GSTOption:           f.GSTOption,
		HallRent:            f.HallRent,
		Location:            f.Location,
		ExtraCharges:        f.ExtraCharges,
		TotalAmount:         f.TotalAmount,
		Status:              f.Status,
		AdvanceAmount:       f.AdvanceAmount,
		DueAmount:           f.DueAmount,
		FoodPickupTime:      f.FoodPickupTime,
		FoodServiceTime:     f.FoodServiceTime,
		SpecialInstructions: f.SpecialInstructions,
		ConfirmedAt:         f.ConfirmedAt,
		IsCompleted:         completed,
	}
}
