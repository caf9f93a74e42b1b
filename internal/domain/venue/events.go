package venue

import (
	"time"

	"github.com/voucherdesk/backend/internal/domain/shared"
)

// AggregateTypeFunction is the aggregate type of booking events
const AggregateTypeFunction = "FunctionBooking"

const (
	EventTypeFunctionCreated   = "FunctionCreated"
	EventTypeFunctionConfirmed = "FunctionConfirmed"
)

// FunctionCreatedEvent is published when a booking is created
type FunctionCreatedEvent struct {
	shared.BaseDomainEvent
	Number       string    `json:"number"`
	FunctionDate time.Time `json:"function_date"`
	Location     Location  `json:"location"`
}

// NewFunctionCreatedEvent creates a new FunctionCreatedEvent
func NewFunctionCreatedEvent(f *FunctionBooking) *FunctionCreatedEvent {
	return &FunctionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFunctionCreated, AggregateTypeFunction, f.ID, f.CompanyID),
		Number:          f.Number,
		FunctionDate:    f.FunctionDate,
		Location:        f.Location,
	}
}

// FunctionConfirmedEvent is published when a booking is confirmed
type FunctionConfirmedEvent struct {
	shared.BaseDomainEvent
	Number  string `json:"number"`
	Total   string `json:"total"`
	Advance string `json:"advance"`
}

// NewFunctionConfirmedEvent creates a new FunctionConfirmedEvent
func NewFunctionConfirmedEvent(f *FunctionBooking) *FunctionConfirmedEvent {
	advance := "0.00"
	if f.AdvanceAmount != nil {
		advance = f.AdvanceAmount.StringFixed(2)
	}
	return &FunctionConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFunctionConfirmed, AggregateTypeFunction, f.ID, f.CompanyID),
		Number:          f.Number,
		Total:           f.TotalAmount.StringFixed(2),
		Advance:         advance,
	}
}
