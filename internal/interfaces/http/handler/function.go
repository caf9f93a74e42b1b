package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	appvenue "github.com/voucherdesk/backend/internal/application/venue"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"github.com/voucherdesk/backend/internal/domain/venue"
)

// FunctionHandler handles venue function bookings of the active company
type FunctionHandler struct {
	BaseHandler
	functions *appvenue.Service
}

// NewFunctionHandler creates a new FunctionHandler
func NewFunctionHandler(functions *appvenue.Service) *FunctionHandler {
	return &FunctionHandler{functions: functions}
}

// FunctionRequest is the body of function create and update. Times are
// "HH:MM"; gst_option defaults to INCLUDING and hall_rent to zero.
type FunctionRequest struct {
	FunctionDate   string              `json:"function_date" binding:"required,datetime=2006-01-02"`
	TimeFrom       string              `json:"time_from" binding:"required,hhmm"`
	TimeTo         string              `json:"time_to" binding:"required,hhmm"`
	FunctionName   string              `json:"function_name" binding:"max=200"`
	BookedBy       string              `json:"booked_by" binding:"max=200"`
	ContactNumbers []string            `json:"contact_numbers"`
	Address        string              `json:"address"`
	MenuItems      venue.Menu          `json:"menu_items"`
	NoOfPax        int                 `json:"no_of_pax"`
	RatePerPax     decimal.Decimal     `json:"rate_per_pax"`
	GSTOption      string              `json:"gst_option" binding:"omitempty,oneof=INCLUDING EXCLUDING"`
	HallRent       decimal.Decimal     `json:"hall_rent"`
	Location       string              `json:"location"`
	ExtraCharges   []venue.ExtraCharge `json:"extra_charges"`
}

// ConfirmRequest is the body of POST /functions/:id/confirm. Food times are
// parsed leniently; anything unparseable is treated as absent.
type ConfirmRequest struct {
	AdvanceAmount   decimal.Decimal `json:"advance_amount"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	FoodPickupTime  string          `json:"food_pickup_time"`
	FoodServiceTime string          `json:"food_service_time"`
}

// DetailsRequest is the body of PATCH /functions/:id/details
type DetailsRequest struct {
	FoodPickupTime      string  `json:"food_pickup_time"`
	FoodServiceTime     string  `json:"food_service_time"`
	SpecialInstructions *string `json:"special_instructions"`
}

// ConflictRequest is the body of POST /functions/conflicts
type ConflictRequest struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	TimeFrom  string `json:"time_from" binding:"required,hhmm"`
	TimeTo    string `json:"time_to" binding:"required,hhmm"`
	ExcludeID string `json:"exclude_id" binding:"omitempty,uuid"`
}

// CountResponse wraps a bare count
type CountResponse struct {
	Count int `json:"count"`
}

// NextNumberResponse is the body of GET /functions/next-number
type NextNumberResponse struct {
	FunctionNumber string `json:"function_number"`
}

func (r FunctionRequest) input() (appvenue.FunctionInput, error) {
	date, err := parseDate(r.FunctionDate)
	if err != nil {
		return appvenue.FunctionInput{}, err
	}
	// binding already checked both clocks
	from, _ := venue.ParseClock(r.TimeFrom)
	to, _ := venue.ParseClock(r.TimeTo)
	return appvenue.FunctionInput{
		FunctionDate:   date,
		TimeFrom:       from,
		TimeTo:         to,
		FunctionName:   r.FunctionName,
		BookedBy:       r.BookedBy,
		ContactNumbers: r.ContactNumbers,
		Address:        r.Address,
		MenuItems:      r.MenuItems,
		NoOfPax:        r.NoOfPax,
		RatePerPax:     r.RatePerPax,
		GSTOption:      venue.GSTMode(r.GSTOption),
		HallRent:       r.HallRent,
		Location:       venue.Location(r.Location),
		ExtraCharges:   r.ExtraCharges,
	}, nil
}

// List returns the bookings of ?date=YYYY-MM-DD or of ?year=&month=
func (h *FunctionHandler) List(c *gin.Context) {
	ctx, p, company := c.Request.Context(), principal(c), companyID(c)

	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		functions, err := h.functions.ListByDate(ctx, p, company, date)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, functions)
		return
	}

	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}
	functions, err := h.functions.ListByMonth(ctx, p, company, year, month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, functions)
}

// Pending returns the PENDING bookings of ?year=&month=
func (h *FunctionHandler) Pending(c *gin.Context) {
	year, month, ok := h.yearMonth(c)
	if !ok {
		return
	}
	functions, err := h.functions.PendingByMonth(c.Request.Context(), principal(c), companyID(c), year, month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, functions)
}

// yearMonth reads ?year and ?month, defaulting to the current month
func (h *FunctionHandler) yearMonth(c *gin.Context) (int, time.Month, bool) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			h.BadRequest(c, "Invalid year")
			return 0, 0, false
		}
		year = y
	}
	if raw := c.Query("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			h.BadRequest(c, "Invalid month")
			return 0, 0, false
		}
		month = time.Month(m)
	}
	return year, month, true
}

// Get returns one booking
func (h *FunctionHandler) Get(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	f, err := h.functions.GetFunction(c.Request.Context(), principal(c), companyID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Create books a function
func (h *FunctionHandler) Create(c *gin.Context) {
	var req FunctionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f, err := h.functions.CreateFunction(c.Request.Context(), principal(c), companyID(c), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, f)
}

// Update edits a booking and recomputes its total
func (h *FunctionHandler) Update(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req FunctionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	input, err := req.input()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f, err := h.functions.UpdateFunction(c.Request.Context(), principal(c), companyID(c), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Delete removes a booking
func (h *FunctionHandler) Delete(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.functions.DeleteFunction(c.Request.Context(), principal(c), companyID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Confirm moves a PENDING booking to CONFIRMED
func (h *FunctionHandler) Confirm(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.functions.ConfirmFunction(c.Request.Context(), principal(c), companyID(c), id, appvenue.ConfirmInput{
		AdvanceAmount:   req.AdvanceAmount,
		DueAmount:       req.DueAmount,
		FoodPickupTime:  req.FoodPickupTime,
		FoodServiceTime: req.FoodServiceTime,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Cancel marks a booking cancelled
func (h *FunctionHandler) Cancel(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	f, err := h.functions.CancelFunction(c.Request.Context(), principal(c), companyID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// UpdateDetails edits food timings and special instructions
func (h *FunctionHandler) UpdateDetails(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req DetailsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	f, err := h.functions.UpdateFunctionDetails(c.Request.Context(), principal(c), companyID(c), id, appvenue.ServiceDetailsInput{
		FoodPickupTime:      req.FoodPickupTime,
		FoodServiceTime:     req.FoodServiceTime,
		SpecialInstructions: req.SpecialInstructions,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}

// Conflicts returns the bookings overlapping a prospective slot
func (h *FunctionHandler) Conflicts(c *gin.Context) {
	var req ConflictRequest
	if !h.BindJSON(c, &req) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	q := appvenue.ConflictQuery{Date: date}
	q.TimeFrom, _ = venue.ParseClock(req.TimeFrom)
	q.TimeTo, _ = venue.ParseClock(req.TimeTo)
	if q.ExcludeID, err = parseOptionalUUID(req.ExcludeID); err != nil {
		h.HandleError(c, shared.NewValidationError("Invalid exclude_id"))
		return
	}

	conflicts, err := h.functions.CheckConflict(c.Request.Context(), principal(c), companyID(c), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, conflicts)
}

// NextNumber previews the next function number
func (h *FunctionHandler) NextNumber(c *gin.Context) {
	n, err := h.functions.NextFunctionNumber(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NextNumberResponse{FunctionNumber: n})
}

// BookedDates returns the dates holding a live booking
func (h *FunctionHandler) BookedDates(c *gin.Context) {
	dates, err := h.functions.BookedDates(c.Request.Context(), principal(c), companyID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dates)
}

// Upcoming returns confirmed bookings that have not ended. ?count=true
// returns only their number.
func (h *FunctionHandler) Upcoming(c *gin.Context) {
	ctx, p, company := c.Request.Context(), principal(c), companyID(c)
	if c.Query("count") == "true" {
		n, err := h.functions.UpcomingCount(ctx, p, company)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, CountResponse{Count: n})
		return
	}
	functions, err := h.functions.UpcomingConfirmed(ctx, p, company)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, functions)
}

// Completed returns bookings that have ended. ?count=true returns only their
// number.
func (h *FunctionHandler) Completed(c *gin.Context) {
	ctx, p, company := c.Request.Context(), principal(c), companyID(c)
	if c.Query("count") == "true" {
		n, err := h.functions.CompletedCount(ctx, p, company)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, CountResponse{Count: n})
		return
	}
	functions, err := h.functions.Completed(ctx, p, company)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, functions)
}
