package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appvenue "github.com/voucherdesk/backend/internal/application/venue"
	"github.com/voucherdesk/backend/internal/domain/identity"
	"github.com/voucherdesk/backend/internal/domain/tenancy"
	"github.com/voucherdesk/backend/internal/domain/venue"
	"github.com/voucherdesk/backend/internal/interfaces/http/dto"
)

func functionRoutes(h *FunctionHandler) func(g *gin.RouterGroup) {
	return func(g *gin.RouterGroup) {
		g.GET("/functions", h.List)
		g.POST("/functions", h.Create)
		g.GET("/functions/pending", h.Pending)
		g.GET("/functions/next-number", h.NextNumber)
		g.GET("/functions/booked-dates", h.BookedDates)
		g.GET("/functions/upcoming", h.Upcoming)
		g.GET("/functions/completed", h.Completed)
		g.POST("/functions/conflicts", h.Conflicts)
		g.GET("/functions/:id", h.Get)
		g.PUT("/functions/:id", h.Update)
		g.DELETE("/functions/:id", h.Delete)
		g.POST("/functions/:id/confirm", h.Confirm)
		g.POST("/functions/:id/cancel", h.Cancel)
		g.PATCH("/functions/:id/details", h.UpdateDetails)
	}
}

func bookingBody(date time.Time, from, to string) map[string]any {
	return map[string]any{
		"function_date":   date.Format(dateLayout),
		"time_from":       from,
		"time_to":         to,
		"function_name":   "Sharma Wedding Reception",
		"booked_by":       "Anil Sharma",
		"contact_numbers": []string{"9876543210", " "},
		"address":         "12 MG Road, Pune",
		"no_of_pax":       100,
		"rate_per_pax":    "500",
		"hall_rent":       "5000",
		"location":        "Banquet",
		"extra_charges":   []map[string]any{{"description": "DJ", "rate": "1000"}},
		"menu_items": map[string]any{
			"starters":    []string{"Paneer Tikka"},
			"main_course": []string{"Dal Makhani", "Naan"},
		},
	}
}

type functionFixture struct {
	env   *testEnv
	admin identity.Principal
	clerk identity.Principal
}

func newFunctionFixture(t *testing.T) *functionFixture {
	env := newTestEnv(t)
	d, err := env.designations.CreateDesignation(env.ctx, env.root, env.company.ID, "Front Office")
	require.NoError(t, err)
	return &functionFixture{
		env:   env,
		admin: env.member("frontdesk", tenancy.GroupAdminStaff, &d.ID),
		clerk: env.member("clerk", tenancy.GroupAccountants, nil),
	}
}

func (f *functionFixture) as(p identity.Principal) *gin.Engine {
	return f.env.engine(p, functionRoutes(NewFunctionHandler(f.env.functions)))
}

func (f *functionFixture) create(t *testing.T, body map[string]any) appvenue.FunctionDTO {
	t.Helper()
	w := do(f.as(f.clerk), http.MethodPost, "/api/v1/functions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[appvenue.FunctionDTO](t, w)
}

func TestFunctionHandler_CreateAndList(t *testing.T) {
	f := newFunctionFixture(t)
	date := time.Now().AddDate(0, 0, 30)

	w := do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/next-number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "FN0001", decodeData[NextNumberResponse](t, w).FunctionNumber)

	fn := f.create(t, bookingBody(date, "18:00", "22:00"))
	assert.Equal(t, "FN0001", fn.Number)
	assert.Equal(t, venue.StatusPending, fn.Status)
	assert.Equal(t, venue.GSTIncluding, fn.GSTOption)
	assert.Equal(t, []string{"9876543210"}, fn.ContactNumbers)
	// 100 * 500 * 1.05 + 5000 + 1000
	assert.True(t, decimal.RequireFromString("58500").Equal(fn.TotalAmount), fn.TotalAmount.String())
	assert.False(t, fn.IsCompleted)

	second := bookingBody(date, "10:00", "14:00")
	second["gst_option"] = "EXCLUDING"
	second["rate_per_pax"] = "105"
	second["hall_rent"] = "0"
	second["extra_charges"] = nil
	fn2 := f.create(t, second)
	assert.Equal(t, "FN0002", fn2.Number)
	assert.True(t, decimal.NewFromInt(10000).Equal(fn2.TotalAmount), fn2.TotalAmount.String())

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions?date="+date.Format(dateLayout), nil)
	require.Equal(t, http.StatusOK, w.Code)
	day := decodeData[[]appvenue.FunctionDTO](t, w)
	require.Len(t, day, 2)
	assert.Equal(t, "FN0002", day[0].Number, "ordered by start time")

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions?year="+date.Format("2006")+"&month="+date.Format("1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]appvenue.FunctionDTO](t, w), 2)

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/pending?year="+date.Format("2006")+"&month="+date.Format("1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]appvenue.FunctionDTO](t, w), 2)

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/booked-dates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{date.Format(dateLayout)}, decodeData[[]string](t, w))
}

func TestFunctionHandler_CreateValidation(t *testing.T) {
	f := newFunctionFixture(t)
	date := time.Now().AddDate(0, 0, 7)

	tests := []struct {
		name    string
		mutate  func(b map[string]any)
		message string
	}{
		{
			name:    "end before start",
			mutate:  func(b map[string]any) { b["time_to"] = "17:00" },
			message: "End time must be after start time.",
		},
		{
			name:    "no contact number",
			mutate:  func(b map[string]any) { b["contact_numbers"] = []string{"  "} },
			message: "At least one contact number is required",
		},
		{
			name:    "zero pax",
			mutate:  func(b map[string]any) { b["no_of_pax"] = 0 },
			message: "Number of pax must be greater than zero.",
		},
		{
			name:    "unknown location",
			mutate:  func(b map[string]any) { b["location"] = "Rooftop" },
			message: "Invalid location.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bookingBody(date, "18:00", "22:00")
			tt.mutate(body)
			w := do(f.as(f.clerk), http.MethodPost, "/api/v1/functions", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			info := decodeError(t, w)
			assert.Equal(t, dto.ErrCodeValidation, info.Code)
			assert.Equal(t, tt.message, info.Message)
		})
	}

	body := bookingBody(date, "25:00", "22:00")
	w := do(f.as(f.clerk), http.MethodPost, "/api/v1/functions", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotEmpty(t, decodeError(t, w).Details)
}

func TestFunctionHandler_Conflicts(t *testing.T) {
	f := newFunctionFixture(t)
	date := time.Now().AddDate(0, 0, 14)
	existing := f.create(t, bookingBody(date, "18:00", "22:00"))

	tests := []struct {
		name    string
		from    string
		to      string
		exclude string
		want    int
	}{
		{"overlap at start", "17:00", "18:30", "", 1},
		{"inside", "19:00", "20:00", "", 1},
		{"touching end is free", "22:00", "23:30", "", 0},
		{"touching start is free", "15:00", "18:00", "", 0},
		{"own booking excluded", "18:00", "22:00", existing.ID.String(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(f.as(f.clerk), http.MethodPost, "/api/v1/functions/conflicts", map[string]any{
				"date":       date.Format(dateLayout),
				"time_from":  tt.from,
				"time_to":    tt.to,
				"exclude_id": tt.exclude,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			conflicts := decodeData[[]appvenue.ConflictDTO](t, w)
			assert.Len(t, conflicts, tt.want)
		})
	}

	w := do(f.as(f.clerk), http.MethodPost, "/api/v1/functions/conflicts", map[string]any{
		"date": date.Format(dateLayout), "time_from": "20:00", "time_to": "19:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFunctionHandler_ConfirmAndDetails(t *testing.T) {
	f := newFunctionFixture(t)
	fn := f.create(t, bookingBody(time.Now().AddDate(0, 0, 10), "18:00", "22:00"))
	base := "/api/v1/functions/" + fn.ID.String()

	confirm := map[string]any{
		"advance_amount":    "20000",
		"due_amount":        "38500",
		"food_pickup_time":  "17:30",
		"food_service_time": "null",
	}

	w := do(f.as(f.clerk), http.MethodPost, base+"/confirm", confirm)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only Admin Staff can confirm functions", decodeError(t, w).Message)

	bad := map[string]any{"advance_amount": "20000", "due_amount": "30000"}
	w = do(f.as(f.admin), http.MethodPost, base+"/confirm", bad)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Due amount does not match total minus advance.", decodeError(t, w).Message)

	w = do(f.as(f.admin), http.MethodPost, base+"/confirm", confirm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	confirmed := decodeData[appvenue.FunctionDTO](t, w)
	assert.Equal(t, venue.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.DueAmount)
	assert.True(t, decimal.NewFromInt(38500).Equal(*confirmed.DueAmount))
	require.NotNil(t, confirmed.FoodPickupTime)
	assert.Equal(t, "17:30", confirmed.FoodPickupTime.String())
	assert.Nil(t, confirmed.FoodServiceTime)

	w = do(f.as(f.admin), http.MethodPost, base+"/confirm", confirm)
	assert.Equal(t, http.StatusConflict, w.Code)

	notes := "Jain food for 10 guests"
	w = do(f.as(f.clerk), http.MethodPatch, base+"/details", map[string]any{"special_instructions": notes})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(f.as(f.admin), http.MethodPatch, base+"/details", map[string]any{
		"food_service_time":    "19:00",
		"special_instructions": "  " + notes + "  ",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detailed := decodeData[appvenue.FunctionDTO](t, w)
	require.NotNil(t, detailed.SpecialInstructions)
	assert.Equal(t, notes, *detailed.SpecialInstructions)
	require.NotNil(t, detailed.FoodServiceTime)
	assert.Equal(t, "19:00", detailed.FoodServiceTime.String())

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/upcoming?count=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeData[CountResponse](t, w).Count)
}

func TestFunctionHandler_EditCancelDelete(t *testing.T) {
	f := newFunctionFixture(t)
	fn := f.create(t, bookingBody(time.Now().AddDate(0, 0, 3), "12:00", "15:00"))
	base := "/api/v1/functions/" + fn.ID.String()

	// editing is off by default for members
	body := bookingBody(time.Now().AddDate(0, 0, 3), "12:00", "16:00")
	w := do(f.as(f.clerk), http.MethodPut, base, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(f.as(f.env.root), http.MethodPut, base, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "16:00", decodeData[appvenue.FunctionDTO](t, w).TimeTo.String())

	w = do(f.as(f.env.root), http.MethodPost, base+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, venue.StatusCancelled, decodeData[appvenue.FunctionDTO](t, w).Status)

	w = do(f.as(f.env.root), http.MethodPut, base, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(f.as(f.clerk), http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(f.as(f.env.root), http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(f.as(f.env.root), http.MethodGet, base, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Function not found or does not belong to active company", decodeError(t, w).Message)
}

func TestFunctionHandler_CompletedAndUpcoming(t *testing.T) {
	f := newFunctionFixture(t)
	past := f.create(t, bookingBody(time.Now().AddDate(0, 0, -20), "10:00", "12:00"))
	future := f.create(t, bookingBody(time.Now().AddDate(0, 0, 20), "10:00", "12:00"))
	f.create(t, bookingBody(time.Now().AddDate(0, 0, 21), "10:00", "12:00"))

	for _, id := range []string{past.ID.String(), future.ID.String()} {
		w := do(f.as(f.admin), http.MethodPost, "/api/v1/functions/"+id+"/confirm", map[string]any{
			"advance_amount": "0",
			"due_amount":     "58500",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/completed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	completed := decodeData[[]appvenue.FunctionDTO](t, w)
	require.Len(t, completed, 1)
	assert.Equal(t, past.ID, completed[0].ID)
	assert.True(t, completed[0].IsCompleted)

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/completed?count=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeData[CountResponse](t, w).Count)

	w = do(f.as(f.clerk), http.MethodGet, "/api/v1/functions/upcoming", nil)
	require.Equal(t, http.StatusOK, w.Code)
	upcoming := decodeData[[]appvenue.FunctionDTO](t, w)
	require.Len(t, upcoming, 1)
	assert.Equal(t, future.ID, upcoming[0].ID)

	// completed bookings cannot be cancelled
	w = do(f.as(f.env.root), http.MethodPost, "/api/v1/functions/"+past.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
