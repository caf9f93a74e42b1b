package venue

import (
	"github.com/shopspring/decimal"
	"github.com/voucherdesk/backend/internal/domain/shared/valueobject"
)

// GSTMode says how the per-pax rate relates to the 5% GST
type GSTMode string

const (
	GSTIncluding GSTMode = "INCLUDING"
	GSTExcluding GSTMode = "EXCLUDING"
)

// IsValid reports whether g is a known GST mode
func (g GSTMode) IsValid() bool {
	return g == GSTIncluding || g == GSTExcluding
}

var (
	gstMultiplier = decimal.RequireFromString("1.05")
	hundred       = decimal.NewFromInt(100)
	hundredFive   = decimal.NewFromInt(105)
)

// ExtraCharge is an additional billed item
type ExtraCharge struct {
	Description string          `json:"description"`
	Rate        decimal.Decimal `json:"rate"`
}

// ComputeTotal returns the booking total rounded to two places.
// INCLUDING adds 5% to pax*rate; EXCLUDING divides pax*rate by 1.05. Hall
// rent and extra charges are added unchanged.
func ComputeTotal(pax int, rate decimal.Decimal, mode GSTMode, hallRent decimal.Decimal, extras []ExtraCharge) decimal.Decimal {
	base := decimal.NewFromInt(int64(pax)).Mul(rate)

	var withGST decimal.Decimal
	if mode == GSTIncluding {
		withGST = base.Mul(gstMultiplier)
	} else {
		withGST = base.Mul(hundred).Div(hundredFive)
	}

	total := withGST.Add(hallRent)
	for _, e := range extras {
		total = total.Add(e.Rate)
	}
	return valueobject.RoundMoney(total)
}

// ComputeDue returns max(0, total-advance)
func ComputeDue(total, advance decimal.Decimal) decimal.Decimal {
	return valueobject.RoundMoney(valueobject.MaxZero(total.Sub(advance)))
}
