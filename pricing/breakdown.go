package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

// =============================================================================
// PRICE AGGREGATOR
// =============================================================================

var (
	DefaultTaxRate        = decimal.NewFromFloat(0.12)
	DefaultServiceFeeRate = decimal.NewFromFloat(0.05)
)

// PricingBreakdown is the final quote. Built once per request, never mutated.
type PricingBreakdown struct {
	BaseRoomTotal    decimal.Decimal
	ExtraGuestCharge decimal.Decimal
	MealTotal        decimal.Decimal
	AddOnsTotal      decimal.Decimal
	Subtotal         decimal.Decimal
	Taxes            decimal.Decimal
	ServiceFee       decimal.Decimal
	Total            decimal.Decimal
	ExtraGuests      int
}

// Components are the already-priced inputs to the aggregator.
type Components struct {
	RoomTotal   decimal.Decimal
	ExtraGuests ExtraGuestCharge
	MealTotal   decimal.Decimal
	AddOnsTotal decimal.Decimal
}

// Aggregator applies tax and service fee. Zero rates fall back to the
// defaults (12% and 5%).
type Aggregator struct {
	TaxRate        decimal.Decimal
	ServiceFeeRate decimal.Decimal
}

func (a Aggregator) rates() (decimal.Decimal, decimal.Decimal) {
	tax, fee := a.TaxRate, a.ServiceFeeRate
	if tax.IsZero() {
		tax = DefaultTaxRate
	}
	if fee.IsZero() {
		fee = DefaultServiceFeeRate
	}
	return tax, fee
}

// Aggregate computes
//
//	subtotal   = room + extraGuest + meal + addOns
//	taxes      = round(subtotal * taxRate)
//	serviceFee = round(subtotal * serviceFeeRate)
//	total      = subtotal + taxes + serviceFee
func (a Aggregator) Aggregate(c Components) PricingBreakdown {
	taxRate, feeRate := a.rates()

	subtotal := c.RoomTotal.
		Add(c.ExtraGuests.Amount).
		Add(c.MealTotal).
		Add(c.AddOnsTotal)
	taxes := generic.RoundCurrency(subtotal.Mul(taxRate))
	fee := generic.RoundCurrency(subtotal.Mul(feeRate))

	return PricingBreakdown{
		BaseRoomTotal:    c.RoomTotal,
		ExtraGuestCharge: c.ExtraGuests.Amount,
		MealTotal:        c.MealTotal,
		AddOnsTotal:      c.AddOnsTotal,
		Subtotal:         subtotal,
		Taxes:            taxes,
		ServiceFee:       fee,
		Total:            subtotal.Add(taxes).Add(fee),
		ExtraGuests:      c.ExtraGuests.ExtraGuests,
	}
}
