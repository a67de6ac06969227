/*
Package generic provides the shared core of the revenue engine.

PURPOSE:
  This package holds the domain-agnostic types that the pricing, forecast
  and cancellation engines exchange with each other and with storage.
  Nothing in here knows about meal plans, seasons or regression lines; it
  only knows about money, dates, bookings and the contracts for loading
  them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money helpers: all currency arithmetic uses decimal.Decimal
  - Identifiers: type-safe IDs for bookings and room categories
  - HistoricalDataPoint: one day of aggregated booking analytics

DESIGN PRINCIPLES:
  1. Precision: money never touches float64 until it leaves the API
  2. Purity: helpers here have no side effects and no shared state
  3. Type Safety: a CategoryID cannot be passed where a BookingID is expected

USAGE:
  nightly := generic.MustParseDecimal("2000")
  discounted := nightly.Mul(generic.DiscountFactor(decimal.NewFromInt(15)))
  // 1700

SEE ALSO:
  - period.go: DateRange and Period
  - booking.go: Booking entity and status values
  - store.go: BookingStore and HistorySource contracts
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - decimal helpers
// =============================================================================

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// RoundCurrency rounds to whole currency units, half away from zero.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// DiscountFactor converts a percentage discount into a multiplier (15 -> 0.85).
func DiscountFactor(percent decimal.Decimal) decimal.Decimal {
	return one.Sub(percent.Div(hundred))
}

// PremiumFactor converts a percentage premium into a multiplier (10 -> 1.10).
func PremiumFactor(percent decimal.Decimal) decimal.Decimal {
	return one.Add(percent.Div(hundred))
}

// Clamp forces v into [lo, hi]. lo wins if the bounds are inverted.
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(hi, v))
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type BookingID string
type CategoryID string

// =============================================================================
// HISTORICAL DATA POINT - One day of booking analytics
// =============================================================================

// HistoricalDataPoint is one day of aggregated booking activity.
// Series are append-only and ordered by Date.
type HistoricalDataPoint struct {
	Date          time.Time
	BookingsCount int
	Revenue       decimal.Decimal

	// OccupancyRate is the share of sellable rooms occupied that day, 0-100.
	OccupancyRate float64
}
