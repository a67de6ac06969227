/*
engine.go - End-to-end quote pipeline

PURPOSE:
  Wires the pricing components together for one quote request:

    RateMatrixResolver -> ExtraGuests -> (Adjuster) -> Aggregator

VALIDATION ORDER:
  1. Guest selection (rooms >= 1, adults >= 1, child ages)
  2. Stay (nights >= 1)
  3. Meal plan / occupancy tier / passed-through totals
  4. Matrix lookup (ConfigurationError on a missing cell)
  5. Dynamic config compile (ConfigurationError on bad tables)
  Nothing is multiplied before all five pass.

ROOM TOTAL:
  Static:   rate * nights * rooms
  Dynamic:  sum(nightly dynamic prices) * rooms

USAGE:
  engine := pricing.NewEngine()
  quote, err := engine.Quote(pricing.QuoteInput{
      Category: deluxe,
      Stay:     generic.DateRange{CheckIn: in, CheckOut: out},
      Guests:   pricing.GuestSelection{Rooms: 1, Adults: 2},
      MealPlan: pricing.MealPlanCP,
      Dynamic:  &cfg,
  })

SEE ALSO:
  - dynamic.go: the per-night adjustment
  - breakdown.go: tax and service fee
*/
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

// Engine produces quotes. The zero value is usable.
type Engine struct {
	Aggregator Aggregator
	Clock      generic.Clock
}

func NewEngine() *Engine {
	return &Engine{
		Aggregator: Aggregator{TaxRate: DefaultTaxRate, ServiceFeeRate: DefaultServiceFeeRate},
		Clock:      generic.SystemClock{},
	}
}

// QuoteInput is everything one quote needs.
type QuoteInput struct {
	Category RoomCategory
	Stay     generic.DateRange
	Guests   GuestSelection
	MealPlan MealPlan

	// Tier overrides the tier derived from the guest selection when set.
	Tier OccupancyTier

	// Already-priced totals, passed through unchanged.
	MealTotal   decimal.Decimal
	AddOnsTotal decimal.Decimal

	// Dynamic enables the per-night adjuster when non-nil and Enabled.
	Dynamic           *DynamicPricingConfig
	ExpectedOccupancy *float64

	// Now anchors lead-time calculations. Zero means the engine clock.
	Now time.Time
}

// Quote is a priced stay.
type Quote struct {
	Breakdown  PricingBreakdown
	Nights     int
	Rooms      int
	Tier       OccupancyTier
	MatrixRate decimal.Decimal

	// Dynamic is nil when the static matrix path was used.
	Dynamic *DynamicTotal
}

// Quote runs the full pipeline.
func (e *Engine) Quote(in QuoteInput) (*Quote, error) {
	if err := in.Guests.Validate(); err != nil {
		return nil, err
	}
	if err := in.Stay.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseMealPlan(string(in.MealPlan)); err != nil {
		return nil, err
	}
	if in.MealTotal.IsNegative() {
		return nil, generic.NewValidationError("meal_total", "must not be negative")
	}
	if in.AddOnsTotal.IsNegative() {
		return nil, generic.NewValidationError("add_ons_total", "must not be negative")
	}

	tier := in.Tier
	if tier == 0 {
		tier = in.Guests.OccupancyTier()
	}
	if !tier.Valid() {
		return nil, generic.NewValidationError("occupancy_tier", "unknown tier %d", int(tier))
	}

	rate, err := in.Category.MealPlanMatrix.Resolve(in.MealPlan, tier)
	if err != nil {
		return nil, err
	}

	var adjuster *Adjuster
	if in.Dynamic != nil && in.Dynamic.Enabled {
		if adjuster, err = NewAdjuster(*in.Dynamic); err != nil {
			return nil, err
		}
	}

	nights := in.Stay.Nights()
	rooms := decimal.NewFromInt(int64(in.Guests.Rooms))

	q := &Quote{
		Nights:     nights,
		Rooms:      in.Guests.Rooms,
		Tier:       tier,
		MatrixRate: rate,
	}

	var roomTotal decimal.Decimal
	if adjuster != nil {
		dyn := adjuster.Adjust(AdjustInput{
			Stay:              in.Stay,
			Now:               generic.NowOr(e.Clock, in.Now),
			FallbackBase:      rate,
			ExpectedOccupancy: in.ExpectedOccupancy,
		})
		q.Dynamic = &dyn
		roomTotal = dyn.Total.Mul(rooms)
	} else {
		roomTotal = rate.Mul(decimal.NewFromInt(int64(nights))).Mul(rooms)
	}

	q.Breakdown = e.Aggregator.Aggregate(Components{
		RoomTotal:   roomTotal,
		ExtraGuests: ExtraGuests(in.Category, in.Guests, nights),
		MealTotal:   in.MealTotal,
		AddOnsTotal: in.AddOnsTotal,
	})
	return q, nil
}
