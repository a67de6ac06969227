/*
dynamic.go - Night-by-night dynamic rate adjustment

PURPOSE:
  Turns a flat base price into a per-night price by applying seasonal,
  weekly, demand, event, advance-booking and last-minute factors, then
  clamping every night into [MinPrice, MaxPrice].

PIPELINE (per night i of the stay):
  1. price  = base
  2. price *= seasonal multiplier for month(date_i)
                peak months win, then off-peak, anything else is shoulder
  3. price *= weekly multiplier for weekday(date_i)
  4. price *= demand multiplier (only when an expected occupancy is given)
  5. price *= (1 + pct/100) for every event window containing date_i
  6. price *= (1 - advanceDiscount(leadDays)/100)
  7. price *= (1 + lastMinutePremium/100)   if leadDays <= 7
  8. price  = clamp(price, min, max)

LEAD TIME:
  leadDays = ceil((checkIn - now) in days) is computed ONCE for the whole
  stay and reused for every night. Night three of a stay booked 29 days
  ahead is still priced as a 29-day booking.

LOOKUP TABLES:
  NewAdjuster validates the configuration once and compiles it into fixed
  tables (12 months, 7 weekdays, 4 lead-time tiers, 4 demand tiers). An
  unknown month or a negative multiplier fails there, not mid-quote.

BOUNDS:
  MinPrice/MaxPrice default to 0.5x and 3x of the base price when unset.

SEE ALSO:
  - engine.go: calls Adjust when dynamic pricing is enabled
  - factory/pricing.go: JSON form of DynamicPricingConfig
*/
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

type Season string

const (
	SeasonPeak     Season = "peak"
	SeasonOffPeak  Season = "off_peak"
	SeasonShoulder Season = "shoulder"
)

type SeasonRate struct {
	Multiplier decimal.Decimal
	Months     []time.Month
}

type SeasonalRates struct {
	Peak     SeasonRate
	OffPeak  SeasonRate
	Shoulder SeasonRate
}

// LeadTimeTier buckets the days between booking and check-in.
type LeadTimeTier string

const (
	LeadTime30Plus LeadTimeTier = "30_plus"
	LeadTime15To30 LeadTimeTier = "15_30"
	LeadTime7To15  LeadTimeTier = "7_15"
	LeadTime1To7   LeadTimeTier = "1_7"
)

var LeadTimeTiers = []LeadTimeTier{LeadTime30Plus, LeadTime15To30, LeadTime7To15, LeadTime1To7}

// DemandTier buckets the expected occupancy of the property.
type DemandTier string

const (
	DemandLow    DemandTier = "low"    // < 40%
	DemandMedium DemandTier = "medium" // < 70%
	DemandHigh   DemandTier = "high"   // < 90%
	DemandPeak   DemandTier = "peak"   // >= 90%
)

var DemandTiers = []DemandTier{DemandLow, DemandMedium, DemandHigh, DemandPeak}

// DemandTierFor maps an occupancy percentage to its tier.
func DemandTierFor(occupancyPercent float64) DemandTier {
	switch {
	case occupancyPercent < 40:
		return DemandLow
	case occupancyPercent < 70:
		return DemandMedium
	case occupancyPercent < 90:
		return DemandHigh
	default:
		return DemandPeak
	}
}

// Event raises (or lowers) prices on nights inside Window.
type Event struct {
	Name              string
	Window            generic.Period
	AdjustmentPercent decimal.Decimal
}

// DynamicPricingConfig is the per-category dynamic pricing setup.
// Zero multipliers mean "not configured" and act as 1.
type DynamicPricingConfig struct {
	Enabled bool

	BasePrice decimal.Decimal
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal

	SeasonalRates           SeasonalRates
	WeeklyRates             map[time.Weekday]decimal.Decimal
	DemandPricing           map[DemandTier]decimal.Decimal
	AdvanceBookingDiscounts map[LeadTimeTier]decimal.Decimal // percent
	LastMinutePremium       decimal.Decimal                  // percent
	EventPricing            []Event
}

// =============================================================================
// ADJUSTER - Compiled lookup tables
// =============================================================================

// LastMinuteDays is the lead time at or below which the premium applies.
const LastMinuteDays = 7

type monthRate struct {
	season     Season
	multiplier decimal.Decimal
}

type leadRule struct {
	minDays  int
	tier     LeadTimeTier
	discount decimal.Decimal
}

// Adjuster is an immutable, validated form of DynamicPricingConfig.
// Safe for concurrent use.
type Adjuster struct {
	base       decimal.Decimal
	minPrice   decimal.Decimal
	maxPrice   decimal.Decimal
	months     [13]monthRate // indexed by time.Month, [0] unused
	weekdays   [7]decimal.Decimal
	demand     map[DemandTier]decimal.Decimal
	lead       []leadRule // highest threshold first
	lastMinute decimal.Decimal
	events     []Event
}

var (
	unit       = decimal.NewFromInt(1)
	maxPercent = decimal.NewFromInt(100)
	halfFactor = decimal.NewFromFloat(0.5)
	capFactor  = decimal.NewFromInt(3)
)

// NewAdjuster validates cfg and compiles its lookup tables.
func NewAdjuster(cfg DynamicPricingConfig) (*Adjuster, error) {
	a := &Adjuster{
		base:       cfg.BasePrice,
		minPrice:   cfg.MinPrice,
		maxPrice:   cfg.MaxPrice,
		lastMinute: cfg.LastMinutePremium,
		demand:     make(map[DemandTier]decimal.Decimal, len(DemandTiers)),
	}

	if cfg.BasePrice.IsNegative() {
		return nil, generic.NewConfigurationError("base_price", "must not be negative")
	}
	if cfg.MinPrice.IsNegative() || cfg.MaxPrice.IsNegative() {
		return nil, generic.NewConfigurationError("price_bounds", "must not be negative")
	}
	if cfg.MinPrice.IsPositive() && cfg.MaxPrice.IsPositive() && cfg.MinPrice.GreaterThan(cfg.MaxPrice) {
		return nil, generic.NewConfigurationError("price_bounds", "min %s exceeds max %s", cfg.MinPrice, cfg.MaxPrice)
	}
	if cfg.LastMinutePremium.IsNegative() {
		return nil, generic.NewConfigurationError("last_minute_premium", "must not be negative")
	}

	if err := a.compileSeasons(cfg.SeasonalRates); err != nil {
		return nil, err
	}

	for i := range a.weekdays {
		a.weekdays[i] = unit
	}
	for day, m := range cfg.WeeklyRates {
		if day < time.Sunday || day > time.Saturday {
			return nil, generic.NewConfigurationError("weekly_rates", "unknown weekday %d", int(day))
		}
		v, err := multiplier("weekly_rates", m)
		if err != nil {
			return nil, err
		}
		a.weekdays[day] = v
	}

	for _, tier := range DemandTiers {
		a.demand[tier] = unit
	}
	for tier, m := range cfg.DemandPricing {
		if _, ok := a.demand[tier]; !ok {
			return nil, generic.NewConfigurationError("demand_pricing", "unknown tier %q", tier)
		}
		v, err := multiplier("demand_pricing", m)
		if err != nil {
			return nil, err
		}
		a.demand[tier] = v
	}

	a.lead = []leadRule{
		{minDays: 30, tier: LeadTime30Plus},
		{minDays: 15, tier: LeadTime15To30},
		{minDays: 7, tier: LeadTime7To15},
		{minDays: math.MinInt, tier: LeadTime1To7},
	}
	for tier, pct := range cfg.AdvanceBookingDiscounts {
		idx := -1
		for i, r := range a.lead {
			if r.tier == tier {
				idx = i
			}
		}
		if idx < 0 {
			return nil, generic.NewConfigurationError("advance_booking_discounts", "unknown tier %q", tier)
		}
		if pct.IsNegative() || pct.GreaterThan(maxPercent) {
			return nil, generic.NewConfigurationError("advance_booking_discounts", "%s discount %s%% outside 0..100", tier, pct)
		}
		a.lead[idx].discount = pct
	}

	for _, e := range cfg.EventPricing {
		if e.Window.End.Before(e.Window.Start) {
			return nil, generic.NewConfigurationError("event_pricing", "event %q ends before it starts", e.Name)
		}
		if e.AdjustmentPercent.LessThanOrEqual(maxPercent.Neg()) {
			return nil, generic.NewConfigurationError("event_pricing", "event %q adjustment %s%% would zero the price", e.Name, e.AdjustmentPercent)
		}
	}
	a.events = append([]Event(nil), cfg.EventPricing...)

	return a, nil
}

func (a *Adjuster) compileSeasons(s SeasonalRates) error {
	shoulder, err := multiplier("seasonal_rates.shoulder", s.Shoulder.Multiplier)
	if err != nil {
		return err
	}
	for m := time.January; m <= time.December; m++ {
		a.months[m] = monthRate{season: SeasonShoulder, multiplier: shoulder}
	}

	// Off-peak first so peak overwrites overlapping months.
	for _, season := range []struct {
		name Season
		rate SeasonRate
	}{
		{SeasonOffPeak, s.OffPeak},
		{SeasonPeak, s.Peak},
	} {
		v, err := multiplier("seasonal_rates."+string(season.name), season.rate.Multiplier)
		if err != nil {
			return err
		}
		for _, m := range season.rate.Months {
			if m < time.January || m > time.December {
				return generic.NewConfigurationError("seasonal_rates."+string(season.name), "unknown month %d", int(m))
			}
			a.months[m] = monthRate{season: season.name, multiplier: v}
		}
	}
	return nil
}

func multiplier(key string, m decimal.Decimal) (decimal.Decimal, error) {
	if m.IsZero() {
		return unit, nil
	}
	if m.IsNegative() {
		return decimal.Zero, generic.NewConfigurationError(key, "multiplier %s must be positive", m)
	}
	return m, nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// SeasonFor returns the season and multiplier for a month.
func (a *Adjuster) SeasonFor(m time.Month) (Season, decimal.Decimal) {
	r := a.months[m]
	return r.season, r.multiplier
}

func (a *Adjuster) WeeklyMultiplier(d time.Weekday) decimal.Decimal {
	return a.weekdays[d]
}

func (a *Adjuster) DemandMultiplier(occupancyPercent float64) decimal.Decimal {
	return a.demand[DemandTierFor(occupancyPercent)]
}

// AdvanceDiscount returns the discount percent for a lead time, evaluating
// tiers from the highest threshold down.
func (a *Adjuster) AdvanceDiscount(leadDays int) (LeadTimeTier, decimal.Decimal) {
	for _, r := range a.lead {
		if leadDays >= r.minDays {
			return r.tier, r.discount
		}
	}
	last := a.lead[len(a.lead)-1]
	return last.tier, last.discount
}

// Bounds returns the effective [min, max] for a base price. An unset bound
// is derived from the base but never crosses the configured one, so a
// configured bound always holds.
func (a *Adjuster) Bounds(base decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	lo, hi := a.minPrice, a.maxPrice
	switch {
	case !lo.IsPositive() && !hi.IsPositive():
		lo, hi = base.Mul(halfFactor), base.Mul(capFactor)
	case !lo.IsPositive():
		lo = decimal.Min(base.Mul(halfFactor), hi)
	case !hi.IsPositive():
		hi = decimal.Max(base.Mul(capFactor), lo)
	}
	return lo, hi
}

// BasePrice returns the configured base, or fallback when none is configured.
func (a *Adjuster) BasePrice(fallback decimal.Decimal) decimal.Decimal {
	if a.base.IsPositive() {
		return a.base
	}
	return fallback
}

// =============================================================================
// ADJUST
// =============================================================================

// NightlyRate is the price of one night after adjustment.
type NightlyRate struct {
	Date      time.Time
	Season    Season
	Unclamped decimal.Decimal
	Price     decimal.Decimal
	Clamped   bool
}

// DynamicTotal is the per-room result of a dynamic adjustment.
type DynamicTotal struct {
	BasePrice    decimal.Decimal
	MinPrice     decimal.Decimal
	MaxPrice     decimal.Decimal
	LeadDays     int
	LeadTimeTier LeadTimeTier
	LastMinute   bool
	Nights       []NightlyRate
	Total        decimal.Decimal
}

// AdjustInput carries the per-quote inputs for Adjust.
type AdjustInput struct {
	Stay generic.DateRange
	Now  time.Time

	// FallbackBase is used when the config has no BasePrice (typically the
	// resolved matrix rate).
	FallbackBase decimal.Decimal

	// ExpectedOccupancy (0-100) enables the demand multiplier.
	ExpectedOccupancy *float64
}

// Adjust prices every night of the stay for one room.
func (a *Adjuster) Adjust(in AdjustInput) DynamicTotal {
	base := a.BasePrice(in.FallbackBase)
	lo, hi := a.Bounds(base)

	// Computed once from check-in, not per night.
	leadDays := generic.DaysUntil(in.Now, in.Stay.CheckIn)
	tier, discount := a.AdvanceDiscount(leadDays)
	lastMinute := leadDays <= LastMinuteDays

	out := DynamicTotal{
		BasePrice:    base,
		MinPrice:     lo,
		MaxPrice:     hi,
		LeadDays:     leadDays,
		LeadTimeTier: tier,
		LastMinute:   lastMinute,
		Total:        decimal.Zero,
	}

	for _, date := range in.Stay.NightDates() {
		season, seasonal := a.SeasonFor(date.Month())

		price := base
		price = price.Mul(seasonal)
		price = price.Mul(a.WeeklyMultiplier(date.Weekday()))
		if in.ExpectedOccupancy != nil {
			price = price.Mul(a.DemandMultiplier(*in.ExpectedOccupancy))
		}
		for _, e := range a.events {
			if e.Window.Contains(date) {
				price = price.Mul(generic.PremiumFactor(e.AdjustmentPercent))
			}
		}
		price = price.Mul(generic.DiscountFactor(discount))
		if lastMinute {
			price = price.Mul(generic.PremiumFactor(a.lastMinute))
		}

		clamped := generic.Clamp(price, lo, hi)
		out.Nights = append(out.Nights, NightlyRate{
			Date:      date,
			Season:    season,
			Unclamped: price,
			Price:     clamped,
			Clamped:   !clamped.Equal(price),
		})
		out.Total = out.Total.Add(clamped)
	}

	return out
}
