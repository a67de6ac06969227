package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/pricing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func deluxe() pricing.RoomCategory {
	m := pricing.RateMatrix{}
	m.Set(pricing.MealPlanEP, pricing.OccupancySingle, d(1800))
	m.Set(pricing.MealPlanEP, pricing.OccupancyDouble, d(2000))
	m.Set(pricing.MealPlanEP, pricing.OccupancyTriple, d(2600))
	m.Set(pricing.MealPlanCP, pricing.OccupancyDouble, d(2400))
	return pricing.RoomCategory{
		ID:                   "deluxe",
		Name:                 "Deluxe",
		BaseRate:             d(2000),
		FreeExtraPersonLimit: 2,
		ExtraPersonCharge:    d(500),
		MealPlanMatrix:       m,
	}
}

// scenarioConfig: peak December at 1.5x, 15% off for 30+ days ahead.
func scenarioConfig() pricing.DynamicPricingConfig {
	return pricing.DynamicPricingConfig{
		Enabled:   true,
		BasePrice: d(2000),
		MinPrice:  d(1500),
		MaxPrice:  d(5000),
		SeasonalRates: pricing.SeasonalRates{
			Peak:     pricing.SeasonRate{Multiplier: d(1.5), Months: []time.Month{time.December, time.January}},
			OffPeak:  pricing.SeasonRate{Multiplier: d(0.8), Months: []time.Month{time.June, time.July}},
			Shoulder: pricing.SeasonRate{Multiplier: d(1)},
		},
		AdvanceBookingDiscounts: map[pricing.LeadTimeTier]decimal.Decimal{
			pricing.LeadTime30Plus: d(15),
			pricing.LeadTime15To30: d(10),
			pricing.LeadTime7To15:  d(5),
		},
		LastMinutePremium: d(10),
	}
}

func stay(checkIn time.Time, nights int) generic.DateRange {
	return generic.DateRange{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, nights)}
}

func twoAdults() pricing.GuestSelection {
	return pricing.GuestSelection{Rooms: 1, Adults: 2}
}

func assertDecimal(t *testing.T, expected float64, actual decimal.Decimal, msg ...any) {
	t.Helper()
	assert.True(t, actual.Equal(d(expected)), "expected %v, got %v %v", expected, actual, msg)
}

// =============================================================================
// DYNAMIC PRICING
// =============================================================================

func TestQuote_PeakSeasonAdvanceBooking(t *testing.T) {
	// GIVEN: December stay booked 35 days ahead, base 2000, bounds [1500, 5000]
	// WHEN: Quoting 3 nights
	// THEN: Each night is 2000 * 1.5 * 0.85 = 2550, room total 7650

	checkIn := generic.Date(2025, time.December, 10)
	now := checkIn.AddDate(0, 0, -35)
	cfg := scenarioConfig()

	q, err := pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(checkIn, 3),
		Guests:   twoAdults(),
		MealPlan: pricing.MealPlanEP,
		Dynamic:  &cfg,
		Now:      now,
	})
	require.NoError(t, err)
	require.NotNil(t, q.Dynamic)

	assert.Equal(t, 35, q.Dynamic.LeadDays)
	assert.Equal(t, pricing.LeadTime30Plus, q.Dynamic.LeadTimeTier)
	assert.False(t, q.Dynamic.LastMinute)
	require.Len(t, q.Dynamic.Nights, 3)
	for _, n := range q.Dynamic.Nights {
		assertDecimal(t, 2550, n.Price, n.Date)
		assert.Equal(t, pricing.SeasonPeak, n.Season)
		assert.False(t, n.Clamped)
	}

	b := q.Breakdown
	assertDecimal(t, 7650, b.BaseRoomTotal)
	assertDecimal(t, 7650, b.Subtotal)
	assertDecimal(t, 918, b.Taxes)      // 7650 * 0.12
	assertDecimal(t, 383, b.ServiceFee) // round(382.5)
	assertDecimal(t, 8951, b.Total)
}

func TestQuote_LeadTimeComputedOnceForWholeStay(t *testing.T) {
	// GIVEN: Check-in exactly 30 days out, 5 nights
	// THEN: Every night gets the 30+ discount even though later nights are further out,
	//       and no night gets a different tier

	checkIn := generic.Date(2025, time.September, 1)
	cfg := scenarioConfig()
	adj, err := pricing.NewAdjuster(cfg)
	require.NoError(t, err)

	out := adj.Adjust(pricing.AdjustInput{Stay: stay(checkIn, 5), Now: checkIn.AddDate(0, 0, -30)})

	assert.Equal(t, 30, out.LeadDays)
	for _, n := range out.Nights {
		assertDecimal(t, 1700, n.Price) // shoulder 1.0 * 0.85
	}
}

func TestQuote_LastMinutePremium(t *testing.T) {
	// GIVEN: Check-in 7 days out (7-15 tier AND last-minute window)
	// THEN: 2000 * 0.95 * 1.10 = 2090

	checkIn := generic.Date(2025, time.September, 1)
	adj, err := pricing.NewAdjuster(scenarioConfig())
	require.NoError(t, err)

	out := adj.Adjust(pricing.AdjustInput{Stay: stay(checkIn, 1), Now: checkIn.AddDate(0, 0, -7)})

	assert.True(t, out.LastMinute)
	assert.Equal(t, pricing.LeadTime7To15, out.LeadTimeTier)
	assertDecimal(t, 2090, out.Nights[0].Price)

	// 3 days out: 1-7 tier (no discount configured) plus premium
	out = adj.Adjust(pricing.AdjustInput{Stay: stay(checkIn, 1), Now: checkIn.AddDate(0, 0, -3)})
	assert.Equal(t, pricing.LeadTime1To7, out.LeadTimeTier)
	assertDecimal(t, 2200, out.Nights[0].Price)
}

func TestAdjust_EveryNightWithinBounds(t *testing.T) {
	// GIVEN: Aggressive multipliers on every axis
	// THEN: Every night still lands in [min, max]

	cfg := scenarioConfig()
	cfg.SeasonalRates.Peak.Multiplier = d(4)
	cfg.SeasonalRates.OffPeak.Multiplier = d(0.1)
	cfg.WeeklyRates = map[time.Weekday]decimal.Decimal{time.Friday: d(2), time.Saturday: d(2.5), time.Monday: d(0.3)}
	cfg.LastMinutePremium = d(80)
	adj, err := pricing.NewAdjuster(cfg)
	require.NoError(t, err)

	for _, offset := range []int{0, 2, 10, 20, 45} {
		for _, start := range []time.Time{
			generic.Date(2025, time.January, 3),
			generic.Date(2025, time.June, 14),
			generic.Date(2025, time.October, 6),
		} {
			out := adj.Adjust(pricing.AdjustInput{Stay: stay(start, 14), Now: start.AddDate(0, 0, -offset)})
			for _, n := range out.Nights {
				assert.True(t, n.Price.GreaterThanOrEqual(d(1500)), "night %s below min: %s", n.Date, n.Price)
				assert.True(t, n.Price.LessThanOrEqual(d(5000)), "night %s above max: %s", n.Date, n.Price)
			}
		}
	}
}

func TestAdjust_OnlyMaxConfigured(t *testing.T) {
	// GIVEN: Max 1000, no min, no base price; the matrix rate 3000 is the base
	// WHEN: A night is priced 40 days ahead
	// THEN: The derived min drops to the configured max and the night is 1000

	adj, err := pricing.NewAdjuster(pricing.DynamicPricingConfig{Enabled: true, MaxPrice: d(1000)})
	require.NoError(t, err)

	lo, hi := adj.Bounds(d(3000))
	assertDecimal(t, 1000, lo)
	assertDecimal(t, 1000, hi)

	now := generic.Date(2025, time.March, 1)
	dec := adj.Adjust(pricing.AdjustInput{
		Stay:         stay(now.AddDate(0, 0, 40), 2),
		Now:          now,
		FallbackBase: d(3000),
	})
	for _, n := range dec.Nights {
		assertDecimal(t, 1000, n.Price)
	}

	// A max above the derived min leaves the min alone
	lo, hi = adj.Bounds(d(1000))
	assertDecimal(t, 500, lo)
	assertDecimal(t, 1000, hi)
}

func TestAdjust_OnlyMinConfigured(t *testing.T) {
	// GIVEN: Min 4000, no max, base 1000 (derived max would be 3000)
	// THEN: The derived max rises to the configured min and nights stay at 4000

	adj, err := pricing.NewAdjuster(pricing.DynamicPricingConfig{
		Enabled:   true,
		BasePrice: d(1000),
		MinPrice:  d(4000),
	})
	require.NoError(t, err)

	lo, hi := adj.Bounds(d(1000))
	assertDecimal(t, 4000, lo)
	assertDecimal(t, 4000, hi)

	now := generic.Date(2025, time.March, 1)
	dec := adj.Adjust(pricing.AdjustInput{Stay: stay(now.AddDate(0, 0, 40), 2), Now: now})
	for _, n := range dec.Nights {
		assertDecimal(t, 4000, n.Price)
	}

	lo, hi = adj.Bounds(d(2000))
	assertDecimal(t, 4000, lo)
	assertDecimal(t, 6000, hi)
}

func TestAdjust_DefaultBoundsFromBasePrice(t *testing.T) {
	// GIVEN: No min/max configured, base 1000
	// THEN: Bounds are [500, 3000]

	adj, err := pricing.NewAdjuster(pricing.DynamicPricingConfig{
		Enabled:   true,
		BasePrice: d(1000),
		SeasonalRates: pricing.SeasonalRates{
			Peak:    pricing.SeasonRate{Multiplier: d(5), Months: []time.Month{time.December}},
			OffPeak: pricing.SeasonRate{Multiplier: d(0.2), Months: []time.Month{time.February}},
		},
	})
	require.NoError(t, err)

	lo, hi := adj.Bounds(d(1000))
	assertDecimal(t, 500, lo)
	assertDecimal(t, 3000, hi)

	now := generic.Date(2025, time.January, 1)
	dec := adj.Adjust(pricing.AdjustInput{Stay: stay(generic.Date(2025, time.December, 1), 1), Now: now})
	assertDecimal(t, 3000, dec.Nights[0].Price)
	assert.True(t, dec.Nights[0].Clamped)

	feb := adj.Adjust(pricing.AdjustInput{Stay: stay(generic.Date(2025, time.February, 10), 1), Now: now})
	assertDecimal(t, 500, feb.Nights[0].Price)
}

func TestAdjust_PeakTakesPrecedenceOverOffPeak(t *testing.T) {
	cfg := scenarioConfig()
	cfg.SeasonalRates.OffPeak.Months = append(cfg.SeasonalRates.OffPeak.Months, time.December)
	adj, err := pricing.NewAdjuster(cfg)
	require.NoError(t, err)

	season, m := adj.SeasonFor(time.December)
	assert.Equal(t, pricing.SeasonPeak, season)
	assertDecimal(t, 1.5, m)

	season, m = adj.SeasonFor(time.April)
	assert.Equal(t, pricing.SeasonShoulder, season)
	assertDecimal(t, 1, m)
}

func TestAdjust_WeeklyDemandAndEvents(t *testing.T) {
	// GIVEN: Saturday 1.2x, high demand 1.1x, a +25% event, 40 days ahead (15% off)
	// THEN: 2000 * 1.0 * 1.2 * 1.1 * 1.25 * 0.85 = 2805

	cfg := scenarioConfig()
	cfg.WeeklyRates = map[time.Weekday]decimal.Decimal{time.Saturday: d(1.2)}
	cfg.DemandPricing = map[pricing.DemandTier]decimal.Decimal{pricing.DemandHigh: d(1.1)}
	saturday := generic.Date(2025, time.April, 12)
	cfg.EventPricing = []pricing.Event{{
		Name:              "Festival",
		Window:            generic.Period{Start: saturday, End: saturday},
		AdjustmentPercent: d(25),
	}}
	adj, err := pricing.NewAdjuster(cfg)
	require.NoError(t, err)

	occ := 85.0
	out := adj.Adjust(pricing.AdjustInput{Stay: stay(saturday, 2), Now: saturday.AddDate(0, 0, -40), ExpectedOccupancy: &occ})

	require.Len(t, out.Nights, 2)
	assertDecimal(t, 2805, out.Nights[0].Price)
	// Sunday: no weekly factor, no event
	assertDecimal(t, 1870, out.Nights[1].Price) // 2000 * 1.1 * 0.85
}

func TestAdjust_FallsBackToMatrixRate(t *testing.T) {
	cfg := scenarioConfig()
	cfg.BasePrice = decimal.Zero
	cfg.MinPrice = decimal.Zero
	cfg.MaxPrice = decimal.Zero

	q, err := pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(generic.Date(2025, time.April, 1), 1),
		Guests:   twoAdults(),
		MealPlan: pricing.MealPlanCP,
		Dynamic:  &cfg,
		Now:      generic.Date(2025, time.January, 1),
	})
	require.NoError(t, err)
	assertDecimal(t, 2400, q.Dynamic.BasePrice)
	assertDecimal(t, 2040, q.Breakdown.BaseRoomTotal) // 2400 * 0.85
}

func TestNewAdjuster_RejectsBadTables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*pricing.DynamicPricingConfig)
	}{
		{"month 13", func(c *pricing.DynamicPricingConfig) { c.SeasonalRates.Peak.Months = []time.Month{13} }},
		{"negative multiplier", func(c *pricing.DynamicPricingConfig) { c.SeasonalRates.Shoulder.Multiplier = d(-1) }},
		{"unknown lead tier", func(c *pricing.DynamicPricingConfig) {
			c.AdvanceBookingDiscounts[pricing.LeadTimeTier("60_plus")] = d(20)
		}},
		{"discount over 100", func(c *pricing.DynamicPricingConfig) { c.AdvanceBookingDiscounts[pricing.LeadTime30Plus] = d(120) }},
		{"min above max", func(c *pricing.DynamicPricingConfig) { c.MinPrice = d(6000) }},
		{"unknown demand tier", func(c *pricing.DynamicPricingConfig) {
			c.DemandPricing = map[pricing.DemandTier]decimal.Decimal{"extreme": d(2)}
		}},
		{"event ends before start", func(c *pricing.DynamicPricingConfig) {
			c.EventPricing = []pricing.Event{{Name: "x", Window: generic.Period{
				Start: generic.Date(2025, time.May, 2), End: generic.Date(2025, time.May, 1)}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scenarioConfig()
			tt.mutate(&cfg)
			_, err := pricing.NewAdjuster(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrConfiguration)
		})
	}
}

// =============================================================================
// STATIC PATH, GUESTS, AGGREGATION
// =============================================================================

func TestQuote_StaticMatrixPath(t *testing.T) {
	// GIVEN: 2 rooms, 4 adults, double occupancy CP at 2400, 2 nights
	// THEN: room total = 2400 * 2 * 2 = 9600

	q, err := pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(generic.Date(2025, time.May, 1), 2),
		Guests:   pricing.GuestSelection{Rooms: 2, Adults: 4},
		MealPlan: pricing.MealPlanCP,
	})
	require.NoError(t, err)

	assert.Nil(t, q.Dynamic)
	assert.Equal(t, pricing.OccupancyDouble, q.Tier)
	assertDecimal(t, 9600, q.Breakdown.BaseRoomTotal)
	assert.Equal(t, 0, q.Breakdown.ExtraGuests)
}

func TestQuote_DisabledDynamicConfigUsesMatrix(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Enabled = false

	q, err := pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(generic.Date(2025, time.December, 1), 2),
		Guests:   twoAdults(),
		MealPlan: pricing.MealPlanEP,
		Dynamic:  &cfg,
	})
	require.NoError(t, err)
	assert.Nil(t, q.Dynamic)
	assertDecimal(t, 4000, q.Breakdown.BaseRoomTotal)
}

func TestExtraGuests_ChildrenOverFiveCountAsAdults(t *testing.T) {
	// GIVEN: 2 rooms, free limit 2/room, 3 adults + children aged 8, 12, 3
	// THEN: effective adults 5, chargeable 1, charge = 1 * 500 * 3 nights

	guests := pricing.GuestSelection{
		Rooms:  2,
		Adults: 3,
		Children: []pricing.RoomChildren{
			{Room: 1, Ages: []int{8, 3}},
			{Room: 2, Ages: []int{12}},
		},
	}

	assert.Equal(t, 5, guests.EffectiveAdults())
	assert.Equal(t, 1, guests.FreeChildren())
	assert.Equal(t, pricing.OccupancyTriple, guests.OccupancyTier())

	charge := pricing.ExtraGuests(deluxe(), guests, 3)
	assert.Equal(t, 1, charge.ExtraGuests)
	assertDecimal(t, 1500, charge.Amount)
}

func TestExtraGuests_NeverNegative(t *testing.T) {
	cat := deluxe()
	cat.FreeExtraPersonLimit = 4

	charge := pricing.ExtraGuests(cat, pricing.GuestSelection{Rooms: 3, Adults: 2}, 5)
	assert.Equal(t, 0, charge.ExtraGuests)
	assert.True(t, charge.Amount.IsZero())
}

func TestMealAndAddOnCost(t *testing.T) {
	guests := pricing.GuestSelection{Rooms: 1, Adults: 2, Children: []pricing.RoomChildren{{Room: 1, Ages: []int{4}}}}
	assertDecimal(t, 1800, pricing.MealCost(d(300), guests, 3))

	total, err := pricing.AddOnCost([]pricing.AddOn{
		{Name: "Airport pickup", Price: d(1200), Quantity: 1},
		{Name: "Parking", Price: d(150), Quantity: 2, PerNight: true},
	}, 3)
	require.NoError(t, err)
	assertDecimal(t, 2100, total)

	_, err = pricing.AddOnCost([]pricing.AddOn{{Name: "Broken", Price: d(-1), Quantity: 1}}, 1)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestAggregate_TotalIdentity(t *testing.T) {
	// total = subtotal + round(subtotal*0.12) + round(subtotal*0.05) for any subtotal
	agg := pricing.Aggregator{}
	for _, sub := range []float64{0, 1, 9.99, 10, 333.33, 7650, 12345.67, 99999} {
		b := agg.Aggregate(pricing.Components{RoomTotal: d(sub)})
		expected := d(sub).Add(d(sub).Mul(d(0.12)).Round(0)).Add(d(sub).Mul(d(0.05)).Round(0))
		assert.True(t, b.Total.Equal(expected), "subtotal %v: total %v, expected %v", sub, b.Total, expected)
		assert.True(t, b.Subtotal.Equal(d(sub)))
	}
}

func TestAggregate_SumsAllComponents(t *testing.T) {
	b := pricing.Aggregator{}.Aggregate(pricing.Components{
		RoomTotal:   d(4000),
		ExtraGuests: pricing.ExtraGuestCharge{ExtraGuests: 1, Amount: d(1000)},
		MealTotal:   d(600),
		AddOnsTotal: d(400),
	})
	assertDecimal(t, 6000, b.Subtotal)
	assertDecimal(t, 720, b.Taxes)
	assertDecimal(t, 300, b.ServiceFee)
	assertDecimal(t, 7020, b.Total)
	assert.Equal(t, 1, b.ExtraGuests)
}

func TestQuote_Idempotent(t *testing.T) {
	cfg := scenarioConfig()
	in := pricing.QuoteInput{
		Category:    deluxe(),
		Stay:        stay(generic.Date(2025, time.December, 20), 4),
		Guests:      pricing.GuestSelection{Rooms: 1, Adults: 3},
		MealPlan:    pricing.MealPlanEP,
		MealTotal:   d(900),
		AddOnsTotal: d(250),
		Dynamic:     &cfg,
		Now:         generic.Date(2025, time.December, 1),
	}
	engine := pricing.NewEngine()

	first, err := engine.Quote(in)
	require.NoError(t, err)
	second, err := engine.Quote(in)
	require.NoError(t, err)

	assert.Equal(t, first.Breakdown.Total.String(), second.Breakdown.Total.String())
	assert.Equal(t, first.Breakdown.Subtotal.String(), second.Breakdown.Subtotal.String())
	assert.Equal(t, first.Breakdown.ExtraGuests, second.Breakdown.ExtraGuests)
	for i := range first.Dynamic.Nights {
		assert.True(t, first.Dynamic.Nights[i].Price.Equal(second.Dynamic.Nights[i].Price))
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestQuote_ValidationBeforeArithmetic(t *testing.T) {
	base := pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(generic.Date(2025, time.May, 1), 2),
		Guests:   twoAdults(),
		MealPlan: pricing.MealPlanEP,
	}

	tests := []struct {
		name   string
		mutate func(*pricing.QuoteInput)
		field  string
	}{
		{"no adults", func(in *pricing.QuoteInput) { in.Guests.Adults = 0 }, "adults"},
		{"no rooms", func(in *pricing.QuoteInput) { in.Guests.Rooms = 0 }, "rooms"},
		{"zero nights", func(in *pricing.QuoteInput) { in.Stay.CheckOut = in.Stay.CheckIn }, "dates"},
		{"unknown plan", func(in *pricing.QuoteInput) { in.MealPlan = "XP" }, "meal_plan"},
		{"negative meal", func(in *pricing.QuoteInput) { in.MealTotal = d(-5) }, "meal_total"},
		{"child in missing room", func(in *pricing.QuoteInput) {
			in.Guests.Children = []pricing.RoomChildren{{Room: 2, Ages: []int{3}}}
		}, "children"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := pricing.NewEngine().Quote(in)

			var vErr *generic.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestQuote_MissingMatrixCellIsConfigurationError(t *testing.T) {
	// GIVEN: Matrix has no MAP row
	_, err := pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(generic.Date(2025, time.May, 1), 2),
		Guests:   twoAdults(),
		MealPlan: pricing.MealPlanMAP,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrConfiguration)

	// GIVEN: CP row exists but has no quad cell
	_, err = pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: deluxe(),
		Stay:     stay(generic.Date(2025, time.May, 1), 2),
		Guests:   pricing.GuestSelection{Rooms: 1, Adults: 4},
		MealPlan: pricing.MealPlanCP,
	})
	var cErr *generic.ConfigurationError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "meal_plan_matrix", cErr.Key)
}

func TestParseHelpers(t *testing.T) {
	plan, err := pricing.ParseMealPlan("map")
	require.NoError(t, err)
	assert.Equal(t, pricing.MealPlanMAP, plan)

	tier, err := pricing.ParseOccupancyTier("Triple")
	require.NoError(t, err)
	assert.Equal(t, pricing.OccupancyTriple, tier)

	_, err = pricing.ParseOccupancyTier("penta")
	assert.ErrorIs(t, err, generic.ErrValidation)

	assert.Equal(t, pricing.OccupancyQuad, pricing.TierForGuests(7))
	assert.Equal(t, pricing.DemandPeak, pricing.DemandTierFor(95))
}
