package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/revenue-engine/factory"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/pricing"
)

func TestParseCategory(t *testing.T) {
	f := factory.NewCatalogFactory()

	cat, err := f.ParseCategory(`{
		"id": "deluxe",
		"name": "Deluxe",
		"base_rate": 2000,
		"free_extra_person_limit": 2,
		"extra_person_charge": "500",
		"meal_plan_matrix": {
			"EP": {"single": 1800, "double": 2000},
			"cp": {"Double": 2400}
		}
	}`)
	require.NoError(t, err)

	assert.Equal(t, generic.CategoryID("deluxe"), cat.ID)
	assert.Equal(t, 2, cat.FreeExtraPersonLimit)
	assert.True(t, cat.ExtraPersonCharge.Equal(decimal.NewFromInt(500)))

	rate, err := cat.MealPlanMatrix.Resolve(pricing.MealPlanCP, pricing.OccupancyDouble)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(2400)))

	_, err = cat.MealPlanMatrix.Resolve(pricing.MealPlanCP, pricing.OccupancySingle)
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func TestParseCategory_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown field", `{"id":"x","meal_plan_matrix":{"EP":{"single":1}},"colour":"blue"}`},
		{"unknown plan", `{"id":"x","meal_plan_matrix":{"XP":{"single":1}}}`},
		{"unknown tier", `{"id":"x","meal_plan_matrix":{"EP":{"penta":1}}}`},
		{"negative rate", `{"id":"x","meal_plan_matrix":{"EP":{"single":-1}}}`},
		{"empty matrix", `{"id":"x","meal_plan_matrix":{}}`},
		{"missing id", `{"meal_plan_matrix":{"EP":{"single":1}}}`},
		{"malformed", `{"id":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.NewCatalogFactory().ParseCategory(tt.json)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrConfiguration)
		})
	}
}

func TestParsePricing_Preset(t *testing.T) {
	cfg, err := factory.NewCatalogFactory().ParsePricing(factory.SeasonalPricingJSON(2000))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.MinPrice.Equal(decimal.NewFromInt(1500)))
	assert.True(t, cfg.MaxPrice.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, []time.Month{time.December, time.January}, cfg.SeasonalRates.Peak.Months)
	assert.True(t, cfg.WeeklyRates[time.Saturday].Equal(decimal.NewFromFloat(1.2)))
	assert.True(t, cfg.AdvanceBookingDiscounts[pricing.LeadTime30Plus].Equal(decimal.NewFromInt(15)))
	assert.True(t, cfg.DemandPricing[pricing.DemandPeak].Equal(decimal.NewFromFloat(1.25)))
}

func TestParsePricing_Events(t *testing.T) {
	cfg, err := factory.NewCatalogFactory().ParsePricing(`{
		"enabled": true,
		"base_price": 1000,
		"event_pricing": [{"name": "Marathon", "from": "2025-03-01", "to": "2025-03-02", "adjustment_percent": 20}]
	}`)
	require.NoError(t, err)
	require.Len(t, cfg.EventPricing, 1)
	assert.True(t, cfg.EventPricing[0].Window.Contains(generic.Date(2025, time.March, 2)))
	assert.False(t, cfg.EventPricing[0].Window.Contains(generic.Date(2025, time.March, 3)))
}

func TestParsePricing_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"month 13", `{"seasonal_rates":{"peak":{"multiplier":1.5,"months":[13]}}}`},
		{"month 0", `{"seasonal_rates":{"off_peak":{"multiplier":0.8,"months":[0]}}}`},
		{"weekday typo", `{"weekly_rates":{"saturdy":1.2}}`},
		{"lead tier", `{"advance_booking_discounts":{"60_plus":20}}`},
		{"demand tier", `{"demand_pricing":{"extreme":2}}`},
		{"unknown season", `{"seasonal_rates":{"winter":{"multiplier":1}}}`},
		{"bad event date", `{"event_pricing":[{"name":"x","from":"03/01/2025","to":"2025-03-02"}]}`},
		{"min over max", `{"min_price":5000,"max_price":1000}`},
		{"discount over 100", `{"advance_booking_discounts":{"30_plus":150}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.NewCatalogFactory().ParsePricing(tt.json)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrConfiguration)
		})
	}
}

func TestCanonical_ReparsesToSameConfig(t *testing.T) {
	f := factory.NewCatalogFactory()

	cat, err := f.ParseCategory(factory.StandardRoomJSON("suite", "Suite", 4000))
	require.NoError(t, err)
	stored, err := f.Canonical(*cat)
	require.NoError(t, err)
	again, err := f.ParseCategory(stored)
	require.NoError(t, err)
	assert.Len(t, again.MealPlanMatrix.Plans(), 4)

	cfg, err := f.ParsePricing(factory.SeasonalPricingJSON(3000))
	require.NoError(t, err)
	storedCfg, err := f.CanonicalPricing(*cfg)
	require.NoError(t, err)
	cfgAgain, err := f.ParsePricing(storedCfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, cfg.SeasonalRates.OffPeak.Months, cfgAgain.SeasonalRates.OffPeak.Months)
	assert.Len(t, cfgAgain.WeeklyRates, 2)
}

func TestStandardRoomJSON_Quotes(t *testing.T) {
	// GIVEN: Preset category at 2000
	// THEN: It prices a double CP stay end to end
	cat, err := factory.NewCatalogFactory().ParseCategory(factory.StandardRoomJSON("deluxe", "Deluxe", 2000))
	require.NoError(t, err)

	q, err := pricing.NewEngine().Quote(pricing.QuoteInput{
		Category: *cat,
		Stay: generic.DateRange{
			CheckIn:  generic.Date(2025, time.April, 1),
			CheckOut: generic.Date(2025, time.April, 3),
		},
		Guests:   pricing.GuestSelection{Rooms: 1, Adults: 2},
		MealPlan: pricing.MealPlanCP,
	})
	require.NoError(t, err)
	assert.True(t, q.Breakdown.BaseRoomTotal.Equal(decimal.NewFromInt(4600)), q.Breakdown.BaseRoomTotal.String())
}
