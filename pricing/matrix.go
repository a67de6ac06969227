package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

// RateMatrix prices a night by meal plan and occupancy tier.
// No monotonicity is enforced across tiers; a property may price a triple
// below a double if it wants to.
type RateMatrix map[MealPlan]map[OccupancyTier]decimal.Decimal

// Set defines one cell, allocating the row if needed.
func (m RateMatrix) Set(plan MealPlan, tier OccupancyTier, rate decimal.Decimal) {
	row, ok := m[plan]
	if !ok {
		row = make(map[OccupancyTier]decimal.Decimal)
		m[plan] = row
	}
	row[tier] = rate
}

// Resolve returns the nightly rate for a plan/tier combination.
// An undefined cell is a ConfigurationError, never a zero rate.
func (m RateMatrix) Resolve(plan MealPlan, tier OccupancyTier) (decimal.Decimal, error) {
	row, ok := m[plan]
	if !ok {
		return decimal.Zero, generic.NewConfigurationError("meal_plan_matrix",
			"meal plan %s is not priced", plan)
	}
	rate, ok := row[tier]
	if !ok {
		return decimal.Zero, generic.NewConfigurationError("meal_plan_matrix",
			"meal plan %s has no rate for %s occupancy", plan, tier)
	}
	return rate, nil
}

// Plans lists the meal plans that have at least one priced tier.
func (m RateMatrix) Plans() []MealPlan {
	var plans []MealPlan
	for _, p := range MealPlans {
		if len(m[p]) > 0 {
			plans = append(plans, p)
		}
	}
	return plans
}
