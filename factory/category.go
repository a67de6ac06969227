/*
Package factory converts JSON catalog definitions into pricing types.

PURPOSE:
  Room categories and their dynamic pricing setup are edited by revenue
  managers in an admin UI and stored as JSON. The factory turns that JSON
  into pricing.RoomCategory and pricing.DynamicPricingConfig, rejecting any
  key it does not know instead of silently ignoring it.

CATEGORY SCHEMA:
  {
    "id": "deluxe",
    "name": "Deluxe Room",
    "base_rate": 2000,
    "free_extra_person_limit": 2,
    "extra_person_charge": 500,
    "meal_plan_matrix": {
      "EP": {"single": 1800, "double": 2000, "triple": 2600},
      "CP": {"single": 2100, "double": 2400, "triple": 3000}
    }
  }

PRICING SCHEMA:
  {
    "enabled": true,
    "base_price": 2000, "min_price": 1500, "max_price": 5000,
    "seasonal_rates": {
      "peak":     {"multiplier": 1.5, "months": [12, 1]},
      "off_peak": {"multiplier": 0.8, "months": [6, 7]},
      "shoulder": {"multiplier": 1.0}
    },
    "weekly_rates": {"friday": 1.1, "saturday": 1.2},
    "demand_pricing": {"low": 0.9, "high": 1.1, "peak": 1.25},
    "advance_booking_discounts": {"30_plus": 15, "15_30": 10, "7_15": 5},
    "last_minute_premium": 10,
    "event_pricing": [
      {"name": "New Year", "from": "2025-12-30", "to": "2026-01-01", "adjustment_percent": 30}
    ]
  }

VALIDATION:
  - Unknown JSON fields fail the decode
  - Unknown meal plans, occupancy tiers, weekdays, demand or lead-time tiers
    and months outside 1..12 are ConfigurationErrors
  - The pricing config is compiled once with pricing.NewAdjuster so a bad
    table fails here, not mid-quote

USAGE:
  f := factory.NewCatalogFactory()
  category, err := f.ParseCategory(factory.StandardRoomJSON("deluxe", "Deluxe", 2000))
  cfg, err := f.ParsePricing(factory.SeasonalPricingJSON(2000))

SEE ALSO:
  - pricing/types.go: RoomCategory
  - pricing/dynamic.go: DynamicPricingConfig and Adjuster
  - presets.go: ready-made JSON for demos and tests
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/pricing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CategoryJSON is the JSON representation of a room category.
type CategoryJSON struct {
	ID                   string                                `json:"id"`
	Name                 string                                `json:"name"`
	BaseRate             decimal.Decimal                       `json:"base_rate"`
	FreeExtraPersonLimit int                                   `json:"free_extra_person_limit"`
	ExtraPersonCharge    decimal.Decimal                       `json:"extra_person_charge"`
	MealPlanMatrix       map[string]map[string]decimal.Decimal `json:"meal_plan_matrix"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts JSON catalog entries to pricing types.
type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// decodeStrict unmarshals s into v, rejecting unknown fields.
func decodeStrict(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return generic.NewConfigurationError("json", "%v", err)
	}
	return nil
}

// ParseCategory parses a JSON string into a RoomCategory.
func (f *CatalogFactory) ParseCategory(jsonStr string) (*pricing.RoomCategory, error) {
	var cj CategoryJSON
	if err := decodeStrict(jsonStr, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse category JSON: %w", err)
	}
	return f.CategoryFromJSON(cj)
}

// CategoryFromJSON validates cj and converts it.
func (f *CatalogFactory) CategoryFromJSON(cj CategoryJSON) (*pricing.RoomCategory, error) {
	if cj.ID == "" {
		return nil, generic.NewConfigurationError("id", "is required")
	}
	if cj.Name == "" {
		cj.Name = cj.ID
	}
	if cj.BaseRate.IsNegative() {
		return nil, generic.NewConfigurationError("base_rate", "must not be negative")
	}
	if cj.FreeExtraPersonLimit < 0 {
		return nil, generic.NewConfigurationError("free_extra_person_limit", "must not be negative")
	}
	if cj.ExtraPersonCharge.IsNegative() {
		return nil, generic.NewConfigurationError("extra_person_charge", "must not be negative")
	}
	if len(cj.MealPlanMatrix) == 0 {
		return nil, generic.NewConfigurationError("meal_plan_matrix", "at least one meal plan must be priced")
	}

	matrix := pricing.RateMatrix{}
	for _, planKey := range sortedKeys(cj.MealPlanMatrix) {
		row := cj.MealPlanMatrix[planKey]
		plan, err := pricing.ParseMealPlan(planKey)
		if err != nil {
			return nil, generic.NewConfigurationError("meal_plan_matrix", "unknown meal plan %q", planKey)
		}
		for _, tierKey := range sortedKeys(row) {
			rate := row[tierKey]
			tier, err := pricing.ParseOccupancyTier(tierKey)
			if err != nil {
				return nil, generic.NewConfigurationError("meal_plan_matrix", "%s: unknown occupancy tier %q", plan, tierKey)
			}
			if rate.IsNegative() {
				return nil, generic.NewConfigurationError("meal_plan_matrix", "%s/%s: rate must not be negative", plan, tier)
			}
			matrix.Set(plan, tier, rate)
		}
	}

	return &pricing.RoomCategory{
		ID:                   generic.CategoryID(cj.ID),
		Name:                 cj.Name,
		BaseRate:             cj.BaseRate,
		FreeExtraPersonLimit: cj.FreeExtraPersonLimit,
		ExtraPersonCharge:    cj.ExtraPersonCharge,
		MealPlanMatrix:       matrix,
	}, nil
}

// CategoryToJSON converts a RoomCategory back to its JSON form.
func (f *CatalogFactory) CategoryToJSON(c pricing.RoomCategory) CategoryJSON {
	cj := CategoryJSON{
		ID:                   string(c.ID),
		Name:                 c.Name,
		BaseRate:             c.BaseRate,
		FreeExtraPersonLimit: c.FreeExtraPersonLimit,
		ExtraPersonCharge:    c.ExtraPersonCharge,
		MealPlanMatrix:       make(map[string]map[string]decimal.Decimal),
	}
	for _, plan := range c.MealPlanMatrix.Plans() {
		row := make(map[string]decimal.Decimal)
		for tier, rate := range c.MealPlanMatrix[plan] {
			row[tier.String()] = rate
		}
		cj.MealPlanMatrix[string(plan)] = row
	}
	return cj
}

// Canonical re-encodes a parsed category for storage.
func (f *CatalogFactory) Canonical(c pricing.RoomCategory) (string, error) {
	b, err := json.Marshal(f.CategoryToJSON(c))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// sortedKeys is used to make error messages deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
