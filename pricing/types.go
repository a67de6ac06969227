// Package pricing implements the nightly-rate pipeline: rate matrix lookup,
// extra guest and add-on charges, dynamic adjustments and the final
// tax/fee breakdown. Every function here is pure; configuration is passed
// in, never read from shared state.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

// =============================================================================
// MEAL PLANS
// =============================================================================

type MealPlan string

const (
	MealPlanEP  MealPlan = "EP"  // room only
	MealPlanCP  MealPlan = "CP"  // + breakfast
	MealPlanMAP MealPlan = "MAP" // + breakfast and one meal
	MealPlanAP  MealPlan = "AP"  // all meals
)

var MealPlans = []MealPlan{MealPlanEP, MealPlanCP, MealPlanMAP, MealPlanAP}

func ParseMealPlan(s string) (MealPlan, error) {
	p := MealPlan(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case MealPlanEP, MealPlanCP, MealPlanMAP, MealPlanAP:
		return p, nil
	}
	return "", generic.NewValidationError("meal_plan", "unknown meal plan %q", s)
}

// =============================================================================
// OCCUPANCY TIERS
// =============================================================================

// OccupancyTier is the guests-per-room bracket used as the second matrix axis.
type OccupancyTier int

const (
	OccupancySingle OccupancyTier = iota + 1
	OccupancyDouble
	OccupancyTriple
	OccupancyQuad
)

var OccupancyTiers = []OccupancyTier{OccupancySingle, OccupancyDouble, OccupancyTriple, OccupancyQuad}

func (t OccupancyTier) String() string {
	switch t {
	case OccupancySingle:
		return "single"
	case OccupancyDouble:
		return "double"
	case OccupancyTriple:
		return "triple"
	case OccupancyQuad:
		return "quad"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func (t OccupancyTier) Valid() bool {
	return t >= OccupancySingle && t <= OccupancyQuad
}

func ParseOccupancyTier(s string) (OccupancyTier, error) {
	for _, t := range OccupancyTiers {
		if strings.EqualFold(strings.TrimSpace(s), t.String()) {
			return t, nil
		}
	}
	return 0, generic.NewValidationError("occupancy_tier", "unknown occupancy tier %q", s)
}

// TierForGuests maps guests per room onto a tier, capped at quad.
func TierForGuests(perRoom int) OccupancyTier {
	switch {
	case perRoom <= 1:
		return OccupancySingle
	case perRoom >= int(OccupancyQuad):
		return OccupancyQuad
	default:
		return OccupancyTier(perRoom)
	}
}

// =============================================================================
// ROOM CATEGORY
// =============================================================================

// RoomCategory is a sellable room type from the property catalog.
type RoomCategory struct {
	ID                   generic.CategoryID
	Name                 string
	BaseRate             decimal.Decimal
	FreeExtraPersonLimit int
	ExtraPersonCharge    decimal.Decimal
	MealPlanMatrix       RateMatrix
}

// =============================================================================
// ADD-ONS
// =============================================================================

// AddOn is an optional extra sold with the stay (airport pickup, spa credit).
type AddOn struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
	PerNight bool
}
