package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/warp/revenue-engine/generic"
)

// FreeChildMaxAge is the oldest age that still stays free.
// Older children are priced as adults.
const FreeChildMaxAge = 5

// =============================================================================
// GUEST SELECTION
// =============================================================================

// RoomChildren lists the children assigned to one room of the booking.
type RoomChildren struct {
	Room int
	Ages []int
}

// GuestSelection is what the booking flow collected: rooms, adults and the
// children per room with their ages.
type GuestSelection struct {
	Rooms    int
	Adults   int
	Children []RoomChildren
}

// Validate runs before any arithmetic.
func (g GuestSelection) Validate() error {
	if g.Rooms < 1 {
		return generic.NewValidationError("rooms", "must be at least 1, got %d", g.Rooms)
	}
	if g.Adults < 1 {
		return generic.NewValidationError("adults", "must be at least 1, got %d", g.Adults)
	}
	for _, rc := range g.Children {
		if rc.Room < 1 || rc.Room > g.Rooms {
			return generic.NewValidationError("children", "room %d is outside 1..%d", rc.Room, g.Rooms)
		}
		for _, age := range rc.Ages {
			if age < 0 {
				return generic.NewValidationError("children", "negative age %d in room %d", age, rc.Room)
			}
		}
	}
	return nil
}

// EffectiveAdults counts adults plus children older than FreeChildMaxAge.
func (g GuestSelection) EffectiveAdults() int {
	n := g.Adults
	for _, rc := range g.Children {
		for _, age := range rc.Ages {
			if age > FreeChildMaxAge {
				n++
			}
		}
	}
	return n
}

// FreeChildren counts children at or below FreeChildMaxAge.
func (g GuestSelection) FreeChildren() int {
	n := 0
	for _, rc := range g.Children {
		for _, age := range rc.Ages {
			if age <= FreeChildMaxAge {
				n++
			}
		}
	}
	return n
}

// OccupancyTier derives the matrix tier from effective adults per room.
func (g GuestSelection) OccupancyTier() OccupancyTier {
	if g.Rooms < 1 {
		return OccupancySingle
	}
	perRoom := (g.EffectiveAdults() + g.Rooms - 1) / g.Rooms
	return TierForGuests(perRoom)
}

// =============================================================================
// EXTRA GUEST AND ADD-ON CALCULATOR
// =============================================================================

// ExtraGuestCharge is the surcharge for guests beyond the free allowance.
type ExtraGuestCharge struct {
	ExtraGuests int
	Amount      decimal.Decimal
}

// ExtraGuests computes
//
//	chargeable = max(0, effectiveAdults - rooms*freeExtraPersonLimit)
//	amount     = chargeable * extraPersonCharge * nights
//
// effectiveAdults counts children above the free age as adults, so a
// 2-adult booking with one charged child pays for three guests where a
// plain adult count would charge for two.
func ExtraGuests(category RoomCategory, guests GuestSelection, nights int) ExtraGuestCharge {
	freeLimit := guests.Rooms * category.FreeExtraPersonLimit
	chargeable := guests.EffectiveAdults() - freeLimit
	if chargeable < 0 {
		chargeable = 0
	}
	amount := category.ExtraPersonCharge.
		Mul(decimal.NewFromInt(int64(chargeable))).
		Mul(decimal.NewFromInt(int64(nights)))
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return ExtraGuestCharge{ExtraGuests: chargeable, Amount: amount}
}

// MealCost prices a per-person-per-night meal supplement for every
// effective adult. Free children eat free.
func MealCost(pricePerPerson decimal.Decimal, guests GuestSelection, nights int) decimal.Decimal {
	return pricePerPerson.
		Mul(decimal.NewFromInt(int64(guests.EffectiveAdults()))).
		Mul(decimal.NewFromInt(int64(nights)))
}

// AddOnCost sums price*quantity for each add-on, times nights for per-night items.
func AddOnCost(addOns []AddOn, nights int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range addOns {
		if a.Price.IsNegative() || a.Quantity < 0 {
			return decimal.Zero, generic.NewValidationError("add_ons", "%q has a negative price or quantity", a.Name)
		}
		line := a.Price.Mul(decimal.NewFromInt(int64(a.Quantity)))
		if a.PerNight {
			line = line.Mul(decimal.NewFromInt(int64(nights)))
		}
		total = total.Add(line)
	}
	return total, nil
}
