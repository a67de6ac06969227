package factory

import "encoding/json"

// StandardRoomJSON returns JSON for a room category priced off baseRate:
// CP adds 15%, MAP 30%, AP 45%; triple and quad add 25% and 45% over double,
// single is 10% below double.
func StandardRoomJSON(id, name string, baseRate float64) string {
	planFactor := map[string]float64{"EP": 1.0, "CP": 1.15, "MAP": 1.30, "AP": 1.45}
	tierFactor := map[string]float64{"single": 0.90, "double": 1.0, "triple": 1.25, "quad": 1.45}

	matrix := map[string]map[string]float64{}
	for plan, pf := range planFactor {
		row := map[string]float64{}
		for tier, tf := range tierFactor {
			row[tier] = roundWhole(baseRate * pf * tf)
		}
		matrix[plan] = row
	}

	cj := map[string]interface{}{
		"id":                      id,
		"name":                    name,
		"base_rate":               baseRate,
		"free_extra_person_limit": 2,
		"extra_person_charge":     roundWhole(baseRate * 0.25),
		"meal_plan_matrix":        matrix,
	}
	b, _ := json.MarshalIndent(cj, "", "  ")
	return string(b)
}

// SeasonalPricingJSON returns JSON for a typical resort setup: December and
// January peak, monsoon off-peak, weekend uplift, early-bird discounts and a
// last-minute premium. Bounds are 0.75x and 2.5x of basePrice.
func SeasonalPricingJSON(basePrice float64) string {
	pj := map[string]interface{}{
		"enabled":    true,
		"base_price": basePrice,
		"min_price":  roundWhole(basePrice * 0.75),
		"max_price":  roundWhole(basePrice * 2.5),
		"seasonal_rates": map[string]interface{}{
			"peak":     map[string]interface{}{"multiplier": 1.5, "months": []int{12, 1}},
			"off_peak": map[string]interface{}{"multiplier": 0.8, "months": []int{6, 7, 8}},
			"shoulder": map[string]interface{}{"multiplier": 1.0},
		},
		"weekly_rates": map[string]float64{
			"friday":   1.1,
			"saturday": 1.2,
		},
		"demand_pricing": map[string]float64{
			"low":    0.9,
			"medium": 1.0,
			"high":   1.1,
			"peak":   1.25,
		},
		"advance_booking_discounts": map[string]float64{
			"30_plus": 15,
			"15_30":   10,
			"7_15":    5,
			"1_7":     0,
		},
		"last_minute_premium": 10,
	}
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

func roundWhole(v float64) float64 {
	if v < 0 {
		return float64(int64(v - 0.5))
	}
	return float64(int64(v + 0.5))
}
