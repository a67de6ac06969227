package forecast

import (
	"fmt"
	"math"
)

// LowConfidence is the confidence below which insights carry a warning.
const LowConfidence = 50.0

// Insights turns forecasts and seasonal patterns into dashboard sentences.
// The order is stable: bookings, revenue, confidence warning, seasonality.
func Insights(bookings, revenue ForecastResult, patterns []SeasonalPattern) []string {
	var out []string

	out = append(out, trendSentence("Bookings are", bookings))
	out = append(out, trendSentence("Revenue is", revenue))

	if bookings.Points < MinHistory || revenue.Points < MinHistory {
		out = append(out, fmt.Sprintf("Not enough history to forecast reliably (need at least %d days)", MinHistory))
	} else if c := math.Min(bookings.Confidence, revenue.Confidence); c < LowConfidence {
		out = append(out, fmt.Sprintf("Forecast confidence is low (%.0f%%); treat predictions as indicative", c))
	}

	if peak, low, ok := Extremes(patterns); ok {
		if peak.Multiplier > 1 {
			out = append(out, fmt.Sprintf("%s is the strongest month at %.2fx the yearly average", peak.Month, peak.Multiplier))
		}
		if low.Multiplier < 1 {
			out = append(out, fmt.Sprintf("%s is the weakest month at %.2fx the yearly average", low.Month, low.Multiplier))
		}
	}
	return out
}

func trendSentence(subject string, r ForecastResult) string {
	switch r.Trend {
	case TrendUp:
		return fmt.Sprintf("%s trending up %.1f%% week over week", subject, r.ChangePercent)
	case TrendDown:
		return fmt.Sprintf("%s trending down %.1f%% week over week", subject, math.Abs(r.ChangePercent))
	default:
		return fmt.Sprintf("%s stable week over week", subject)
	}
}
