package forecast

import (
	"sort"
	"time"

	"github.com/warp/revenue-engine/generic"
)

// =============================================================================
// SEASONAL PATTERN DETECTOR
// =============================================================================

// DetectSeasonality groups a year or more of history by calendar month:
//
//	multiplier = monthAverage / overallAverage
//	confidence = clamp((1 - variance/mean) * 100, 0, 100)   per month
//
// Returns nil for fewer than MinSeasonalHistory points. Months without data
// are omitted. Results are ordered January to December.
func DetectSeasonality(history []generic.HistoricalDataPoint, metric Metric) []SeasonalPattern {
	if len(history) < MinSeasonalHistory {
		return nil
	}

	byMonth := make(map[time.Month][]float64, 12)
	all := make([]float64, 0, len(history))
	for _, p := range history {
		v := metric.Value(p)
		byMonth[p.Date.Month()] = append(byMonth[p.Date.Month()], v)
		all = append(all, v)
	}
	overall := mean(all)

	patterns := make([]SeasonalPattern, 0, len(byMonth))
	for month, values := range byMonth {
		avg := mean(values)

		multiplier := 1.0
		if overall != 0 {
			multiplier = avg / overall
		}

		confidence := 0.0
		if avg != 0 {
			confidence = clamp((1-variance(values)/avg)*100, 0, 100)
		}

		patterns = append(patterns, SeasonalPattern{
			Month:      month,
			Multiplier: multiplier,
			Confidence: confidence,
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].Month < patterns[j].Month })
	return patterns
}

// MultiplierFor returns the multiplier for month, if a pattern covers it.
func MultiplierFor(patterns []SeasonalPattern, month time.Month) (float64, bool) {
	for _, p := range patterns {
		if p.Month == month {
			return p.Multiplier, true
		}
	}
	return 0, false
}

// Strongest and weakest months by multiplier. ok is false for no patterns.
func Extremes(patterns []SeasonalPattern) (peak, low SeasonalPattern, ok bool) {
	if len(patterns) == 0 {
		return SeasonalPattern{}, SeasonalPattern{}, false
	}
	peak, low = patterns[0], patterns[0]
	for _, p := range patterns[1:] {
		if p.Multiplier > peak.Multiplier {
			peak = p
		}
		if p.Multiplier < low.Multiplier {
			low = p
		}
	}
	return peak, low, true
}
