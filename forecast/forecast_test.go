package forecast_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/revenue-engine/forecast"
	"github.com/warp/revenue-engine/generic"
)

// series builds one point per day starting at start, with bookings[i] as the
// count, revenue = 100 * count, and occupancy = count.
func series(start time.Time, bookings ...float64) []generic.HistoricalDataPoint {
	out := make([]generic.HistoricalDataPoint, len(bookings))
	for i, b := range bookings {
		out[i] = generic.HistoricalDataPoint{
			Date:          start.AddDate(0, 0, i),
			BookingsCount: int(b),
			Revenue:       decimal.NewFromFloat(b * 100),
			OccupancyRate: b,
		}
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

var jan1 = generic.Date(2024, time.January, 1)

// =============================================================================
// REGRESSION
// =============================================================================

func TestFitLine_PerfectLine(t *testing.T) {
	fit := forecast.FitLine([]float64{3, 5, 7, 9, 11})

	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 3.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-9)
	assert.InDelta(t, 23.0, fit.At(10), 1e-9)
}

func TestFitLine_Degenerate(t *testing.T) {
	// Empty and single-point series never produce NaN
	assert.Equal(t, forecast.LinearFit{}, forecast.FitLine(nil))

	one := forecast.FitLine([]float64{42})
	assert.Equal(t, 0.0, one.Slope)
	assert.Equal(t, 42.0, one.Intercept)

	flat := forecast.FitLine(repeat(10, 12))
	assert.Equal(t, 0.0, flat.Slope)
	assert.InDelta(t, 10.0, flat.Intercept, 1e-9)
	assert.Equal(t, 1.0, flat.RSquared)
}

func TestFitLine_NoisyDataHasPartialFit(t *testing.T) {
	fit := forecast.FitLine([]float64{1, 9, 2, 8, 3, 7, 4, 6})
	assert.Greater(t, fit.RSquared, 0.0)
	assert.Less(t, fit.RSquared, 0.5)
}

// =============================================================================
// BOOKINGS
// =============================================================================

func TestForecastBookings_InsufficientHistory(t *testing.T) {
	// GIVEN: 6 points
	// THEN: The zero result
	r := forecast.Forecaster{}.ForecastBookings(series(jan1, 1, 2, 3, 4, 5, 6), 7)

	assert.Equal(t, 0.0, r.Predicted)
	assert.Equal(t, 0.0, r.Confidence)
	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.Equal(t, 0.0, r.ChangePercent)
}

func TestForecastBookings_FlatSeries(t *testing.T) {
	// GIVEN: 10 days at 10 bookings/day
	// THEN: ~10 predicted, high confidence, stable
	r := forecast.Forecaster{}.ForecastBookings(series(jan1, repeat(10, 10)...), 7)

	assert.InDelta(t, 10.0, r.Predicted, 0.01)
	assert.GreaterOrEqual(t, r.Confidence, 80.0)
	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.Equal(t, generic.Date(2024, time.January, 17), r.TargetDate)
}

func TestForecastBookings_UpwardTrend(t *testing.T) {
	// GIVEN: 10, 11, ... 23 (14 days)
	// THEN: recent avg 20 vs older 13 -> up ~53.8%; predicted at x = 14 + 7
	r := forecast.Forecaster{}.ForecastBookings(series(jan1, ramp(10, 1, 14)...), 7)

	assert.Equal(t, forecast.TrendUp, r.Trend)
	assert.InDelta(t, 53.846, r.ChangePercent, 0.01)
	assert.InDelta(t, 31.0, r.Predicted, 1e-6)
	assert.InDelta(t, 100.0, r.Confidence, 1e-6)
}

func TestForecastBookings_PredictionNeverNegative(t *testing.T) {
	r := forecast.Forecaster{}.ForecastBookings(series(jan1, ramp(20, -2, 10)...), 20)

	assert.Equal(t, 0.0, r.Predicted)
	assert.Equal(t, forecast.TrendDown, r.Trend)
}

func TestForecast_TrendNeedsTwoWindows(t *testing.T) {
	// Exactly 7 points: nothing to compare against
	r := forecast.Forecaster{}.ForecastBookings(series(jan1, ramp(1, 5, 7)...), 1)
	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.Equal(t, 0.0, r.ChangePercent)
}

func TestForecast_OlderWindowZeroIsStable(t *testing.T) {
	values := append(repeat(0, 7), repeat(10, 7)...)
	r := forecast.Forecaster{}.ForecastBookings(series(jan1, values...), 1)
	assert.Equal(t, forecast.TrendStable, r.Trend)
	assert.Equal(t, 0.0, r.ChangePercent)
}

// =============================================================================
// REVENUE AND OCCUPANCY
// =============================================================================

func TestForecast_RevenueUsesWiderThreshold(t *testing.T) {
	// GIVEN: 8% week-over-week growth
	// THEN: Bookings (5%) call it up, revenue (10%) calls it stable
	values := append(repeat(100, 7), repeat(108, 7)...)
	history := series(jan1, values...)
	f := forecast.Forecaster{}

	assert.Equal(t, forecast.TrendUp, f.ForecastBookings(history, 1).Trend)
	rev := f.ForecastRevenue(history, 1, nil)
	assert.Equal(t, forecast.TrendStable, rev.Trend)
	assert.InDelta(t, 8.0, rev.ChangePercent, 1e-6)
}

func TestForecastRevenue_AppliesSeasonalMultiplier(t *testing.T) {
	// GIVEN: Flat 1000/day ending July 5, July multiplier 1.5
	// WHEN: Forecasting 3 days ahead (July 8)
	start := generic.Date(2024, time.June, 26)
	history := series(start, repeat(10, 10)...)
	patterns := []forecast.SeasonalPattern{
		{Month: time.June, Multiplier: 0.8},
		{Month: time.July, Multiplier: 1.5},
	}

	r := forecast.Forecaster{}.ForecastRevenue(history, 3, patterns)
	assert.Equal(t, time.July, r.TargetDate.Month())
	assert.InDelta(t, 1500.0, r.Predicted, 0.01)

	// No pattern for the month: unscaled
	r = forecast.Forecaster{}.ForecastRevenue(history, 3, patterns[:1])
	assert.InDelta(t, 1000.0, r.Predicted, 0.01)
}

func TestForecastOccupancy_ClampedToPercent(t *testing.T) {
	r := forecast.Forecaster{}.ForecastOccupancy(series(jan1, ramp(80, 3, 14)...), 30)
	assert.Equal(t, 100.0, r.Predicted)
	assert.Equal(t, forecast.MetricOccupancy, r.Metric)
}

func TestParseMetric(t *testing.T) {
	m, err := forecast.ParseMetric("Revenue")
	require.NoError(t, err)
	assert.Equal(t, forecast.MetricRevenue, m)

	_, err = forecast.ParseMetric("profit")
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// SEASONALITY
// =============================================================================

// twoYears: 20 bookings/day in July, 10 otherwise, 2023-2024.
func twoYears() []generic.HistoricalDataPoint {
	start := generic.Date(2023, time.January, 1)
	var values []float64
	for d := start; d.Year() < 2025; d = d.AddDate(0, 0, 1) {
		if d.Month() == time.July {
			values = append(values, 20)
		} else {
			values = append(values, 10)
		}
	}
	return series(start, values...)
}

func TestDetectSeasonality_RequiresFullYear(t *testing.T) {
	assert.Empty(t, forecast.DetectSeasonality(series(jan1, repeat(10, 364)...), forecast.MetricBookings))
}

func TestDetectSeasonality_MonthlyMultipliers(t *testing.T) {
	history := twoYears()
	patterns := forecast.DetectSeasonality(history, forecast.MetricBookings)
	require.Len(t, patterns, 12)

	// 62 July days at 20, 669 other days at 10 (2024 is a leap year)
	overall := (62.0*20 + float64(len(history)-62)*10) / float64(len(history))

	july, ok := forecast.MultiplierFor(patterns, time.July)
	require.True(t, ok)
	assert.InDelta(t, 20/overall, july, 1e-9)

	jan, _ := forecast.MultiplierFor(patterns, time.January)
	assert.InDelta(t, 10/overall, jan, 1e-9)

	// Constant within each month: no variance, full confidence
	for _, p := range patterns {
		assert.Equal(t, 100.0, p.Confidence, p.Month.String())
	}
	assert.Equal(t, time.January, patterns[0].Month)
	assert.Equal(t, time.December, patterns[11].Month)

	peak, low, ok := forecast.Extremes(patterns)
	require.True(t, ok)
	assert.Equal(t, time.July, peak.Month)
	assert.Less(t, low.Multiplier, 1.0)
}

func TestDetectSeasonality_VarianceLowersConfidence(t *testing.T) {
	// Alternating 8/12: mean 10, variance 4 -> confidence 60
	values := make([]float64, 366)
	for i := range values {
		if i%2 == 0 {
			values[i] = 8
		} else {
			values[i] = 12
		}
	}
	patterns := forecast.DetectSeasonality(series(jan1, values...), forecast.MetricBookings)
	require.NotEmpty(t, patterns)

	for _, p := range patterns {
		assert.InDelta(t, 60.0, p.Confidence, 2.0, p.Month.String())
	}
}

func TestDetectSeasonality_ZeroSeries(t *testing.T) {
	patterns := forecast.DetectSeasonality(series(jan1, repeat(0, 365)...), forecast.MetricBookings)
	for _, p := range patterns {
		assert.Equal(t, 1.0, p.Multiplier)
		assert.Equal(t, 0.0, p.Confidence)
	}
}

// =============================================================================
// INSIGHTS
// =============================================================================

func TestInsights(t *testing.T) {
	f := forecast.Forecaster{}
	history := series(jan1, ramp(10, 1, 14)...)
	bookings := f.ForecastBookings(history, 7)
	revenue := f.ForecastRevenue(history, 7, nil)
	patterns := forecast.DetectSeasonality(twoYears(), forecast.MetricBookings)

	lines := forecast.Insights(bookings, revenue, patterns)
	joined := strings.Join(lines, "\n")

	assert.Contains(t, joined, "Bookings are trending up")
	assert.Contains(t, joined, "Revenue is trending up")
	assert.Contains(t, joined, "July is the strongest month")
	assert.NotContains(t, joined, "confidence is low")
}

func TestInsights_InsufficientHistory(t *testing.T) {
	f := forecast.Forecaster{}
	short := series(jan1, 1, 2, 3)
	lines := forecast.Insights(f.ForecastBookings(short, 1), f.ForecastRevenue(short, 1, nil), nil)

	assert.Contains(t, strings.Join(lines, "\n"), "Not enough history")
}
