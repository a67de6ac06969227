package forecast

import (
	"time"

	"github.com/warp/revenue-engine/generic"
)

// =============================================================================
// FORECASTER
// =============================================================================

// Default trend thresholds, in percent change week over week.
const (
	DefaultBookingsThreshold  = 5.0
	DefaultRevenueThreshold   = 10.0
	DefaultOccupancyThreshold = 5.0
)

// Forecaster holds the trend thresholds. The zero value uses the defaults.
type Forecaster struct {
	BookingsThreshold  float64
	RevenueThreshold   float64
	OccupancyThreshold float64
}

func (f Forecaster) threshold(m Metric) float64 {
	switch m {
	case MetricRevenue:
		if f.RevenueThreshold > 0 {
			return f.RevenueThreshold
		}
		return DefaultRevenueThreshold
	case MetricOccupancy:
		if f.OccupancyThreshold > 0 {
			return f.OccupancyThreshold
		}
		return DefaultOccupancyThreshold
	default:
		if f.BookingsThreshold > 0 {
			return f.BookingsThreshold
		}
		return DefaultBookingsThreshold
	}
}

// ForecastBookings projects bookingsCount daysAhead past the end of history.
func (f Forecaster) ForecastBookings(history []generic.HistoricalDataPoint, daysAhead int) ForecastResult {
	return f.forecast(MetricBookings, history, daysAhead)
}

// ForecastRevenue projects revenue and, when patterns cover the target month,
// scales the prediction by that month's multiplier.
func (f Forecaster) ForecastRevenue(history []generic.HistoricalDataPoint, daysAhead int, patterns []SeasonalPattern) ForecastResult {
	r := f.forecast(MetricRevenue, history, daysAhead)
	if r.Points < MinHistory || r.TargetDate.IsZero() {
		return r
	}
	if m, ok := MultiplierFor(patterns, r.TargetDate.Month()); ok {
		r.Predicted *= m
	}
	return r
}

// ForecastOccupancy projects the occupancy rate, clamped to [0, 100].
func (f Forecaster) ForecastOccupancy(history []generic.HistoricalDataPoint, daysAhead int) ForecastResult {
	r := f.forecast(MetricOccupancy, history, daysAhead)
	r.Predicted = clamp(r.Predicted, 0, 100)
	return r
}

// Forecast dispatches on metric. Patterns are only used for revenue.
func (f Forecaster) Forecast(metric Metric, history []generic.HistoricalDataPoint, daysAhead int, patterns []SeasonalPattern) ForecastResult {
	switch metric {
	case MetricRevenue:
		return f.ForecastRevenue(history, daysAhead, patterns)
	case MetricOccupancy:
		return f.ForecastOccupancy(history, daysAhead)
	default:
		return f.ForecastBookings(history, daysAhead)
	}
}

func (f Forecaster) forecast(metric Metric, history []generic.HistoricalDataPoint, daysAhead int) ForecastResult {
	n := len(history)
	if n < MinHistory {
		return insufficient(metric, n, daysAhead)
	}

	values := metric.Series(history)
	fit := FitLine(values)

	predicted := fit.At(float64(n + daysAhead))
	if predicted < 0 {
		predicted = 0
	}

	trend, change := classifyTrend(values, f.threshold(metric))

	var target time.Time
	if last := history[n-1].Date; !last.IsZero() {
		target = generic.StartOfDay(last).AddDate(0, 0, daysAhead)
	}

	return ForecastResult{
		Metric:        metric,
		Predicted:     predicted,
		Confidence:    clamp(fit.RSquared*100, 0, 100),
		Trend:         trend,
		ChangePercent: change,
		DaysAhead:     daysAhead,
		TargetDate:    target,
		Points:        n,
		Fit:           fit,
	}
}

// classifyTrend compares the mean of the last TrendWindow values with the
// mean of the (up to) TrendWindow values before them.
func classifyTrend(values []float64, threshold float64) (Trend, float64) {
	n := len(values)
	if n <= TrendWindow {
		return TrendStable, 0
	}
	recent := values[n-TrendWindow:]
	olderStart := n - 2*TrendWindow
	if olderStart < 0 {
		olderStart = 0
	}
	older := values[olderStart : n-TrendWindow]

	olderAvg := mean(older)
	if olderAvg == 0 {
		return TrendStable, 0
	}
	change := (mean(recent) - olderAvg) / olderAvg * 100

	switch {
	case change > threshold:
		return TrendUp, change
	case change < -threshold:
		return TrendDown, change
	default:
		return TrendStable, change
	}
}
