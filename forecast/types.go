/*
Package forecast projects booking activity forward from a daily history.

PURPOSE:
  The analytics dashboard asks three questions of the same series: how many
  bookings, how much revenue, how full. Each answer is a ForecastResult built
  from an ordinary least squares line through the series, an R² confidence and
  a week-over-week trend.

KEY CONCEPTS:
  - Metric: which field of HistoricalDataPoint is being projected
  - ForecastResult: predicted value, confidence 0-100, trend, change percent
  - SeasonalPattern: per-month multiplier derived from a year or more of data

INSUFFICIENT DATA:
  Fewer than MinHistory points yields the zero result
  {predicted: 0, confidence: 0, trend: stable, changePercent: 0}.
  Fewer than MinSeasonalHistory points yields no seasonal patterns.

PURITY:
  Nothing here does I/O or holds state. Callers load history through
  generic.HistorySource and pass it in.

SEE ALSO:
  - regression.go: the closed-form fit
  - forecaster.go: bookings, revenue and occupancy forecasts
  - seasonal.go: monthly pattern detection
  - insights.go: dashboard sentences
*/
package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/revenue-engine/generic"
)

const (
	// MinHistory is the shortest series that produces a forecast.
	MinHistory = 7

	// MinSeasonalHistory is the shortest series that produces seasonal patterns.
	MinSeasonalHistory = 365

	// TrendWindow is the number of trailing points averaged on each side of
	// the trend comparison.
	TrendWindow = 7
)

// =============================================================================
// METRIC
// =============================================================================

type Metric string

const (
	MetricBookings  Metric = "bookings"
	MetricRevenue   Metric = "revenue"
	MetricOccupancy Metric = "occupancy"
)

var Metrics = []Metric{MetricBookings, MetricRevenue, MetricOccupancy}

func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Metrics {
		if m == known {
			return m, nil
		}
	}
	return "", generic.NewValidationError("metric", "unknown metric %q", s)
}

// Value extracts the metric from one data point.
func (m Metric) Value(p generic.HistoricalDataPoint) float64 {
	switch m {
	case MetricRevenue:
		return p.Revenue.InexactFloat64()
	case MetricOccupancy:
		return p.OccupancyRate
	default:
		return float64(p.BookingsCount)
	}
}

// Series extracts the metric from every point, preserving order.
func (m Metric) Series(history []generic.HistoricalDataPoint) []float64 {
	values := make([]float64, len(history))
	for i, p := range history {
		values[i] = m.Value(p)
	}
	return values
}

// =============================================================================
// TREND
// =============================================================================

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// =============================================================================
// RESULTS
// =============================================================================

// ForecastResult is recomputed on every call and never persisted.
type ForecastResult struct {
	Metric        Metric
	Predicted     float64 // never negative
	Confidence    float64 // 0-100
	Trend         Trend
	ChangePercent float64

	// DaysAhead and TargetDate describe the projected day. TargetDate is
	// zero when the history carried no dates.
	DaysAhead  int
	TargetDate time.Time
	Points     int
	Fit        LinearFit
}

// insufficient is the result for series shorter than MinHistory.
func insufficient(metric Metric, n, daysAhead int) ForecastResult {
	return ForecastResult{
		Metric:    metric,
		Trend:     TrendStable,
		DaysAhead: daysAhead,
		Points:    n,
	}
}

// SeasonalPattern is the relative strength of one calendar month.
type SeasonalPattern struct {
	Month      time.Month
	Multiplier float64
	Confidence float64 // 0-100
}

func (p SeasonalPattern) String() string {
	return fmt.Sprintf("%s x%.2f (%.0f%%)", p.Month, p.Multiplier, p.Confidence)
}
