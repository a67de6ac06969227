package generic

import (
	"math"
	"time"
)

// =============================================================================
// CLOCK - Injected "now" so engines stay pure
// =============================================================================

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Used by tests and previews.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// NowOr returns t, or the clock's now when t is zero.
func NowOr(c Clock, t time.Time) time.Time {
	if !t.IsZero() {
		return t
	}
	if c == nil {
		return SystemClock{}.Now()
	}
	return c.Now()
}

// =============================================================================
// DAY ARITHMETIC
// =============================================================================

const Day = 24 * time.Hour

// CeilDays converts a duration into whole days, rounding up.
// Negative durations round toward zero (-1.5 days -> -1).
func CeilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(Day)))
}

// DaysUntil returns ceil((to - from) in days).
func DaysUntil(from, to time.Time) int {
	return CeilDays(to.Sub(from))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func StartOfMonth(year int, month time.Month) time.Time {
	return Date(year, month, 1)
}

func EndOfMonth(year int, month time.Month) time.Time {
	return Date(year, month+1, 1).AddDate(0, 0, -1)
}
