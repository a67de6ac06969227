package generic

import "time"

// =============================================================================
// DATE RANGE - A stay, check-in to check-out
// =============================================================================

// DateRange is a stay. CheckOut is exclusive: a stay from the 1st to the
// 4th covers the nights of the 1st, 2nd and 3rd.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Nights returns ceil((CheckOut - CheckIn) in days).
func (r DateRange) Nights() int {
	return DaysUntil(r.CheckIn, r.CheckOut)
}

// Validate rejects stays shorter than one night.
func (r DateRange) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return NewValidationError("dates", "check-in and check-out are required")
	}
	if r.Nights() < 1 {
		return NewValidationError("dates", "stay must be at least one night (check-in %s, check-out %s)",
			r.CheckIn.Format("2006-01-02"), r.CheckOut.Format("2006-01-02"))
	}
	return nil
}

// NightDates returns the date of every night in the stay, CheckIn + i days.
func (r DateRange) NightDates() []time.Time {
	n := r.Nights()
	if n < 1 {
		return nil
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = r.CheckIn.AddDate(0, 0, i)
	}
	return dates
}

func (r DateRange) String() string {
	return r.CheckIn.Format("2006-01-02") + " -> " + r.CheckOut.Format("2006-01-02")
}

// =============================================================================
// PERIOD - Inclusive calendar window
// =============================================================================

// Period is an inclusive window of calendar days [Start, End].
// Used for analytics ranges and event pricing windows.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls on a day within [Start, End].
func (p Period) Contains(t time.Time) bool {
	d := StartOfDay(t)
	return !d.Before(StartOfDay(p.Start)) && !d.After(StartOfDay(p.End))
}

// Days returns all days in the period.
func (p Period) Days() []time.Time {
	var days []time.Time
	for current := StartOfDay(p.Start); !current.After(StartOfDay(p.End)); current = current.AddDate(0, 0, 1) {
		days = append(days, current)
	}
	return days
}

func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// TrailingDays returns the period of n days ending on (and including) end.
func TrailingDays(end time.Time, n int) Period {
	return Period{Start: StartOfDay(end).AddDate(0, 0, -(n - 1)), End: StartOfDay(end)}
}
