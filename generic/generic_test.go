package generic_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/revenue-engine/generic"
)

func TestDateRange_Nights_RoundsUp(t *testing.T) {
	stay := generic.DateRange{
		CheckIn:  time.Date(2025, time.March, 1, 14, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, time.March, 3, 11, 0, 0, 0, time.UTC),
	}
	// 1 day 21 hours -> 2 nights
	assert.Equal(t, 2, stay.Nights())
	assert.Len(t, stay.NightDates(), 2)
}

func TestDateRange_Validate_RejectsZeroNights(t *testing.T) {
	d := generic.Date(2025, time.March, 1)
	err := generic.DateRange{CheckIn: d, CheckOut: d}.Validate()

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrValidation))

	var vErr *generic.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "dates", vErr.Field)
}

func TestCeilDays(t *testing.T) {
	assert.Equal(t, 35, generic.CeilDays(35*generic.Day))
	assert.Equal(t, 36, generic.CeilDays(35*generic.Day+time.Minute))
	assert.Equal(t, 0, generic.CeilDays(-time.Hour))
	assert.Equal(t, -1, generic.CeilDays(-36*time.Hour))
}

func TestPeriod_ContainsIsInclusive(t *testing.T) {
	p := generic.Period{Start: generic.Date(2025, time.December, 30), End: generic.Date(2026, time.January, 1)}

	assert.True(t, p.Contains(generic.Date(2025, time.December, 30)))
	assert.True(t, p.Contains(time.Date(2026, time.January, 1, 23, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(generic.Date(2026, time.January, 2)))
	assert.Len(t, p.Days(), 3)
}

func TestMoneyHelpers(t *testing.T) {
	price := decimal.NewFromInt(2000)

	assert.True(t, price.Mul(generic.DiscountFactor(decimal.NewFromInt(15))).Equal(decimal.NewFromInt(1700)))
	assert.True(t, price.Mul(generic.PremiumFactor(decimal.NewFromInt(10))).Equal(decimal.NewFromInt(2200)))
	assert.True(t, generic.RoundCurrency(generic.MustParseDecimal("1060.5")).Equal(decimal.NewFromInt(1061)))
	assert.True(t, generic.Clamp(decimal.NewFromInt(9000), decimal.NewFromInt(1500), decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(5000)))
	assert.True(t, generic.Clamp(decimal.NewFromInt(100), decimal.NewFromInt(1500), decimal.NewFromInt(5000)).Equal(decimal.NewFromInt(1500)))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, generic.IsClientError(generic.NewValidationError("adults", "must be at least 1")))
	assert.False(t, generic.IsClientError(generic.NewConfigurationError("matrix", "missing")))
	assert.True(t, generic.IsNotFound(generic.ErrCategoryNotFound))
	assert.True(t, generic.IsConflict(generic.ErrNotPending))
	assert.True(t, generic.IsConflict(generic.ErrBookingExists))
}
