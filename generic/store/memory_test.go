package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/revenue-engine/generic"
	"github.com/warp/revenue-engine/generic/store"
)

var created = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func booking(id string, status generic.BookingStatus, ago time.Duration) generic.Booking {
	return generic.Booking{
		ID:            generic.BookingID(id),
		CategoryID:    "deluxe",
		Status:        status,
		PaymentStatus: generic.PaymentUnpaid,
		CreatedAt:     created.Add(-ago),
	}
}

func TestMemory_ListBookings_NewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.SaveBooking(ctx, booking("old", generic.StatusPending, 3*time.Hour)))
	require.NoError(t, mem.SaveBooking(ctx, booking("new", generic.StatusConfirmed, time.Hour)))
	require.NoError(t, mem.SaveBooking(ctx, booking("mid", generic.StatusPending, 2*time.Hour)))

	all, err := mem.ListBookings(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, generic.BookingID("new"), all[0].ID)
	assert.Equal(t, generic.BookingID("old"), all[2].ID)

	pending, err := mem.ListBookings(ctx, generic.StatusPending, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, generic.BookingID("mid"), pending[0].ID)
}

func TestMemory_CancelIfPending(t *testing.T) {
	// GIVEN: One pending and one confirmed booking
	// WHEN: Both are cancelled, then the pending one again
	// THEN: Only the first pending cancel wins

	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.SaveBooking(ctx, booking("a", generic.StatusPending, time.Hour)))
	require.NoError(t, mem.SaveBooking(ctx, booking("b", generic.StatusConfirmed, time.Hour)))

	ok, err := mem.CancelIfPending(ctx, "a", "payment timeout (1 hour)", created)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mem.CancelIfPending(ctx, "a", "payment timeout (1 hour)", created)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = mem.CancelIfPending(ctx, "b", "payment timeout (1 hour)", created)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = mem.CancelIfPending(ctx, "missing", "x", created)
	assert.ErrorIs(t, err, generic.ErrBookingNotFound)

	got, err := mem.GetBooking(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, generic.StatusCancelled, got.Status)
	assert.Equal(t, "payment timeout (1 hour)", got.CancellationReason)
	require.NotNil(t, got.CancelledAt)
}

func TestMemory_CreateBooking_RejectsTakenID(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.CreateBooking(ctx, booking("a", generic.StatusPending, time.Hour)))

	ok, err := mem.CancelIfPending(ctx, "a", "payment timeout (1 hour)", created)
	require.NoError(t, err)
	require.True(t, ok)

	err = mem.CreateBooking(ctx, booking("a", generic.StatusPending, 0))
	assert.ErrorIs(t, err, generic.ErrBookingExists)

	got, err := mem.GetBooking(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, generic.StatusCancelled, got.Status)
}

func TestMemory_SaveDailyStats_UpsertsByDay(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	day := func(d int) time.Time { return generic.Date(2025, time.January, d) }
	require.NoError(t, mem.SaveDailyStats(ctx, []generic.HistoricalDataPoint{
		{Date: day(3), BookingsCount: 3, Revenue: decimal.NewFromInt(300)},
		{Date: day(1), BookingsCount: 1, Revenue: decimal.NewFromInt(100)},
	}))
	require.NoError(t, mem.SaveDailyStats(ctx, []generic.HistoricalDataPoint{
		{Date: day(2), BookingsCount: 2, Revenue: decimal.NewFromInt(200)},
		{Date: day(3).Add(5 * time.Hour), BookingsCount: 30, Revenue: decimal.NewFromInt(3000)},
	}))

	all, err := mem.LoadHistory(ctx, generic.Period{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 30}, []int{all[0].BookingsCount, all[1].BookingsCount, all[2].BookingsCount})

	window, err := mem.LoadHistory(ctx, generic.Period{Start: day(2), End: day(3)})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	require.NoError(t, mem.Reset(ctx))
	all, err = mem.LoadHistory(ctx, generic.Period{})
	require.NoError(t, err)
	assert.Empty(t, all)
	list, err := mem.ListBookings(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
