/*
store.go - Persistence contracts consumed by the engines

PURPOSE:
  Defines the interface between the revenue engines and the database.
  Pricing and forecasting never touch storage directly; callers load inputs
  and pass them in. Only the cancellation sweep reads and writes bookings,
  and it does so through BookingStore.

KEY INTERFACES:
  BookingStore:  pending-booking queries + conditional cancel
  HistorySource: daily analytics series for the forecaster

CONDITIONAL CANCEL:
  CancelIfPending is a compare-and-swap keyed on status='pending'. Two
  overlapping sweeps may both read the same pending booking; exactly one
  of them wins the write. The loser gets (false, nil) and moves on.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:     SQLite
  - store/postgres/postgres.go: PostgreSQL (pgx)
  - generic/store/memory.go:    In-memory for testing

SEE ALSO:
  - cancellation/sweeper.go: the only writer
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// BOOKING STORE
// =============================================================================

// PendingFilter narrows a pending-booking query. Nil fields are ignored;
// set fields are combined with AND.
type PendingFilter struct {
	CreatedBefore *time.Time
	CheckInBefore *time.Time
}

// Matches applies the filter to a booking in memory.
func (f PendingFilter) Matches(b Booking) bool {
	if !b.IsPending() {
		return false
	}
	if f.CreatedBefore != nil && !b.CreatedAt.Before(*f.CreatedBefore) {
		return false
	}
	if f.CheckInBefore != nil && !b.DateFrom.Before(*f.CheckInBefore) {
		return false
	}
	return true
}

// BookingStore persists bookings.
type BookingStore interface {
	SaveBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id BookingID) (*Booking, error)

	// ListPending returns pending bookings matching the filter, oldest first.
	ListPending(ctx context.Context, filter PendingFilter) ([]Booking, error)

	// CancelIfPending moves a booking from pending to cancelled and records
	// reason and at. Returns false (no error) if the booking exists but is
	// no longer pending; ErrBookingNotFound if it doesn't exist.
	CancelIfPending(ctx context.Context, id BookingID, reason string, at time.Time) (bool, error)
}

// =============================================================================
// HISTORY SOURCE
// =============================================================================

// HistorySource loads the daily analytics series, ordered by date.
type HistorySource interface {
	LoadHistory(ctx context.Context, period Period) ([]HistoricalDataPoint, error)
}
