package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// BOOKING - Reservation record owned by the storage layer
// =============================================================================

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// Booking is a reservation. The revenue engine reads bookings and may only
// move a pending booking to cancelled; it never creates or deletes them
// outside of the catalog/booking API.
type Booking struct {
	ID            BookingID
	CategoryID    CategoryID
	GuestName     string
	GuestEmail    string
	Status        BookingStatus
	PaymentStatus PaymentStatus
	DateFrom      time.Time
	DateTo        time.Time
	Total         decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time

	CancellationReason string
	CancelledAt        *time.Time
}

func (b Booking) IsPending() bool { return b.Status == StatusPending }
