/*
Package cancellation expires pending bookings that were never paid.

PURPOSE:
  A booking is created pending and stays pending until payment confirms it.
  Abandoned checkouts would otherwise hold inventory forever. The policy
  defines three windows; a pending booking inside any of them is cancelled.

WINDOWS (highest priority first):
  1. past check-in        dateFrom  < now
  2. payment timeout      createdAt < now - PaymentTimeout   (1 hour)
  3. extended timeout     createdAt < now - ExtendedTimeout  (24 hours)

  Windows overlap: a booking two days old is inside both timeouts, and a
  stale booking may also be past check-in. The recorded reason is the
  highest-priority window that matches. Each booking is cancelled at most
  once per sweep and, through CancelIfPending, at most once ever.

STATE MACHINE:
  pending -> cancelled. Confirmed and completed bookings are never touched.

SEE ALSO:
  - sweeper.go: bounded worker pool that applies the policy
  - generic/store.go: CancelIfPending contract
*/
package cancellation

import (
	"time"

	"github.com/warp/revenue-engine/generic"
)

// Reasons recorded on cancelled bookings.
const (
	ReasonPastCheckIn     = "past check-in date"
	ReasonPaymentTimeout  = "payment timeout (1 hour)"
	ReasonExtendedTimeout = "extended timeout (24 hours)"
)

const (
	DefaultPaymentTimeout  = 1 * time.Hour
	DefaultExtendedTimeout = 24 * time.Hour
)

// =============================================================================
// POLICY
// =============================================================================

// Policy holds the window durations. The zero value uses the defaults.
type Policy struct {
	PaymentTimeout  time.Duration
	ExtendedTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		PaymentTimeout:  DefaultPaymentTimeout,
		ExtendedTimeout: DefaultExtendedTimeout,
	}
}

func (p Policy) withDefaults() Policy {
	if p.PaymentTimeout <= 0 {
		p.PaymentTimeout = DefaultPaymentTimeout
	}
	if p.ExtendedTimeout <= 0 {
		p.ExtendedTimeout = DefaultExtendedTimeout
	}
	return p
}

// Window is one cancellation rule expressed as a store query.
type Window struct {
	Priority int // 1 is highest
	Reason   string
	Filter   generic.PendingFilter
}

// Windows returns the rules evaluated at now, highest priority first.
func (p Policy) Windows(now time.Time) []Window {
	p = p.withDefaults()
	checkIn := now
	paymentCutoff := now.Add(-p.PaymentTimeout)
	extendedCutoff := now.Add(-p.ExtendedTimeout)

	return []Window{
		{Priority: 1, Reason: ReasonPastCheckIn, Filter: generic.PendingFilter{CheckInBefore: &checkIn}},
		{Priority: 2, Reason: ReasonPaymentTimeout, Filter: generic.PendingFilter{CreatedBefore: &paymentCutoff}},
		{Priority: 3, Reason: ReasonExtendedTimeout, Filter: generic.PendingFilter{CreatedBefore: &extendedCutoff}},
	}
}

// Evaluate returns the reason a booking should be cancelled at now, if any.
func (p Policy) Evaluate(b generic.Booking, now time.Time) (string, bool) {
	for _, w := range p.Windows(now) {
		if w.Filter.Matches(b) {
			return w.Reason, true
		}
	}
	return "", false
}
