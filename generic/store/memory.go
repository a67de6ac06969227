// Package store provides in-memory implementations of the generic store contracts.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/revenue-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	bookings map[generic.BookingID]generic.Booking
	history  []generic.HistoricalDataPoint
}

func NewMemory() *Memory {
	return &Memory{
		bookings: make(map[generic.BookingID]generic.Booking),
	}
}

// SaveBooking inserts or replaces a booking.
func (m *Memory) SaveBooking(_ context.Context, b generic.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

// CreateBooking inserts a booking; a taken id is ErrBookingExists.
func (m *Memory) CreateBooking(_ context.Context, b generic.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return generic.ErrBookingExists
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *Memory) GetBooking(_ context.Context, id generic.BookingID) (*generic.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, generic.ErrBookingNotFound
	}
	return &b, nil
}

// ListBookings returns bookings, newest first. An empty status lists all.
func (m *Memory) ListBookings(_ context.Context, status generic.BookingStatus, limit int) ([]generic.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	var result []generic.Booking
	for _, b := range m.bookings {
		if status == "" || b.Status == status {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) ListPending(_ context.Context, filter generic.PendingFilter) ([]generic.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Booking
	for _, b := range m.bookings {
		if filter.Matches(b) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// CancelIfPending is the compare-and-swap: the status check and the write
// happen under one lock.
func (m *Memory) CancelIfPending(_ context.Context, id generic.BookingID, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return false, generic.ErrBookingNotFound
	}
	if !b.IsPending() {
		return false, nil
	}

	cancelledAt := at
	b.Status = generic.StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &cancelledAt
	b.UpdatedAt = at
	m.bookings[id] = b
	return true, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// AppendHistory adds points to the series, keeping it ordered by date.
func (m *Memory) AppendHistory(points ...generic.HistoricalDataPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range points {
		// Binary search for insertion point
		i := sort.Search(len(m.history), func(i int) bool {
			return m.history[i].Date.After(p.Date)
		})
		m.history = append(m.history, generic.HistoricalDataPoint{})
		copy(m.history[i+1:], m.history[i:])
		m.history[i] = p
	}
}

// SaveDailyStats upserts points by day.
func (m *Memory) SaveDailyStats(_ context.Context, points []generic.HistoricalDataPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range points {
		day := generic.StartOfDay(p.Date.UTC())
		p.Date = day
		i := sort.Search(len(m.history), func(i int) bool {
			return !m.history[i].Date.Before(day)
		})
		if i < len(m.history) && m.history[i].Date.Equal(day) {
			m.history[i] = p
			continue
		}
		m.history = append(m.history, generic.HistoricalDataPoint{})
		copy(m.history[i+1:], m.history[i:])
		m.history[i] = p
	}
	return nil
}

// Reset drops all bookings and history.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bookings = make(map[generic.BookingID]generic.Booking)
	m.history = nil
	return nil
}

func (m *Memory) LoadHistory(_ context.Context, period generic.Period) ([]generic.HistoricalDataPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.HistoricalDataPoint
	for _, p := range m.history {
		if period.IsZero() || period.Contains(p.Date) {
			result = append(result, p)
		}
	}
	return result, nil
}

var (
	_ generic.BookingStore  = (*Memory)(nil)
	_ generic.HistorySource = (*Memory)(nil)
)
