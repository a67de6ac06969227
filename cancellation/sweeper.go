package cancellation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warp/revenue-engine/generic"
)

// DefaultWorkers bounds concurrent CancelIfPending calls per sweep.
const DefaultWorkers = 4

// =============================================================================
// SWEEPER
// =============================================================================

// Sweeper applies a Policy to a BookingStore.
//
// One sweep:
//  1. Query each window, highest priority first
//  2. Keep the first (highest-priority) reason per booking
//  3. Queue candidates to Workers goroutines
//  4. Each worker calls CancelIfPending; a lost race is skipped silently
//
// A failing window query or a failing write is recorded in Result.Errors
// and the sweep carries on.
type Sweeper struct {
	Store   generic.BookingStore
	Policy  Policy
	Workers int
	Clock   generic.Clock
}

func NewSweeper(store generic.BookingStore) *Sweeper {
	return &Sweeper{
		Store:   store,
		Policy:  DefaultPolicy(),
		Workers: DefaultWorkers,
		Clock:   generic.SystemClock{},
	}
}

// Candidate is a pending booking selected by a window.
type Candidate struct {
	Booking generic.Booking
	Reason  string
}

// Result summarizes one sweep.
type Result struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	CancelledCount int
	Cancelled      []Candidate
	Skipped        int // no longer pending when the worker got to them
	Errors         []string
}

// Candidates runs the window queries and deduplicates by priority.
// Query failures are returned as messages alongside whatever succeeded.
func (s *Sweeper) Candidates(ctx context.Context, now time.Time) ([]Candidate, []string) {
	var (
		candidates []Candidate
		errs       []string
		seen       = make(map[generic.BookingID]bool)
	)

	for _, w := range s.Policy.Windows(now) {
		bookings, err := s.Store.ListPending(ctx, w.Filter)
		if err != nil {
			errs = append(errs, fmt.Sprintf("query %q: %v", w.Reason, err))
			continue
		}
		for _, b := range bookings {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			candidates = append(candidates, Candidate{Booking: b, Reason: w.Reason})
		}
	}
	return candidates, errs
}

// Preview returns the bookings a sweep at now would cancel, without writing.
func (s *Sweeper) Preview(ctx context.Context, now time.Time) ([]Candidate, error) {
	if s.Store == nil {
		return nil, generic.ErrStoreRequired
	}
	candidates, errs := s.Candidates(ctx, now)
	if len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = errors.New(e)
		}
		return candidates, errors.Join(joined...)
	}
	return candidates, nil
}

// Run performs one sweep at now. A zero now means the sweeper's clock.
func (s *Sweeper) Run(ctx context.Context, now time.Time) Result {
	now = generic.NowOr(s.Clock, now)
	res := Result{StartedAt: now}

	if s.Store == nil {
		res.Errors = append(res.Errors, generic.ErrStoreRequired.Error())
		res.CompletedAt = now
		return res
	}

	candidates, errs := s.Candidates(ctx, now)
	res.Errors = append(res.Errors, errs...)

	workers := s.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	queue := make(chan Candidate)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range queue {
				ok, err := s.Store.CancelIfPending(ctx, c.Booking.ID, c.Reason, now)

				mu.Lock()
				switch {
				case err != nil:
					res.Errors = append(res.Errors, fmt.Sprintf("booking %s: %v", c.Booking.ID, err))
				case ok:
					res.CancelledCount++
					res.Cancelled = append(res.Cancelled, c)
				default:
					res.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

enqueue:
	for i, c := range candidates {
		select {
		case queue <- c:
		case <-ctx.Done():
			mu.Lock()
			res.Errors = append(res.Errors, fmt.Sprintf("sweep interrupted with %d bookings left: %v", len(candidates)-i, ctx.Err()))
			mu.Unlock()
			break enqueue
		}
	}
	close(queue)
	wg.Wait()

	res.CompletedAt = generic.NowOr(s.Clock, time.Time{})
	if res.CompletedAt.Before(res.StartedAt) {
		res.CompletedAt = res.StartedAt
	}

	if res.CancelledCount > 0 || len(res.Errors) > 0 {
		log.Printf("[Sweep] %d cancelled, %d skipped, %d errors (of %d candidates)",
			res.CancelledCount, res.Skipped, len(res.Errors), len(candidates))
	}
	return res
}
