/*
scheduler.go - Automated cancellation scheduler

PURPOSE:
  Periodically runs the auto-cancellation sweep so that unpaid and stale
  pending bookings release their inventory without an operator.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick is one Sweeper.Run, recorded as a cancellation run
  - Ticks never overlap: a slow sweep delays the next tick
  - Several replicas may run schedulers against one PostgreSQL store;
    the conditional cancel keeps their sweeps from double-cancelling

CONFIGURATION:
  - Interval: How often to sweep (default: 15 minutes)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCancellationScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunCancellations endpoint (manual sweep)
  - cancellation/sweeper.go: the sweep itself
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

const DefaultSweepInterval = 15 * time.Minute

// CancellationScheduler runs cancellation sweeps on a ticker.
type CancellationScheduler struct {
	Handler  *Handler
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex

	// lastRun has its own lock: Stop holds mu while waiting on a sweep.
	lastMu  sync.Mutex
	lastRun time.Time
}

// NewCancellationScheduler creates a new scheduler.
func NewCancellationScheduler(handler *Handler) *CancellationScheduler {
	return &CancellationScheduler{
		Handler:  handler,
		Interval: DefaultSweepInterval,
		Enabled:  true,
	}
}

// Start begins the scheduler.
func (cs *CancellationScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if cs.ticker != nil {
		return
	}

	cs.ticker = time.NewTicker(cs.Interval)
	cs.stop = make(chan bool)
	cs.wg.Add(1)

	go cs.run()

	log.Printf("[Scheduler] Started with sweep interval: %v", cs.Interval)
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (cs *CancellationScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker != nil {
		cs.ticker.Stop()
		close(cs.stop)
		cs.wg.Wait()
		cs.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (cs *CancellationScheduler) run() {
	defer cs.wg.Done()

	// Run immediately on start
	cs.sweep()

	for {
		select {
		case <-cs.ticker.C:
			cs.sweep()
		case <-cs.stop:
			return
		}
	}
}

func (cs *CancellationScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), cs.Interval)
	defer cancel()

	run, result, err := cs.Handler.runSweep(ctx, "scheduler")

	cs.lastMu.Lock()
	cs.lastRun = result.StartedAt
	cs.lastMu.Unlock()

	if err != nil {
		log.Printf("[Scheduler] Sweep %s failed: %v", run.ID, err)
		return
	}
	if result.CancelledCount > 0 || len(result.Errors) > 0 {
		log.Printf("[Scheduler] Sweep %s: %d cancelled, %d skipped, %d errors",
			run.ID, result.CancelledCount, result.Skipped, len(result.Errors))
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (cs *CancellationScheduler) RunNow() {
	cs.sweep()
}

// LastRun returns when the most recent sweep started.
func (cs *CancellationScheduler) LastRun() time.Time {
	cs.lastMu.Lock()
	defer cs.lastMu.Unlock()
	return cs.lastRun
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (cs *CancellationScheduler) GetNextRunTime() time.Time {
	last := cs.LastRun()
	if last.IsZero() {
		return time.Now().Add(cs.Interval)
	}
	return last.Add(cs.Interval)
}
