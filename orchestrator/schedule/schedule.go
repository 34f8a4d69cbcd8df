/*
 * VSP core - orchestrator rate scheduler.
 *
 * Copyright 2026, VSP core contributors.
 */

// Package schedule drives an Orchestrator.Tick at a configured rate: a
// background goroutine ticks on a time.Ticker and feeds a done/enable
// channel pair.
package schedule

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Mode selects how the scheduler paces ticks.
type Mode int

const (
	// FixedRate ticks on a fixed period measured from the previous tick's
	// start. Ticks run one at a time on the scheduler goroutine and never
	// overlap: a tick that runs longer than period delays the next one,
	// and the periods it overran are dropped, not made up.
	FixedRate Mode = iota
	// FixedDelay waits period after each tick *completes* before
	// starting the next, so ticks never overlap.
	FixedDelay
	// BestEffort runs back-to-back as fast as TickFunc allows, with no
	// enforced period.
	BestEffort
)

// TickFunc is invoked once per scheduled tick.
type TickFunc func(ctx context.Context) error

// Stats reports scheduler timing in O(1) amortized space via Welford's
// running-variance algorithm: no per-tick allocation, no retained
// history.
type Stats struct {
	Min          time.Duration
	Max          time.Duration
	Avg          time.Duration
	JitterStdDev float64
	Miss         uint64
	count        uint64
	m2           float64 // Welford running sum of squared deviations, in nanoseconds^2
}

func (s *Stats) observe(d time.Duration, missed bool) {
	s.count++
	n := float64(d)
	if s.count == 1 || d < s.Min {
		s.Min = d
	}
	if s.count == 1 || d > s.Max {
		s.Max = d
	}
	avgNanos := float64(s.Avg)
	delta := n - avgNanos
	avgNanos += delta / float64(s.count)
	delta2 := n - avgNanos
	s.m2 += delta * delta2
	s.Avg = time.Duration(avgNanos)
	if missed {
		s.Miss++
	}
}

// stdDev returns the population standard deviation of observed tick
// durations in nanoseconds.
func (s *Stats) stdDev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count))
}

// Scheduler calls a TickFunc at a configured rate and mode, reporting
// timing Stats. A background goroutine owns a ticker plus an enable/done
// channel pair; callers toggle it with Start/Stop and tear it down with
// Shutdown.
type Scheduler struct {
	mode   Mode
	period time.Duration
	fn     TickFunc

	mu    sync.Mutex
	stats Stats

	enable chan bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New returns a Scheduler in the given mode at hz ticks/sec (ignored for
// BestEffort). The scheduler is created stopped; call Start to begin.
func New(mode Mode, hz float64, fn TickFunc) *Scheduler {
	var period time.Duration
	if hz > 0 {
		period = time.Duration(float64(time.Second) / hz)
	}
	s := &Scheduler{
		mode:   mode,
		period: period,
		fn:     fn,
		enable: make(chan bool),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Start enables ticking.
func (s *Scheduler) Start() { s.enable <- true }

// Stop pauses ticking; Stats are preserved.
func (s *Scheduler) Stop() { s.enable <- false }

// Shutdown stops the scheduler's background goroutine permanently.
func (s *Scheduler) Shutdown() {
	close(s.done)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("schedule: timed out waiting for scheduler to stop")
	}
}

// Stats returns a copy of the scheduler's current timing statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.JitterStdDev = s.stats.stdDev()
	return st
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	running := false
	ctx := context.Background()

	switch s.mode {
	case BestEffort:
		s.runBestEffort(ctx, &running)
	default:
		s.runTicked(ctx, &running)
	}
}

func (s *Scheduler) runBestEffort(ctx context.Context, running *bool) {
	for {
		if !*running {
			select {
			case *running = <-s.enable:
			case <-s.done:
				return
			}
			continue
		}
		select {
		case *running = <-s.enable:
		case <-s.done:
			return
		default:
			s.fireOnce(ctx)
		}
	}
}

func (s *Scheduler) runTicked(ctx context.Context, running *bool) {
	period := s.period
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if *running {
				s.fireOnce(ctx)
				if s.mode == FixedDelay {
					// Restart the period from this tick's completion,
					// discarding any tick that came due while it ran.
					select {
					case <-ticker.C:
					default:
					}
					ticker.Reset(period)
				}
			}
		case *running = <-s.enable:
			if *running {
				ticker.Reset(period)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) fireOnce(ctx context.Context) {
	start := time.Now()
	err := s.fn(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	s.stats.observe(elapsed, err != nil || (s.period > 0 && elapsed > s.period))
	s.mu.Unlock()
}
