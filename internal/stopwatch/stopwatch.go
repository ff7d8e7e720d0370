// Package stopwatch tracks total workout time from an absolute anchor.
package stopwatch

import (
	"context"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/clock"
)

// DefaultInterval is the update cadence used by Run when none is given.
const DefaultInterval = 100 * time.Millisecond

// Stopwatch reports elapsed = now - anchor while running, where the anchor is
// set to now - initial on Begin and on every Resume. Missed ticks therefore
// never lose or add time.
type Stopwatch struct {
	clock    clock.Clock
	onUpdate func(time.Duration)

	mu      sync.Mutex
	running bool
	anchor  time.Time
	frozen  time.Duration
}

// New returns a stopped Stopwatch at zero. onUpdate, if non-nil, receives the
// elapsed time on every Tick while running.
func New(c clock.Clock, onUpdate func(time.Duration)) *Stopwatch {
	return &Stopwatch{clock: c, onUpdate: onUpdate}
}

// Begin starts the stopwatch from initial, which carries progress restored
// from an earlier run.
func (s *Stopwatch) Begin(initial time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = max(0, initial)
	s.anchor = s.clock.Now().Add(-s.frozen)
	s.running = true
}

// Resume continues from the frozen value. It is a no-op while running.
func (s *Stopwatch) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.anchor = s.clock.Now().Add(-s.frozen)
	s.running = true
}

// Pause freezes and returns the elapsed time.
func (s *Stopwatch) Pause() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.frozen = s.elapsedLocked()
		s.running = false
	}
	return s.frozen
}

// Reset stops the stopwatch and zeroes it.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.frozen = 0
	s.anchor = time.Time{}
}

// Elapsed returns the current elapsed time.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return s.frozen
	}
	return s.elapsedLocked()
}

// Running reports whether the stopwatch is accumulating time.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// elapsedLocked recomputes elapsed from the anchor. If the clock went
// backwards past the last observed value, the anchor is moved so elapsed
// holds instead of shrinking.
func (s *Stopwatch) elapsedLocked() time.Duration {
	now := s.clock.Now()
	e := now.Sub(s.anchor)
	if e < s.frozen {
		s.anchor = now.Add(-s.frozen)
		return s.frozen
	}
	s.frozen = e
	return e
}

// Tick publishes the elapsed time to onUpdate while running.
func (s *Stopwatch) Tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	e := s.elapsedLocked()
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(e)
	}
}

// Run calls Tick every interval until ctx is cancelled.
func (s *Stopwatch) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := s.clock.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			s.Tick()
		}
	}
}
