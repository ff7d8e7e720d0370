// Package countdown drives rest-timer countdowns from an absolute end time.
//
// Every countdown computes its end time once, when it starts. Ticks only
// recompute the remaining time against that anchor, so late or missed ticks
// never accumulate drift.
package countdown

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/clock"
)

// TickInterval is the default cadence for Run.
const TickInterval = 100 * time.Millisecond

// TickFunc receives the whole seconds left (rounded up) and the share of the
// duration still remaining, from 100 down to 0.
type TickFunc func(remainingSeconds int, progress float64)

// Registry owns a set of countdowns keyed by caller-supplied ids. Starting an
// id that is already running replaces the old countdown.
type Registry struct {
	clock clock.Clock

	mu     sync.Mutex
	timers map[string]*entry
}

type entry struct {
	id         string
	duration   time.Duration
	end        time.Time
	onTick     TickFunc
	onComplete func()
	done       bool
}

// New creates an empty Registry reading time from c.
func New(c clock.Clock) *Registry {
	return &Registry{
		clock:  c,
		timers: make(map[string]*entry),
	}
}

// Start begins a countdown of duration d under id, cancelling any countdown
// already registered with that id. A non-positive duration completes on the
// next Advance.
func (r *Registry) Start(id string, d time.Duration, onTick TickFunc, onComplete func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startLocked(id, d, onTick, onComplete)
}

// Ensure starts a countdown only when none is running under id. It reports
// whether a new countdown was started.
func (r *Registry) Ensure(id string, d time.Duration, onTick TickFunc, onComplete func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.timers[id]; ok {
		return false
	}
	r.startLocked(id, d, onTick, onComplete)
	return true
}

func (r *Registry) startLocked(id string, d time.Duration, onTick TickFunc, onComplete func()) {
	if d < 0 {
		d = 0
	}
	r.timers[id] = &entry{
		id:         id,
		duration:   d,
		end:        r.clock.Now().Add(d),
		onTick:     onTick,
		onComplete: onComplete,
	}
}

// Stop cancels the countdown registered under id. Unknown or already
// completed ids are ignored.
func (r *Registry) Stop(id string) {
	r.mu.Lock()
	delete(r.timers, id)
	r.mu.Unlock()
}

// StopAll cancels every countdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	clear(r.timers)
	r.mu.Unlock()
}

// IsRunning reports whether a countdown is registered under id.
func (r *Registry) IsRunning(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[id]
	return ok
}

// Remaining returns the time left on the countdown registered under id.
func (r *Registry) Remaining(id string) (time.Duration, bool) {
	r.mu.Lock()
	e, ok := r.timers[id]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	return max(0, e.end.Sub(r.clock.Now())), true
}

// Len returns the number of registered countdowns.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

type firing struct {
	e         *entry
	remaining int
	progress  float64
}

// Advance recomputes every countdown against the clock, calls onTick for
// each and onComplete for the ones that reached zero. Callbacks run without
// the registry lock held and may start or stop countdowns; a countdown
// stopped or replaced by an earlier callback in the same pass is skipped.
func (r *Registry) Advance() {
	now := r.clock.Now()

	r.mu.Lock()
	ids := make([]string, 0, len(r.timers))
	for id := range r.timers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fires := make([]firing, 0, len(ids))
	for _, id := range ids {
		e := r.timers[id]
		remaining := max(0, e.end.Sub(now))
		e.done = remaining <= 0
		fires = append(fires, firing{
			e:         e,
			remaining: ceilSeconds(remaining),
			progress:  progress(remaining, e.duration),
		})
	}
	r.mu.Unlock()

	for _, f := range fires {
		if !r.claim(f.e) {
			continue
		}
		if f.e.onTick != nil {
			f.e.onTick(f.remaining, f.progress)
		}
		if f.e.done && f.e.onComplete != nil {
			f.e.onComplete()
		}
	}
}

// claim reports whether e is still the live countdown for its id and, for a
// finished countdown, unregisters it so completion fires exactly once.
func (r *Registry) claim(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timers[e.id] != e {
		return false
	}
	if e.done {
		delete(r.timers, e.id)
	}
	return true
}

// Run calls Advance every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = TickInterval
	}
	t := r.clock.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			r.Advance()
		}
	}
}

func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func progress(remaining, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * float64(remaining) / float64(total)
	return min(100, max(0, p))
}
