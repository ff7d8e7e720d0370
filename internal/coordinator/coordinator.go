// Package coordinator runs a workout: it owns the session state machine, the
// rest countdowns, the stopwatch and persistence, and is the only API outer
// layers use to drive or read a workout.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/countdown"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/persist"
	"github.com/claude/liftlog/internal/stopwatch"
	"github.com/claude/liftlog/internal/workout"
)

// Persister is the persistence surface the coordinator needs.
// *persist.Gateway implements it.
type Persister interface {
	Save(snap persist.Snapshot)
	ForceSave(snap persist.Snapshot)
	Clear()
	Tick(current *persist.Snapshot)
	Load(ctx context.Context) (persist.Snapshot, bool)
}

// Options tunes a Coordinator. Zero values take the defaults.
type Options struct {
	Policy       workout.Policy
	TickInterval time.Duration
}

// Coordinator serializes every session mutation behind one mutex. Countdown
// completions are queued and drained on the next tick rather than applied
// from inside the countdown bookkeeping.
type Coordinator struct {
	clock   clock.Clock
	store   Persister
	notify  Notifier
	log     *slog.Logger
	metrics *metrics.Manager
	tick    time.Duration

	timers *countdown.Registry
	watch  *stopwatch.Stopwatch

	mu        sync.Mutex
	machine   *workout.Machine
	rest      *RestView
	queue     []func()
	restoring bool
	// resetWhileRestoring records a reset whose Clear was suppressed by an
	// in-flight restore.
	resetWhileRestoring bool
}

func New(store Persister, c clock.Clock, notifier Notifier, logger *slog.Logger, m *metrics.Manager, opts Options) *Coordinator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = countdown.TickInterval
	}
	co := &Coordinator{
		clock:   c,
		store:   store,
		notify:  notifier,
		log:     logger,
		metrics: m,
		tick:    opts.TickInterval,
		timers:  countdown.New(c),
		machine: workout.NewMachine(opts.Policy),
	}
	co.watch = stopwatch.New(c, co.onStopwatch)
	return co
}

// StartWorkout begins a workout over an explicit exercise list, abandoning
// any workout in progress. Catalog changes do not affect it.
func (c *Coordinator) StartWorkout(_ context.Context, exercises []models.Exercise) (View, error) {
	return c.start(exercises, c.machine.StartWorkout)
}

// StartCatalogWorkout begins a workout over the saved exercise list. Later
// catalog changes passed to SyncExercises are applied to it.
func (c *Coordinator) StartCatalogWorkout(_ context.Context, exercises []models.Exercise) (View, error) {
	return c.start(exercises, c.machine.StartCatalogWorkout)
}

func (c *Coordinator) start(exercises []models.Exercise, fn func([]models.Exercise, time.Time, string) ([]workout.Effect, error)) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	effects, err := fn(exercises, c.clock.Now().UTC(), uuid.NewString())
	if err != nil {
		return c.viewLocked(), err
	}
	c.applyLocked("start", effects)
	s := c.machine.Session()
	c.log.Info("workout started", "session", s.ID, "exercises", len(s.Exercises), "from_catalog", s.FromCatalog)
	return c.viewLocked(), nil
}

// CompleteSet finishes the current set and starts its rest.
func (c *Coordinator) CompleteSet(_ context.Context) (View, error) {
	return c.transition("complete_set", c.machine.CompleteSet)
}

// RestComplete ends the running rest early.
func (c *Coordinator) RestComplete(_ context.Context) (View, error) {
	return c.transition("skip_rest", c.machine.RestComplete)
}

// EndWorkout stops the workout without completing it. Elapsed time stays
// visible until the next reset.
func (c *Coordinator) EndWorkout(_ context.Context) (View, error) {
	return c.transition("end", c.machine.Pause)
}

// ResetWorkout returns to idle from any state.
func (c *Coordinator) ResetWorkout(_ context.Context) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restoring {
		c.resetWhileRestoring = true
	}
	c.applyLocked("reset", c.machine.Reset())
	return c.viewLocked()
}

// UpdateElapsed records an elapsed time reported by a client. Values behind
// the stopwatch are ignored.
func (c *Coordinator) UpdateElapsed(_ context.Context, elapsed time.Duration) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.machine.Session()
	if s.IsActive() && elapsed > c.watch.Elapsed() {
		c.watch.Begin(elapsed)
	}
	c.applyLocked("", c.machine.UpdateElapsed(elapsed))
	return c.viewLocked()
}

// SyncExercises applies a changed catalog to the active workout when it was
// started from the catalog.
func (c *Coordinator) SyncExercises(list []models.Exercise) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncElapsedLocked()
	c.applyLocked("sync_exercises", c.machine.ReplaceExercises(list))
}

// IdentityChanged reacts to sign-in changes. An active workout is mirrored
// to the remote store right away. While idle, the new user's workout is
// restored so it can be resumed from another device.
func (c *Coordinator) IdentityChanged(signedIn bool) {
	if !signedIn {
		return
	}
	c.mu.Lock()
	if c.restoring {
		c.mu.Unlock()
		return
	}
	s := c.machine.Session()
	if s.IsActive() {
		c.syncElapsedLocked()
		c.store.ForceSave(c.snapshotLocked())
		c.mu.Unlock()
		return
	}
	idle := s.Status == workout.StatusIdle
	c.mu.Unlock()

	if idle {
		c.Restore(context.Background())
	}
}

// Restore loads the persisted workout, if any, and applies it in one step.
// Writes are suppressed while it runs. A workout started while the load was
// in flight wins and is saved once the restore finishes. A reset during the
// load discards what was loaded.
func (c *Coordinator) Restore(ctx context.Context) {
	c.mu.Lock()
	if c.restoring || c.machine.Session().IsActive() {
		c.mu.Unlock()
		return
	}
	c.restoring = true
	c.resetWhileRestoring = false
	c.mu.Unlock()

	snap, ok := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoring = false

	if c.machine.Session().IsActive() {
		c.log.Info("workout started during restore, keeping it")
		c.store.ForceSave(c.snapshotLocked())
		return
	}
	if c.resetWhileRestoring {
		c.resetWhileRestoring = false
		c.log.Info("workout reset during restore, dropping stored workout")
		c.store.Clear()
		return
	}
	if !ok {
		return
	}
	s, err := snap.Session()
	if err != nil || !s.IsActive() {
		return
	}

	c.restoring = true
	effects, err := c.machine.Restore(s)
	if err == nil {
		c.applyLocked("restore", effects)
	}
	c.restoring = false
	if err != nil {
		c.log.Warn("restoring workout", "error", err)
		return
	}

	restored := c.machine.Session()
	if !restored.IsActive() {
		c.log.Warn("restored workout position no longer exists, completing it", "session", restored.ID)
		c.store.Clear()
		return
	}
	c.log.Info("workout restored",
		"session", restored.ID,
		"exercise", restored.ExerciseIndex,
		"set", restored.SetIndex,
		"phase", restored.Phase.String(),
		"elapsed", workout.FormatElapsed(restored.Elapsed),
	)
}

// Tick advances countdowns and the stopwatch, runs queued continuations and
// lets persistence flush throttled or periodic writes.
func (c *Coordinator) Tick() {
	c.timers.Advance()
	c.watch.Tick()
	c.drain()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.restoring {
		return
	}
	var current *persist.Snapshot
	if c.machine.Session().IsActive() {
		c.syncElapsedLocked()
		snap := c.snapshotLocked()
		current = &snap
	}
	c.store.Tick(current)
}

// Run calls Tick every tick interval until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	t := c.clock.NewTicker(c.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			c.Tick()
		}
	}
}

// State returns a consistent read-only view of the workout.
func (c *Coordinator) State() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Coordinator) transition(name string, fn func() ([]workout.Effect, error)) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncElapsedLocked()
	effects, err := fn()
	if err != nil {
		return c.viewLocked(), err
	}
	c.applyLocked(name, effects)
	return c.viewLocked(), nil
}

func (c *Coordinator) drain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) > 0 {
		fn := c.queue[0]
		c.queue = c.queue[1:]
		fn()
	}
}

func (c *Coordinator) enqueue(fn func()) {
	c.mu.Lock()
	c.queue = append(c.queue, fn)
	c.mu.Unlock()
}

// onRestTick runs from countdown ticks and only updates the rest display.
func (c *Coordinator) onRestTick(id string) countdown.TickFunc {
	return func(remaining int, progress float64) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.rest != nil && c.rest.TimerID == id {
			c.rest.RemainingSeconds = remaining
			c.rest.Progress = progress
		}
	}
}

// onRestComplete queues the rest transition; the continuation is dropped if
// the session has moved on from the countdown that fired.
func (c *Coordinator) onRestComplete(id string, phase workout.Phase) func() {
	return func() {
		c.enqueue(func() {
			if c.machine.Session().TimerID() != id {
				c.log.Debug("ignoring stale countdown", "timer", id)
				return
			}
			c.metrics.CounterRestsCompleted.WithLabelValues(phase.String()).Inc()
			c.notify.CountdownComplete(phase)

			c.syncElapsedLocked()
			effects, err := c.machine.RestComplete()
			if err != nil {
				c.log.Warn("completing rest", "timer", id, "error", err)
				return
			}
			c.applyLocked("rest_complete", effects)
		})
	}
}

// onStopwatch feeds whole-second stopwatch readings into the session.
func (c *Coordinator) onStopwatch(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyLocked("", c.machine.UpdateElapsed(elapsed.Truncate(time.Second)))
}

func (c *Coordinator) syncElapsedLocked() {
	if c.machine.Session().IsActive() {
		c.machine.UpdateElapsed(c.watch.Elapsed())
	}
}

func (c *Coordinator) applyLocked(name string, effects []workout.Effect) {
	if name != "" {
		c.metrics.CounterTransitions.WithLabelValues(name).Inc()
	}
	for _, e := range effects {
		c.applyEffectLocked(e)
	}
	active := 0.0
	if c.machine.Session().IsActive() {
		active = 1
	}
	c.metrics.GaugeWorkoutActive.Set(active)
}

func (c *Coordinator) applyEffectLocked(e workout.Effect) {
	switch e.Kind {
	case workout.EffectBeginStopwatch:
		c.watch.Begin(e.Elapsed)
	case workout.EffectPauseStopwatch:
		c.watch.Pause()
	case workout.EffectResetStopwatch:
		c.watch.Reset()
	case workout.EffectStartCountdown:
		c.rest = &RestView{
			TimerID:          e.TimerID,
			Phase:            e.Phase.String(),
			Duration:         e.Duration,
			RemainingSeconds: int((e.Duration + time.Second - 1) / time.Second),
			Progress:         100,
		}
		c.timers.Start(e.TimerID, e.Duration, c.onRestTick(e.TimerID), c.onRestComplete(e.TimerID, e.Phase))
	case workout.EffectStopCountdown:
		c.timers.Stop(e.TimerID)
		if c.rest != nil && c.rest.TimerID == e.TimerID {
			c.rest = nil
		}
	case workout.EffectStopAllCountdowns:
		c.timers.StopAll()
		c.rest = nil
	case workout.EffectSave:
		if !c.restoring {
			c.store.Save(c.snapshotLocked())
		}
	case workout.EffectForceSave:
		if !c.restoring {
			c.store.ForceSave(c.snapshotLocked())
		}
	case workout.EffectClearSnapshot:
		if !c.restoring {
			c.store.Clear()
		}
	case workout.EffectNotifyStarted:
		if first, ok := c.machine.Session().CurrentExercise(); ok {
			c.notify.WorkoutStarted(first)
		}
	case workout.EffectNotifyComplete:
		c.metrics.CounterWorkoutsCompleted.Inc()
		c.notify.WorkoutComplete(c.summaryLocked())
	default:
		panic(fmt.Sprintf("coordinator: unhandled effect %s", e.Kind))
	}
}

func (c *Coordinator) snapshotLocked() persist.Snapshot {
	now := c.clock.Now().UTC()
	c.machine.MarkSaved(now)
	return persist.FromSession(c.machine.Session(), now)
}

func (c *Coordinator) summaryLocked() Summary {
	s := c.machine.Session()
	sets := 0
	for _, ex := range s.Exercises {
		sets += ex.Sets
	}
	return Summary{
		SessionID: s.ID,
		Exercises: len(s.Exercises),
		Sets:      sets,
		Elapsed:   s.Elapsed,
	}
}
