// Package persist writes workout snapshots to local storage and, for a
// signed-in user, mirrors them to the remote session store.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
)

const (
	DefaultThrottle      = 2 * time.Second
	DefaultPeriodic      = 10 * time.Second
	DefaultRemoteTimeout = 5 * time.Second
)

// LocalStore is durable key/value text storage.
type LocalStore interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// RemoteStore keeps at most one active session record per user.
type RemoteStore interface {
	SaveActiveSession(ctx context.Context, s models.RemoteSession) error
	DeactivateSessions(ctx context.Context, userID string) error
	// LoadActiveSession returns nil when the user has no active session.
	LoadActiveSession(ctx context.Context, userID string) (*models.RemoteSession, error)
}

// Identity reports the signed-in user.
type Identity interface {
	CurrentUser() (userID string, signedIn bool)
}

// Options tunes a Gateway. Zero values take the defaults.
type Options struct {
	Throttle      time.Duration
	Periodic      time.Duration
	RemoteTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Throttle <= 0 {
		o.Throttle = DefaultThrottle
	}
	if o.Periodic <= 0 {
		o.Periodic = DefaultPeriodic
	}
	if o.RemoteTimeout <= 0 {
		o.RemoteTimeout = DefaultRemoteTimeout
	}
	return o
}

type jobKind int

const (
	jobWrite jobKind = iota
	jobClear
	jobBarrier
)

type job struct {
	kind     jobKind
	snap     Snapshot
	userID   string
	signedIn bool
	done     chan struct{}
}

// Gateway serializes all storage I/O onto one writer goroutine so callers
// never wait on storage and jobs land in the order they were requested.
type Gateway struct {
	local   LocalStore
	remote  RemoteStore
	ident   Identity
	clock   clock.Clock
	log     *slog.Logger
	metrics *metrics.Manager
	opts    Options

	mu        sync.Mutex
	lastWrite time.Time
	pending   *Snapshot
	queue     []job
	closed    bool

	wake    chan struct{}
	stopped chan struct{}
}

// New starts a Gateway. remote and ident may be nil for local-only
// persistence.
func New(local LocalStore, remote RemoteStore, ident Identity, c clock.Clock, logger *slog.Logger, m *metrics.Manager, opts Options) *Gateway {
	g := &Gateway{
		local:   local,
		remote:  remote,
		ident:   ident,
		clock:   c,
		log:     logger,
		metrics: m,
		opts:    opts.withDefaults(),
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go g.run()
	return g
}

// Save writes snap unless a write happened within the throttle window. In
// that case snap becomes the pending snapshot, replacing any earlier one,
// and is written by Tick once the window has passed.
func (g *Gateway) Save(snap Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if g.lastWrite.IsZero() || now.Sub(g.lastWrite) >= g.opts.Throttle {
		g.writeLocked(snap, now)
		return
	}
	if g.pending != nil {
		g.metrics.CounterCoalescedSaves.Inc()
	}
	g.pending = &snap
	g.log.Debug("snapshot save throttled", "since_last_write", now.Sub(g.lastWrite))
}

// ForceSave writes snap immediately and drops any pending snapshot.
func (g *Gateway) ForceSave(snap Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writeLocked(snap, g.clock.Now())
}

// Clear drops any pending snapshot and removes the stored one.
func (g *Gateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
	userID, signedIn := g.user()
	g.enqueueLocked(job{kind: jobClear, userID: userID, signedIn: signedIn})
}

// Tick flushes a pending snapshot whose throttle window has passed. While a
// workout is active (current != nil) it also writes current whenever no
// write has happened for the periodic interval.
func (g *Gateway) Tick(current *Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	since := now.Sub(g.lastWrite)
	switch {
	case g.pending != nil && since >= g.opts.Throttle:
		g.writeLocked(*g.pending, now)
	case current != nil && since >= g.opts.Periodic:
		g.writeLocked(*current, now)
	}
}

// HasPending reports whether a throttled snapshot is waiting to be written.
func (g *Gateway) HasPending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Sync blocks until every job queued before the call has been handled.
func (g *Gateway) Sync() {
	done := make(chan struct{})
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.enqueueLocked(job{kind: jobBarrier, done: done})
	g.mu.Unlock()
	<-done
}

// Close flushes any pending snapshot, drains the queue and stops the writer.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		<-g.stopped
		return
	}
	if g.pending != nil {
		g.writeLocked(*g.pending, g.clock.Now())
	}
	g.closed = true
	g.mu.Unlock()

	g.signal()
	<-g.stopped
}

// Load returns the stored snapshot. A local record that fails validation is
// removed and treated as absent. Without a local record, a signed-in user's
// active remote session is used.
func (g *Gateway) Load(ctx context.Context) (Snapshot, bool) {
	raw, ok, err := g.local.GetItem(ctx, StorageKey)
	if err != nil {
		g.log.Warn("reading local workout snapshot", "error", err)
	}
	if ok {
		snap, err := Decode(raw)
		if err != nil {
			g.log.Warn("discarding stored workout snapshot", "error", err)
			g.metrics.CounterDiscardedSnapshots.Inc()
			if err := g.local.RemoveItem(ctx, StorageKey); err != nil {
				g.log.Warn("removing corrupt workout snapshot", "error", err)
			}
			return Snapshot{}, false
		}
		return snap, true
	}

	userID, signedIn := g.user()
	if !signedIn || g.remote == nil {
		return Snapshot{}, false
	}
	rctx, cancel := context.WithTimeout(ctx, g.opts.RemoteTimeout)
	defer cancel()
	rs, err := g.remote.LoadActiveSession(rctx, userID)
	if err != nil {
		g.log.Warn("loading remote workout session", "user", userID, "error", err)
		return Snapshot{}, false
	}
	if rs == nil {
		return Snapshot{}, false
	}
	snap := FromRemote(*rs)
	if err := snap.Validate(); err != nil {
		g.log.Warn("ignoring remote workout session", "user", userID, "error", err)
		g.metrics.CounterDiscardedSnapshots.Inc()
		return Snapshot{}, false
	}
	return snap, true
}

func (g *Gateway) user() (string, bool) {
	if g.ident == nil {
		return "", false
	}
	return g.ident.CurrentUser()
}

func (g *Gateway) writeLocked(snap Snapshot, now time.Time) {
	g.pending = nil
	g.lastWrite = now
	userID, signedIn := g.user()
	g.enqueueLocked(job{kind: jobWrite, snap: snap, userID: userID, signedIn: signedIn})
}

func (g *Gateway) enqueueLocked(j job) {
	if g.closed {
		g.log.Debug("persistence closed, dropping job", "kind", j.kind)
		if j.done != nil {
			close(j.done)
		}
		return
	}
	g.queue = append(g.queue, j)
	g.metrics.GaugeWriteQueue.Set(float64(len(g.queue)))
	g.signal()
}

func (g *Gateway) signal() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

func (g *Gateway) run() {
	defer close(g.stopped)
	for range g.wake {
		for {
			g.mu.Lock()
			if len(g.queue) == 0 {
				closed := g.closed
				g.mu.Unlock()
				if closed {
					return
				}
				break
			}
			j := g.queue[0]
			g.queue = g.queue[1:]
			g.metrics.GaugeWriteQueue.Set(float64(len(g.queue)))
			g.mu.Unlock()

			g.handle(j)
		}
	}
}

func (g *Gateway) handle(j job) {
	switch j.kind {
	case jobWrite:
		g.write(j)
	case jobClear:
		g.clear(j)
	case jobBarrier:
		close(j.done)
	}
}

func (g *Gateway) write(j job) {
	ctx := context.Background()

	var localErr, remoteErr error
	raw, err := Encode(j.snap)
	if err != nil {
		localErr = err
	} else {
		start := time.Now()
		localErr = g.local.SetItem(ctx, StorageKey, raw)
		g.metrics.HistSnapshotDuration.WithLabelValues(metrics.TargetLocal).Observe(time.Since(start).Seconds())
	}
	g.metrics.CounterSnapshotWrites.WithLabelValues(metrics.TargetLocal, metrics.Result(localErr)).Inc()

	if j.signedIn && g.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, g.opts.RemoteTimeout)
		start := time.Now()
		remoteErr = g.remote.SaveActiveSession(rctx, j.snap.Remote(j.userID))
		cancel()
		g.metrics.HistSnapshotDuration.WithLabelValues(metrics.TargetRemote).Observe(time.Since(start).Seconds())
		g.metrics.CounterSnapshotWrites.WithLabelValues(metrics.TargetRemote, metrics.Result(remoteErr)).Inc()
	}

	if err := multierr.Combine(localErr, remoteErr); err != nil {
		g.log.Warn("saving workout snapshot", "session", j.snap.SessionID, "error", err)
	}
}

func (g *Gateway) clear(j job) {
	ctx := context.Background()

	localErr := g.local.RemoveItem(ctx, StorageKey)
	g.metrics.CounterSnapshotClears.WithLabelValues(metrics.TargetLocal, metrics.Result(localErr)).Inc()

	var remoteErr error
	if j.signedIn && g.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, g.opts.RemoteTimeout)
		remoteErr = g.remote.DeactivateSessions(rctx, j.userID)
		cancel()
		g.metrics.CounterSnapshotClears.WithLabelValues(metrics.TargetRemote, metrics.Result(remoteErr)).Inc()
	}

	if err := multierr.Combine(localErr, remoteErr); err != nil {
		g.log.Warn("clearing workout snapshot", "error", err)
	}
}
