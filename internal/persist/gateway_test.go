package persist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/persist/persisttest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	clock   *clock.Fake
	local   *persisttest.MemoryStore
	remote  *persisttest.MemoryRemote
	metrics *metrics.Manager
	gw      *Gateway
}

func newFixture(t *testing.T, ident Identity) *fixture {
	t.Helper()
	f := &fixture{
		clock:   clock.NewFake(epoch),
		local:   persisttest.NewMemoryStore(),
		remote:  persisttest.NewMemoryRemote(),
		metrics: metrics.NewTestManager(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.gw = New(f.local, f.remote, ident, f.clock, logger, f.metrics, Options{})
	t.Cleanup(f.gw.Close)
	return f
}

func snapshotWithElapsed(ms int64) Snapshot {
	s := FromSession(activeSession(), epoch)
	s.ElapsedMs = ms
	return s
}

func (f *fixture) load(t *testing.T) (Snapshot, bool) {
	t.Helper()
	f.gw.Sync()
	return f.gw.Load(context.Background())
}

// TestGatewayRoundTrip verifies a forced save can be loaded back unchanged.
func TestGatewayRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	snap := snapshotWithElapsed(12345)

	f.gw.ForceSave(snap)
	got, ok := f.load(t)
	require.True(t, ok)
	assert.Equal(t, snap, got)
}

// TestGatewayLoadEmpty verifies an empty store loads as absent.
func TestGatewayLoadEmpty(t *testing.T) {
	f := newFixture(t, nil)
	_, ok := f.load(t)
	assert.False(t, ok)
}

// TestGatewayThrottleCoalesces verifies two saves inside the throttle window
// produce one write carrying the latest snapshot.
func TestGatewayThrottleCoalesces(t *testing.T) {
	f := newFixture(t, nil)
	f.gw.ForceSave(snapshotWithElapsed(1000))
	f.gw.Sync()
	require.Equal(t, 1, f.local.Writes())

	f.clock.Advance(500 * time.Millisecond)
	f.gw.Save(snapshotWithElapsed(2000))
	f.clock.Advance(500 * time.Millisecond)
	f.gw.Save(snapshotWithElapsed(3000))
	f.gw.Sync()
	assert.Equal(t, 1, f.local.Writes(), "throttled saves wrote early")
	assert.True(t, f.gw.HasPending())

	f.clock.Advance(time.Second)
	f.gw.Tick(nil)
	got, ok := f.load(t)
	require.True(t, ok)
	assert.Equal(t, 2, f.local.Writes())
	assert.Equal(t, int64(3000), got.ElapsedMs)
	assert.False(t, f.gw.HasPending())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterCoalescedSaves))
}

// TestGatewayFirstSaveWrites verifies a save with no prior write goes out
// immediately.
func TestGatewayFirstSaveWrites(t *testing.T) {
	f := newFixture(t, nil)
	f.gw.Save(snapshotWithElapsed(1))
	f.gw.Sync()
	assert.Equal(t, 1, f.local.Writes())
}

// TestGatewayForceSaveBypassesThrottle verifies forced saves always write
// and supersede a pending throttled save.
func TestGatewayForceSaveBypassesThrottle(t *testing.T) {
	f := newFixture(t, nil)
	f.gw.ForceSave(snapshotWithElapsed(1))
	f.gw.Save(snapshotWithElapsed(2))
	f.gw.ForceSave(snapshotWithElapsed(3))
	assert.False(t, f.gw.HasPending())

	got, ok := f.load(t)
	require.True(t, ok)
	assert.Equal(t, 2, f.local.Writes())
	assert.Equal(t, int64(3), got.ElapsedMs)
}

// TestGatewayClearCancelsPending verifies a pending throttled save never
// lands after Clear.
func TestGatewayClearCancelsPending(t *testing.T) {
	f := newFixture(t, nil)
	f.gw.ForceSave(snapshotWithElapsed(1))
	f.gw.Save(snapshotWithElapsed(2))
	f.gw.Clear()

	f.clock.Advance(5 * time.Second)
	f.gw.Tick(nil)
	_, ok := f.load(t)
	assert.False(t, ok)
	assert.Equal(t, 1, f.local.Writes())
	assert.Equal(t, 1, f.local.Removes())
}

// TestGatewayPeriodicSave verifies an active workout is written at least
// once per periodic interval without any explicit save.
func TestGatewayPeriodicSave(t *testing.T) {
	f := newFixture(t, nil)
	f.gw.ForceSave(snapshotWithElapsed(1))

	current := snapshotWithElapsed(5000)
	f.clock.Advance(5 * time.Second)
	f.gw.Tick(&current)
	f.gw.Sync()
	assert.Equal(t, 1, f.local.Writes())

	current = snapshotWithElapsed(10000)
	f.clock.Advance(5 * time.Second)
	f.gw.Tick(&current)
	got, ok := f.load(t)
	require.True(t, ok)
	assert.Equal(t, 2, f.local.Writes())
	assert.Equal(t, int64(10000), got.ElapsedMs)

	// Nothing is written for an idle session.
	f.clock.Advance(time.Minute)
	f.gw.Tick(nil)
	f.gw.Sync()
	assert.Equal(t, 2, f.local.Writes())
}

// TestGatewayLoadDiscardsCorrupt verifies a corrupt record is removed and
// reported as absent.
func TestGatewayLoadDiscardsCorrupt(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.local.SetItem(ctx, StorageKey, `{"isActive":"true"}`))

	_, ok := f.gw.Load(ctx)
	assert.False(t, ok)

	_, present, err := f.local.GetItem(ctx, StorageKey)
	require.NoError(t, err)
	assert.False(t, present, "corrupt record was not removed")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterDiscardedSnapshots))
}

// TestGatewayRemoteMirror verifies a signed-in user's snapshot is mirrored
// remotely and deactivated on clear.
func TestGatewayRemoteMirror(t *testing.T) {
	f := newFixture(t, persisttest.StaticIdentity{UserID: "alice"})
	f.gw.ForceSave(snapshotWithElapsed(4200))
	f.gw.Sync()

	rs, ok := f.remote.Session("alice")
	require.True(t, ok)
	assert.True(t, rs.IsActive)
	assert.Equal(t, int64(4200), rs.ElapsedMs)
	assert.Equal(t, 1, rs.ExerciseIndex)

	f.gw.Clear()
	f.gw.Sync()
	rs, _ = f.remote.Session("alice")
	assert.False(t, rs.IsActive)
}

// TestGatewaySignedOutSkipsRemote verifies nothing is mirrored without a user.
func TestGatewaySignedOutSkipsRemote(t *testing.T) {
	f := newFixture(t, persisttest.StaticIdentity{})
	f.gw.ForceSave(snapshotWithElapsed(1))
	f.gw.Sync()
	assert.Zero(t, f.remote.Saves())
	assert.Equal(t, 1, f.local.Writes())
}

// TestGatewayRemoteFailure verifies a failing remote store neither blocks
// nor prevents the local write.
func TestGatewayRemoteFailure(t *testing.T) {
	f := newFixture(t, persisttest.StaticIdentity{UserID: "alice"})
	f.remote.FailWith(errors.New("connection refused"))

	f.gw.ForceSave(snapshotWithElapsed(1))
	f.gw.Sync()
	assert.Equal(t, 1, f.local.Writes())
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.CounterSnapshotWrites.WithLabelValues(metrics.TargetRemote, metrics.ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.CounterSnapshotWrites.WithLabelValues(metrics.TargetLocal, metrics.ResultOK)))
}

// TestGatewayLocalFailure verifies a failing local write is counted and the
// gateway keeps accepting work.
func TestGatewayLocalFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.local.FailWith(errors.New("disk full"))
	f.gw.ForceSave(snapshotWithElapsed(1))
	f.gw.Sync()
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.metrics.CounterSnapshotWrites.WithLabelValues(metrics.TargetLocal, metrics.ResultError)))

	f.local.FailWith(nil)
	f.gw.ForceSave(snapshotWithElapsed(2))
	got, ok := f.load(t)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ElapsedMs)
}

// TestGatewayLoadFromRemote verifies a signed-in user without a local record
// resumes from the remote active session in the lifting phase.
func TestGatewayLoadFromRemote(t *testing.T) {
	f := newFixture(t, persisttest.StaticIdentity{UserID: "alice"})
	started := epoch
	require.NoError(t, f.remote.SaveActiveSession(context.Background(), models.RemoteSession{
		SessionID:     "remote-1",
		UserID:        "alice",
		IsActive:      true,
		ExerciseIndex: 1,
		StartedAt:     &started,
		ElapsedMs:     60000,
		Exercises:     activeSession().Exercises,
		LastUpdatedAt: epoch,
	}))

	got, ok := f.gw.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "remote-1", got.SessionID)
	assert.Equal(t, "none", got.TimerPhase)
	assert.Equal(t, int64(60000), got.ElapsedMs)
}

// TestGatewayCloseFlushesPending verifies Close writes a pending snapshot
// and later calls are dropped without blocking.
func TestGatewayCloseFlushesPending(t *testing.T) {
	local := persisttest.NewMemoryStore()
	c := clock.NewFake(epoch)
	gw := New(local, nil, nil, c, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewTestManager(), Options{})

	gw.ForceSave(snapshotWithElapsed(1))
	gw.Save(snapshotWithElapsed(2))
	gw.Close()
	assert.Equal(t, 2, local.Writes())

	gw.ForceSave(snapshotWithElapsed(3))
	gw.Sync()
	gw.Close()
	assert.Equal(t, 2, local.Writes())
}
