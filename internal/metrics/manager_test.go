package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRegistersCollectors(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterSnapshotWrites.WithLabelValues(TargetLocal, ResultOK).Inc()
	m.CounterTransitions.WithLabelValues("complete_set").Inc()
	m.GaugeWorkoutActive.Set(1)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "liftlog_test_snapshot_writes")
	assert.Contains(t, names, "liftlog_test_workout_transitions")
	assert.Contains(t, names, "liftlog_test_workout_active")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSnapshotWrites.WithLabelValues(TargetLocal, ResultOK)))
}

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultError, Result(errors.New("boom")))
}
