package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for CounterSnapshotWrites.
const (
	TargetLocal  = "local"
	TargetRemote = "remote"

	ResultOK    = "ok"
	ResultError = "error"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterTransitions        *prometheus.CounterVec
	CounterSnapshotWrites     *prometheus.CounterVec
	CounterSnapshotClears     *prometheus.CounterVec
	CounterCoalescedSaves     prometheus.Counter
	CounterDiscardedSnapshots prometheus.Counter
	CounterWorkoutsCompleted  prometheus.Counter
	CounterRestsCompleted     *prometheus.CounterVec

	// gauges
	GaugeWorkoutActive prometheus.Gauge
	GaugeWriteQueue    prometheus.Gauge

	// histograms
	HistRequestDuration  prometheus.Histogram
	HistSnapshotDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("liftlog", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("liftlog", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterTransitions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_transitions",
		Help:      "The total number of applied workout transitions",
	}, []string{"transition"})
	counterSnapshotWrites := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_writes",
		Help:      "Workout snapshot writes per target and result",
	}, []string{"target", "result"})
	counterSnapshotClears := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_clears",
		Help:      "Workout snapshot removals per target and result",
	}, []string{"target", "result"})
	counterCoalescedSaves := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_saves_coalesced",
		Help:      "Throttled saves replaced by a later snapshot before being written",
	})
	counterDiscardedSnapshots := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_discarded",
		Help:      "Persisted snapshots discarded as corrupt on load",
	})
	counterWorkoutsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workouts_completed",
		Help:      "The total number of workouts finished after their last set",
	})
	counterRestsCompleted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rests_completed",
		Help:      "Rest countdowns that ran to zero, per phase",
	}, []string{"phase"})

	gaugeWorkoutActive := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_active",
		Help:      "1 while a workout is in progress",
	})
	gaugeWriteQueue := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_queue_length",
		Help:      "Persistence jobs waiting for the writer",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			Name:      "request_duration_seconds",
			Help:      "Total duration of requests in seconds",
		},
	)
	histSnapshotDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2, 5},
			Name:      "snapshot_write_duration_seconds",
			Help:      "Duration of a single snapshot write per target in seconds",
		},
		[]string{"target"},
	)

	return &Manager{
		CounterRequests:           counterRequests,
		CounterTransitions:        counterTransitions,
		CounterSnapshotWrites:     counterSnapshotWrites,
		CounterSnapshotClears:     counterSnapshotClears,
		CounterCoalescedSaves:     counterCoalescedSaves,
		CounterDiscardedSnapshots: counterDiscardedSnapshots,
		CounterWorkoutsCompleted:  counterWorkoutsCompleted,
		CounterRestsCompleted:     counterRestsCompleted,
		GaugeWorkoutActive:        gaugeWorkoutActive,
		GaugeWriteQueue:           gaugeWriteQueue,
		HistRequestDuration:       histReqDuration,
		HistSnapshotDuration:      histSnapshotDuration,
	}
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
