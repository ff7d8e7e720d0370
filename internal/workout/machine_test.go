package workout

import (
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func squat() []models.Exercise {
	return []models.Exercise{{ID: "sq", Name: "Squat", Sets: 3, Reps: 10}}
}

func twoExercises() []models.Exercise {
	return []models.Exercise{
		{ID: "a", Name: "Bench", Sets: 2, Reps: 8},
		{ID: "b", Name: "Row", Sets: 1, Reps: 12},
	}
}

func started(t *testing.T, list []models.Exercise) *Machine {
	t.Helper()
	m := NewMachine(DefaultPolicy)
	_, err := m.StartWorkout(list, epoch, "session-1")
	require.NoError(t, err)
	return m
}

// TestStartWorkoutEmptyList verifies an empty list is refused without
// touching the session.
func TestStartWorkoutEmptyList(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	effects, err := m.StartWorkout(nil, epoch, "x")
	require.ErrorIs(t, err, ErrEmptyExerciseList)
	assert.Nil(t, effects)
	assert.Equal(t, StatusIdle, m.Session().Status)
}

// TestStartWorkoutInvalidExercise verifies malformed exercises are refused.
func TestStartWorkoutInvalidExercise(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	_, err := m.StartWorkout([]models.Exercise{{ID: "a", Name: "Squat", Sets: 0, Reps: 5}}, epoch, "x")
	require.ErrorIs(t, err, ErrInvalidExercise)
	assert.False(t, m.Session().IsActive())
}

// TestStartWorkout verifies the initial session and the start effects.
func TestStartWorkout(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	list := twoExercises()
	effects, err := m.StartWorkout(list, epoch, "session-1")
	require.NoError(t, err)

	assert.Equal(t, []EffectKind{EffectBeginStopwatch, EffectForceSave, EffectNotifyStarted}, Kinds(effects))
	assert.Zero(t, effects[0].Elapsed)

	s := m.Session()
	assert.True(t, s.IsActive())
	assert.Equal(t, "session-1", s.ID)
	assert.Equal(t, epoch, s.StartedAt)
	assert.Zero(t, s.ExerciseIndex)
	assert.Zero(t, s.SetIndex)
	assert.Equal(t, PhaseNone, s.Phase)

	// The session keeps its own copy of the list.
	list[0].Sets = 99
	assert.Equal(t, 2, m.Session().Exercises[0].Sets)
}

// TestCompleteSetStartsSetRest verifies the set rest countdown request.
func TestCompleteSetStartsSetRest(t *testing.T) {
	m := started(t, squat())
	effects, err := m.CompleteSet()
	require.NoError(t, err)

	require.Equal(t, []EffectKind{EffectStartCountdown, EffectSave}, Kinds(effects))
	assert.Equal(t, "set_rest-sq-set-0", effects[0].TimerID)
	assert.Equal(t, PhaseSetRest, effects[0].Phase)
	assert.Equal(t, 30*time.Second, effects[0].Duration)
	assert.Equal(t, PhaseSetRest, m.Session().Phase)
}

// TestCompleteSetRejected verifies completing a set is only legal while
// lifting in an active workout.
func TestCompleteSetRejected(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	_, err := m.CompleteSet()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	m = started(t, squat())
	_, err = m.CompleteSet()
	require.NoError(t, err)
	_, err = m.CompleteSet()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// TestMachineCompleteness drives [{sets:2},{sets:1}] to completion:
// set1, rest, set2, rest into exercise rest, set1 of exercise 2, rest, done.
func TestMachineCompleteness(t *testing.T) {
	m := started(t, twoExercises())

	step := func(name string, fn func() ([]Effect, error)) []Effect {
		t.Helper()
		effects, err := fn()
		require.NoError(t, err, name)
		return effects
	}

	step("set 1", m.CompleteSet)
	step("set rest 1", m.SetRestComplete)
	s := m.Session()
	assert.Equal(t, 0, s.ExerciseIndex)
	assert.Equal(t, 1, s.SetIndex)
	assert.Equal(t, PhaseNone, s.Phase)

	step("set 2", m.CompleteSet)
	effects := step("set rest 2", m.SetRestComplete)
	assert.Equal(t, []EffectKind{EffectStopCountdown, EffectStartCountdown, EffectSave}, Kinds(effects))
	assert.Equal(t, "set_rest-a-set-1", effects[0].TimerID)
	assert.Equal(t, "exercise_rest-b-set-0", effects[1].TimerID)
	assert.Equal(t, 60*time.Second, effects[1].Duration)
	s = m.Session()
	assert.Equal(t, 1, s.ExerciseIndex)
	assert.Equal(t, 0, s.SetIndex)
	assert.Equal(t, PhaseExerciseRest, s.Phase)

	step("exercise rest", m.ExerciseRestComplete)
	assert.Equal(t, PhaseNone, m.Session().Phase)

	step("set 1 of exercise 2", m.CompleteSet)
	effects = step("final rest", m.SetRestComplete)
	assert.Equal(t, []EffectKind{
		EffectStopCountdown, EffectPauseStopwatch, EffectClearSnapshot, EffectNotifyComplete,
	}, Kinds(effects))

	s = m.Session()
	assert.Equal(t, StatusCompleted, s.Status)
	assert.False(t, s.IsActive())
	assert.Equal(t, 2, s.ExerciseIndex, "index should point past the list")
}

// TestSquatWorkout runs a single three-set exercise to completion.
func TestSquatWorkout(t *testing.T) {
	m := started(t, squat())
	for set := 0; set < 3; set++ {
		require.Equal(t, set, m.Session().SetIndex)
		_, err := m.CompleteSet()
		require.NoError(t, err)
		_, err = m.RestComplete()
		require.NoError(t, err)
	}
	assert.Equal(t, StatusCompleted, m.Session().Status)
}

// TestRestCompleteWithoutRest verifies skipping a rest requires one.
func TestRestCompleteWithoutRest(t *testing.T) {
	m := started(t, squat())
	_, err := m.RestComplete()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.ExerciseRestComplete()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// TestPauseKeepsElapsed verifies ending a workout early freezes elapsed time
// without a completion notice.
func TestPauseKeepsElapsed(t *testing.T) {
	m := started(t, twoExercises())
	m.UpdateElapsed(42 * time.Second)
	_, err := m.CompleteSet()
	require.NoError(t, err)

	effects, err := m.Pause()
	require.NoError(t, err)
	assert.Equal(t, []EffectKind{EffectStopAllCountdowns, EffectPauseStopwatch, EffectClearSnapshot}, Kinds(effects))
	assert.NotContains(t, Kinds(effects), EffectNotifyComplete)

	s := m.Session()
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, 42*time.Second, s.Elapsed)
	assert.Zero(t, s.ExerciseIndex)
	assert.Equal(t, PhaseNone, s.Phase)

	_, err = m.Pause()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// TestReset verifies reset returns to the zero session from any state.
func TestReset(t *testing.T) {
	m := started(t, squat())
	m.UpdateElapsed(time.Minute)

	effects := m.Reset()
	assert.Equal(t, []EffectKind{EffectStopAllCountdowns, EffectResetStopwatch, EffectClearSnapshot}, Kinds(effects))
	assert.Equal(t, Session{}, m.Session())
}

// TestUpdateElapsedMonotonic verifies elapsed never decreases and is ignored
// outside an active workout.
func TestUpdateElapsedMonotonic(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	assert.Nil(t, m.UpdateElapsed(time.Second))

	m = started(t, squat())
	assert.Len(t, m.UpdateElapsed(10*time.Second), 1)
	assert.Nil(t, m.UpdateElapsed(5*time.Second))
	assert.Equal(t, 10*time.Second, m.Session().Elapsed)
}

// TestRestoreOrdering verifies the stopwatch is begun from the restored
// elapsed time before the rest countdown is started.
func TestRestoreOrdering(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	effects, err := m.Restore(Session{
		Status:        StatusActive,
		ID:            "s",
		ExerciseIndex: 1,
		SetIndex:      0,
		Phase:         PhaseExerciseRest,
		StartedAt:     epoch,
		Elapsed:       12345 * time.Millisecond,
		Exercises:     twoExercises(),
	})
	require.NoError(t, err)
	require.Equal(t, []EffectKind{EffectBeginStopwatch, EffectStartCountdown}, Kinds(effects))
	assert.Equal(t, 12345*time.Millisecond, effects[0].Elapsed)
	assert.Equal(t, "exercise_rest-b-set-0", effects[1].TimerID)
	assert.Equal(t, 60*time.Second, effects[1].Duration)

	s := m.Session()
	assert.True(t, s.IsActive())
	assert.Equal(t, 12345*time.Millisecond, s.Elapsed)
}

// TestRestoreStaleIndex verifies an out-of-range restored position completes
// the workout instead of failing.
func TestRestoreStaleIndex(t *testing.T) {
	tests := []struct {
		name    string
		session Session
	}{
		{"exercise index past end", Session{Status: StatusActive, ExerciseIndex: 5, Exercises: squat()}},
		{"set index past sets", Session{Status: StatusActive, SetIndex: 3, Exercises: squat()}},
		{"no exercises", Session{Status: StatusActive}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(DefaultPolicy)
			effects, err := m.Restore(tt.session)
			require.NoError(t, err)
			assert.Contains(t, Kinds(effects), EffectClearSnapshot)
			assert.Equal(t, StatusCompleted, m.Session().Status)
		})
	}
}

// TestRestoreRejected verifies restore does not clobber a live workout and
// only accepts active sessions.
func TestRestoreRejected(t *testing.T) {
	m := started(t, squat())
	_, err := m.Restore(Session{Status: StatusActive, Exercises: squat()})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	m = NewMachine(DefaultPolicy)
	_, err = m.Restore(Session{Status: StatusPaused, Exercises: squat()})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func startedFromCatalog(t *testing.T, list []models.Exercise) *Machine {
	t.Helper()
	m := NewMachine(DefaultPolicy)
	_, err := m.StartCatalogWorkout(list, epoch, "session-1")
	require.NoError(t, err)
	require.True(t, m.Session().FromCatalog)
	return m
}

// TestReplaceExercises covers a compatible replacement, a removal that
// strands the current exercise, and inactive sessions.
func TestReplaceExercises(t *testing.T) {
	m := startedFromCatalog(t, twoExercises())
	effects := m.ReplaceExercises([]models.Exercise{
		{ID: "a", Name: "Incline Bench", Sets: 2, Reps: 8},
	})
	assert.Equal(t, []EffectKind{EffectSave}, Kinds(effects))
	assert.Equal(t, "Incline Bench", m.Session().Exercises[0].Name)

	_, err := m.CompleteSet()
	require.NoError(t, err)
	effects = m.ReplaceExercises([]models.Exercise{{ID: "z", Name: "Dip", Sets: 2, Reps: 8}})
	assert.Contains(t, Kinds(effects), EffectClearSnapshot)
	assert.Equal(t, StatusCompleted, m.Session().Status)
	assert.Equal(t, 1, m.Session().ExerciseIndex)

	assert.Nil(t, m.ReplaceExercises(squat()), "inactive sessions ignore replacements")
}

// TestReplaceExercisesRebases verifies removing a finished exercise keeps the
// workout on the exercise being lifted.
func TestReplaceExercisesRebases(t *testing.T) {
	m := startedFromCatalog(t, []models.Exercise{
		{ID: "a", Name: "Bench", Sets: 1, Reps: 8},
		{ID: "b", Name: "Row", Sets: 2, Reps: 12},
		{ID: "c", Name: "Dip", Sets: 1, Reps: 10},
	})
	_, err := m.CompleteSet()
	require.NoError(t, err)
	_, err = m.RestComplete()
	require.NoError(t, err)
	require.Equal(t, PhaseExerciseRest, m.Session().Phase)
	_, err = m.RestComplete()
	require.NoError(t, err)
	require.Equal(t, "b", m.Session().Exercises[m.Session().ExerciseIndex].ID)

	effects := m.ReplaceExercises([]models.Exercise{
		{ID: "b", Name: "Row", Sets: 2, Reps: 12},
		{ID: "c", Name: "Dip", Sets: 1, Reps: 10},
	})
	assert.Equal(t, []EffectKind{EffectSave}, Kinds(effects))
	s := m.Session()
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, 0, s.ExerciseIndex)
	assert.Equal(t, 0, s.SetIndex)
	ex, ok := s.CurrentExercise()
	require.True(t, ok)
	assert.Equal(t, "b", ex.ID)
}

// TestReplaceExercisesRestKeepsTimer verifies a rebase under a running rest
// keeps the countdown, since its id is tied to the exercise, not the index.
func TestReplaceExercisesRestKeepsTimer(t *testing.T) {
	m := startedFromCatalog(t, twoExercises())
	_, err := m.CompleteSet()
	require.NoError(t, err)
	before := m.Session().TimerID()

	effects := m.ReplaceExercises([]models.Exercise{
		{ID: "b", Name: "Row", Sets: 1, Reps: 12},
		{ID: "a", Name: "Bench", Sets: 2, Reps: 8},
	})
	assert.Equal(t, []EffectKind{EffectSave}, Kinds(effects))
	assert.Equal(t, 1, m.Session().ExerciseIndex)
	assert.Equal(t, before, m.Session().TimerID())
}

// TestReplaceExercisesExplicitList verifies a workout started from an
// explicit list ignores catalog changes.
func TestReplaceExercisesExplicitList(t *testing.T) {
	m := started(t, twoExercises())
	assert.Nil(t, m.ReplaceExercises(squat()))
	s := m.Session()
	assert.False(t, s.FromCatalog)
	assert.Equal(t, twoExercises(), s.Exercises)
}

// TestCustomPolicy verifies rest durations come from the policy.
func TestCustomPolicy(t *testing.T) {
	m := NewMachine(Policy{SetRest: 90 * time.Second})
	assert.Equal(t, 60*time.Second, m.Policy().ExerciseRest)

	_, err := m.StartWorkout(squat(), epoch, "s")
	require.NoError(t, err)
	effects, err := m.CompleteSet()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, effects[0].Duration)
}

// TestTimerID verifies the countdown id format.
func TestTimerID(t *testing.T) {
	assert.Equal(t, "set_rest-abc-set-2", TimerID(PhaseSetRest, "abc", 2))
	assert.Equal(t, "exercise_rest-none-set-0", TimerID(PhaseExerciseRest, "", 0))
	assert.Empty(t, Session{}.TimerID())
}

// TestParsePhaseAndStatus verifies the text forms round trip and unknown
// values are rejected.
func TestParsePhaseAndStatus(t *testing.T) {
	for _, p := range []Phase{PhaseNone, PhaseSetRest, PhaseExerciseRest} {
		got, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePhase("lifting")
	assert.Error(t, err)

	var st Status
	require.NoError(t, st.UnmarshalText([]byte("completed")))
	assert.Equal(t, StatusCompleted, st)
	assert.Error(t, st.UnmarshalText([]byte("done")))
}
