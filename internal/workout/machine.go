package workout

import (
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// Machine owns a Session and applies transitions to it. It is not safe for
// concurrent use; callers serialize access.
type Machine struct {
	policy  Policy
	session Session
}

// NewMachine returns an idle Machine using policy for rest durations. Zero
// durations in policy fall back to DefaultPolicy.
func NewMachine(policy Policy) *Machine {
	if policy.SetRest <= 0 {
		policy.SetRest = DefaultPolicy.SetRest
	}
	if policy.ExerciseRest <= 0 {
		policy.ExerciseRest = DefaultPolicy.ExerciseRest
	}
	return &Machine{policy: policy}
}

// Policy returns the rest policy in use.
func (m *Machine) Policy() Policy { return m.policy }

// Session returns a copy of the current session.
func (m *Machine) Session() Session { return m.session.Clone() }

// StartWorkout begins a new workout over a copy of exercises. Starting while
// another workout is active abandons it.
func (m *Machine) StartWorkout(exercises []models.Exercise, now time.Time, id string) ([]Effect, error) {
	if len(exercises) == 0 {
		return nil, ErrEmptyExerciseList
	}
	if err := models.ValidateExercises(exercises); err != nil {
		return nil, err
	}

	var effects []Effect
	if m.session.Phase != PhaseNone {
		effects = append(effects, Effect{Kind: EffectStopAllCountdowns})
	}
	m.session = Session{
		Status:    StatusActive,
		ID:        id,
		StartedAt: now,
		Exercises: models.CloneExercises(exercises),
	}
	return append(effects,
		Effect{Kind: EffectBeginStopwatch},
		Effect{Kind: EffectForceSave},
		Effect{Kind: EffectNotifyStarted},
	), nil
}

// StartCatalogWorkout is StartWorkout for a list read from the catalog. The
// workout then follows catalog changes through ReplaceExercises.
func (m *Machine) StartCatalogWorkout(exercises []models.Exercise, now time.Time, id string) ([]Effect, error) {
	effects, err := m.StartWorkout(exercises, now, id)
	if err != nil {
		return nil, err
	}
	m.session.FromCatalog = true
	return effects, nil
}

// CompleteSet finishes the current set and starts the set rest.
func (m *Machine) CompleteSet() ([]Effect, error) {
	if !m.session.IsActive() || m.session.Phase != PhaseNone {
		return nil, m.invalid("complete set")
	}
	if !m.session.inRange() {
		return m.failClosed(), nil
	}
	m.session.Phase = PhaseSetRest
	return []Effect{m.startRest(), {Kind: EffectSave}}, nil
}

// SetRestComplete ends a set rest: it advances to the next set, to the
// next exercise (starting an exercise rest), or completes the workout.
func (m *Machine) SetRestComplete() ([]Effect, error) {
	if !m.session.IsActive() || m.session.Phase != PhaseSetRest {
		return nil, m.invalid("finish set rest")
	}
	if !m.session.inRange() {
		return m.failClosed(), nil
	}

	effects := []Effect{{Kind: EffectStopCountdown, TimerID: m.session.TimerID()}}
	ex, _ := m.session.CurrentExercise()
	s := &m.session

	switch {
	case s.SetIndex+1 < ex.Sets:
		s.SetIndex++
		s.Phase = PhaseNone
		return append(effects, Effect{Kind: EffectSave}), nil
	case s.ExerciseIndex+1 < len(s.Exercises):
		s.ExerciseIndex++
		s.SetIndex = 0
		s.Phase = PhaseExerciseRest
		return append(effects, m.startRest(), Effect{Kind: EffectSave}), nil
	default:
		s.ExerciseIndex = len(s.Exercises)
		s.SetIndex = 0
		s.Phase = PhaseNone
		s.Status = StatusCompleted
		return append(effects,
			Effect{Kind: EffectPauseStopwatch},
			Effect{Kind: EffectClearSnapshot},
			Effect{Kind: EffectNotifyComplete},
		), nil
	}
}

// ExerciseRestComplete ends an exercise rest and returns to lifting.
func (m *Machine) ExerciseRestComplete() ([]Effect, error) {
	if !m.session.IsActive() || m.session.Phase != PhaseExerciseRest {
		return nil, m.invalid("finish exercise rest")
	}
	if !m.session.inRange() {
		return m.failClosed(), nil
	}
	effects := []Effect{{Kind: EffectStopCountdown, TimerID: m.session.TimerID()}}
	m.session.Phase = PhaseNone
	return append(effects, Effect{Kind: EffectSave}), nil
}

// RestComplete ends whichever rest is running.
func (m *Machine) RestComplete() ([]Effect, error) {
	switch m.session.Phase {
	case PhaseSetRest:
		return m.SetRestComplete()
	case PhaseExerciseRest:
		return m.ExerciseRestComplete()
	}
	return nil, m.invalid("finish rest")
}

// Pause ends the workout early. Elapsed time stays visible, progress
// returns to the first set and the persisted snapshot is dropped.
func (m *Machine) Pause() ([]Effect, error) {
	if !m.session.IsActive() {
		return nil, m.invalid("end workout")
	}
	var effects []Effect
	if m.session.Phase != PhaseNone {
		effects = append(effects, Effect{Kind: EffectStopAllCountdowns})
	}
	s := &m.session
	s.Status = StatusPaused
	s.ExerciseIndex = 0
	s.SetIndex = 0
	s.Phase = PhaseNone
	return append(effects,
		Effect{Kind: EffectPauseStopwatch},
		Effect{Kind: EffectClearSnapshot},
	), nil
}

// Reset returns to idle from any state.
func (m *Machine) Reset() []Effect {
	m.session = Session{}
	return []Effect{
		{Kind: EffectStopAllCountdowns},
		{Kind: EffectResetStopwatch},
		{Kind: EffectClearSnapshot},
	}
}

// Restore replaces an idle session with a restored one in a single step.
// The stopwatch is begun from the restored elapsed time before any rest
// countdown is started. A running rest restarts at its nominal duration.
// Restored indices that do not point at a real set complete the workout.
func (m *Machine) Restore(s Session) ([]Effect, error) {
	if m.session.IsActive() {
		return nil, m.invalid("restore")
	}
	if s.Status != StatusActive {
		return nil, fmt.Errorf("%w: restore %s session", ErrInvalidTransition, s.Status)
	}

	m.session = s.Clone()
	m.session.Elapsed = max(0, m.session.Elapsed)

	if models.ValidateExercises(s.Exercises) != nil || !m.session.inRange() {
		return append([]Effect{{Kind: EffectBeginStopwatch, Elapsed: m.session.Elapsed}}, m.failClosed()...), nil
	}

	effects := []Effect{{Kind: EffectBeginStopwatch, Elapsed: m.session.Elapsed}}
	if m.session.Phase != PhaseNone {
		effects = append(effects, m.startRest())
	}
	return effects, nil
}

// ReplaceExercises swaps the exercise list of an active catalog workout
// after the catalog changed. The current exercise is found again by ID and
// the position rebased onto it. If it is gone, or its current set no longer
// exists, the workout completes. Workouts started from an explicit list are
// left alone.
func (m *Machine) ReplaceExercises(list []models.Exercise) []Effect {
	if !m.session.IsActive() || !m.session.FromCatalog {
		return nil
	}
	if models.ValidateExercises(list) != nil {
		return m.failClosed()
	}
	cur, ok := m.session.CurrentExercise()
	if !ok {
		return m.failClosed()
	}

	next := m.session
	next.Exercises = models.CloneExercises(list)
	next.ExerciseIndex = -1
	for i, ex := range list {
		if ex.ID == cur.ID {
			next.ExerciseIndex = i
			break
		}
	}
	m.session = next
	if next.ExerciseIndex < 0 || !m.session.inRange() {
		return m.failClosed()
	}
	return []Effect{{Kind: EffectSave}}
}

// UpdateElapsed records the stopwatch reading. Values lower than the current
// one are ignored so elapsed never moves backwards while active.
func (m *Machine) UpdateElapsed(d time.Duration) []Effect {
	if !m.session.IsActive() || d <= m.session.Elapsed {
		return nil
	}
	m.session.Elapsed = d
	return []Effect{{Kind: EffectSave}}
}

// MarkSaved records the time of the last successful snapshot.
func (m *Machine) MarkSaved(at time.Time) {
	m.session.LastSavedAt = at
}

// failClosed completes a workout whose position cannot be resolved.
func (m *Machine) failClosed() []Effect {
	s := &m.session
	s.Status = StatusCompleted
	s.ExerciseIndex = len(s.Exercises)
	s.SetIndex = 0
	s.Phase = PhaseNone
	return []Effect{
		{Kind: EffectStopAllCountdowns},
		{Kind: EffectPauseStopwatch},
		{Kind: EffectClearSnapshot},
	}
}

func (m *Machine) startRest() Effect {
	return Effect{
		Kind:     EffectStartCountdown,
		TimerID:  m.session.TimerID(),
		Phase:    m.session.Phase,
		Duration: m.policy.Rest(m.session.Phase),
	}
}

func (m *Machine) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s (phase %s)",
		ErrInvalidTransition, action, m.session.Status, m.session.Phase)
}
