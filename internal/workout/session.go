// Package workout holds the session state machine: which exercise and set
// are current, which rest phase is running, and the legal transitions
// between them. Transitions never perform I/O; each returns the ordered side
// effects the caller must apply.
package workout

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
)

var (
	// ErrEmptyExerciseList is returned when a workout is started without exercises.
	ErrEmptyExerciseList = errors.New("no exercises: add at least one exercise before starting")
	// ErrInvalidTransition is returned when a transition is not legal in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInvalidExercise is returned when an exercise in the list fails validation.
	ErrInvalidExercise = models.ErrInvalidExercise
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusPaused
	StatusCompleted
)

var statusNames = [...]string{"idle", "active", "paused", "completed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for i, name := range statusNames {
		if name == s {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Phase says which rest countdown, if any, is running.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseSetRest
	PhaseExerciseRest
)

var phaseNames = [...]string{"none", "set_rest", "exercise_rest"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown timer phase %q", s)
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	v, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Session is the authoritative workout progress.
type Session struct {
	Status        Status
	ID            string
	ExerciseIndex int
	SetIndex      int
	Phase         Phase
	StartedAt     time.Time
	Elapsed       time.Duration
	Exercises     []models.Exercise
	LastSavedAt   time.Time
	// FromCatalog marks a workout started from the saved exercise list.
	// Only these follow later catalog changes.
	FromCatalog bool
}

// IsActive reports whether a workout is in progress.
func (s Session) IsActive() bool {
	return s.Status == StatusActive
}

// CurrentExercise returns the exercise at ExerciseIndex, if it exists.
func (s Session) CurrentExercise() (models.Exercise, bool) {
	if s.ExerciseIndex < 0 || s.ExerciseIndex >= len(s.Exercises) {
		return models.Exercise{}, false
	}
	return s.Exercises[s.ExerciseIndex], true
}

// Clone returns a copy that shares no memory with s.
func (s Session) Clone() Session {
	s.Exercises = models.CloneExercises(s.Exercises)
	return s
}

// inRange reports whether the indices point at a real set.
func (s Session) inRange() bool {
	ex, ok := s.CurrentExercise()
	return ok && s.SetIndex >= 0 && s.SetIndex < ex.Sets
}

// TimerID names the countdown for a rest phase. A phase change always
// produces a new id, so the old countdown is never mistaken for the new one.
func TimerID(phase Phase, exerciseID string, setIndex int) string {
	if exerciseID == "" {
		exerciseID = "none"
	}
	return fmt.Sprintf("%s-%s-set-%d", phase, exerciseID, setIndex)
}

// TimerID returns the id of the countdown for the session's current phase,
// or "" when no rest is running.
func (s Session) TimerID() string {
	if s.Phase == PhaseNone {
		return ""
	}
	ex, _ := s.CurrentExercise()
	return TimerID(s.Phase, ex.ID, s.SetIndex)
}

// Policy holds the rest durations.
type Policy struct {
	SetRest      time.Duration
	ExerciseRest time.Duration
}

// DefaultPolicy rests 30s between sets and 60s between exercises.
var DefaultPolicy = Policy{
	SetRest:      30 * time.Second,
	ExerciseRest: 60 * time.Second,
}

// Rest returns the countdown length for phase.
func (p Policy) Rest(phase Phase) time.Duration {
	switch phase {
	case PhaseSetRest:
		return p.SetRest
	case PhaseExerciseRest:
		return p.ExerciseRest
	}
	return 0
}
