package coordinator

import (
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
)

// View is a read-only copy of the workout state for outer layers.
type View struct {
	Status          string            `json:"status"`
	IsActive        bool              `json:"is_active"`
	SessionID       string            `json:"session_id,omitempty"`
	ExerciseIndex   int               `json:"exercise_index"`
	SetIndex        int               `json:"set_index"`
	TimerPhase      string            `json:"timer_phase"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	ElapsedMs       int64             `json:"elapsed_ms"`
	Elapsed         string            `json:"elapsed"`
	CurrentExercise *models.Exercise  `json:"current_exercise,omitempty"`
	Exercises       []models.Exercise `json:"exercises"`
	Rest            *RestView         `json:"rest,omitempty"`
	Restoring       bool              `json:"restoring"`
}

// RestView describes the running rest countdown.
type RestView struct {
	TimerID          string        `json:"timer_id"`
	Phase            string        `json:"phase"`
	Duration         time.Duration `json:"-"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Progress         float64       `json:"progress"`
	Display          string        `json:"display"`
}

func (c *Coordinator) viewLocked() View {
	s := c.machine.Session()
	elapsed := s.Elapsed
	if s.Status != workout.StatusIdle {
		elapsed = max(elapsed, c.watch.Elapsed())
	}

	v := View{
		Status:        s.Status.String(),
		IsActive:      s.IsActive(),
		SessionID:     s.ID,
		ExerciseIndex: s.ExerciseIndex,
		SetIndex:      s.SetIndex,
		TimerPhase:    s.Phase.String(),
		ElapsedMs:     elapsed.Milliseconds(),
		Elapsed:       workout.FormatElapsed(elapsed),
		Exercises:     s.Exercises,
		Restoring:     c.restoring,
	}
	if v.Exercises == nil {
		v.Exercises = []models.Exercise{}
	}
	if !s.StartedAt.IsZero() {
		started := s.StartedAt
		v.StartedAt = &started
	}
	if ex, ok := s.CurrentExercise(); ok && s.IsActive() {
		v.CurrentExercise = &ex
	}
	if c.rest != nil {
		rest := *c.rest
		rest.Display = workout.FormatRest(rest.RemainingSeconds)
		v.Rest = &rest
	}
	return v
}
