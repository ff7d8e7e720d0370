package coordinator

import (
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
)

// Summary describes a finished workout.
type Summary struct {
	SessionID string        `json:"session_id"`
	Exercises int           `json:"exercises"`
	Sets      int           `json:"sets"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Notifier receives fire-and-forget user notices. Implementations must not
// block and must not call back into the Coordinator.
type Notifier interface {
	WorkoutStarted(first models.Exercise)
	CountdownComplete(phase workout.Phase)
	WorkoutComplete(s Summary)
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) WorkoutStarted(first models.Exercise) {
	n.Log.Info("Workout started!", "starting_with", first.Name)
}

func (n LogNotifier) CountdownComplete(phase workout.Phase) {
	n.Log.Info("rest complete", "phase", phase.String())
}

func (n LogNotifier) WorkoutComplete(s Summary) {
	n.Log.Info("Workout completed",
		"session", s.SessionID,
		"exercises", s.Exercises,
		"sets", s.Sets,
		"elapsed", workout.FormatElapsed(s.Elapsed),
	)
}
