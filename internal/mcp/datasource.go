package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/coordinator"
	"github.com/claude/liftlog/internal/models"
)

// Backend abstracts the workout service for MCP tools. Both Local (in
// process) and HTTPClient (remote via REST API) satisfy this interface.
type Backend interface {
	WorkoutState(ctx context.Context) (coordinator.View, error)
	// StartWorkout starts a workout over the user's exercise list.
	StartWorkout(ctx context.Context) (coordinator.View, error)
	CompleteSet(ctx context.Context) (coordinator.View, error)
	SkipRest(ctx context.Context) (coordinator.View, error)
	EndWorkout(ctx context.Context) (coordinator.View, error)
	ResetWorkout(ctx context.Context) (coordinator.View, error)
	UpdateElapsed(ctx context.Context, elapsed time.Duration) (coordinator.View, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, name string, sets, reps int) (models.Exercise, error)
	DeleteExercise(ctx context.Context, id string) error
}

// Local serves tools from the in-process coordinator and catalog.
type Local struct {
	Workout *coordinator.Coordinator
	Catalog *catalog.Service
}

// Compile-time check: Local satisfies Backend.
var _ Backend = Local{}

func (l Local) WorkoutState(context.Context) (coordinator.View, error) {
	return l.Workout.State(), nil
}

func (l Local) StartWorkout(ctx context.Context) (coordinator.View, error) {
	list, err := l.Catalog.List(ctx)
	if err != nil {
		return coordinator.View{}, err
	}
	return l.Workout.StartCatalogWorkout(ctx, list)
}

func (l Local) CompleteSet(ctx context.Context) (coordinator.View, error) {
	return l.Workout.CompleteSet(ctx)
}

func (l Local) SkipRest(ctx context.Context) (coordinator.View, error) {
	return l.Workout.RestComplete(ctx)
}

func (l Local) EndWorkout(ctx context.Context) (coordinator.View, error) {
	return l.Workout.EndWorkout(ctx)
}

func (l Local) ResetWorkout(ctx context.Context) (coordinator.View, error) {
	return l.Workout.ResetWorkout(ctx), nil
}

func (l Local) UpdateElapsed(ctx context.Context, elapsed time.Duration) (coordinator.View, error) {
	return l.Workout.UpdateElapsed(ctx, elapsed), nil
}

func (l Local) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return l.Catalog.List(ctx)
}

func (l Local) CreateExercise(ctx context.Context, name string, sets, reps int) (models.Exercise, error) {
	return l.Catalog.Create(ctx, name, sets, reps)
}

func (l Local) DeleteExercise(ctx context.Context, id string) error {
	return l.Catalog.Delete(ctx, id)
}
