package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/coordinator"
)

// --- Tool definitions ---

var toolGetWorkoutState = mcp.NewTool("get_workout_state",
	mcp.WithDescription("Get the current workout: status (idle/active/paused/completed), exercise and set position, elapsed time, and the running rest countdown if any."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercises a new workout runs through, in order."),
)

var toolCreateExercise = mcp.NewTool("create_exercise",
	mcp.WithDescription("Add an exercise to the end of the exercise list."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. Squat, Bench Press)")),
	mcp.WithNumber("sets", mcp.Required(), mcp.Description("Number of sets, at least 1")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions per set, at least 1")),
)

var toolDeleteExercise = mcp.NewTool("delete_exercise",
	mcp.WithDescription("Remove an exercise from the list. A workout in progress that is on a removed exercise completes."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Exercise ID from list_exercises")),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a workout over the current exercise list. Abandons a workout in progress."),
)

var toolCompleteSet = mcp.NewTool("complete_set",
	mcp.WithDescription("Mark the current set done and start the rest between sets."),
)

var toolSkipRest = mcp.NewTool("skip_rest",
	mcp.WithDescription("End the running rest early and move on."),
)

var toolEndWorkout = mcp.NewTool("end_workout",
	mcp.WithDescription("Stop the workout early. The elapsed time stays visible until reset."),
)

var toolResetWorkout = mcp.NewTool("reset_workout",
	mcp.WithDescription("Return to idle, discarding the current workout and its elapsed time."),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.b.WorkoutState(ctx)
	return h.workoutResult("get_workout_state", v, err)
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.b.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(list)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) createExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	sets, err := req.RequireInt("sets")
	if err != nil {
		return mcp.NewToolResultError("sets parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}

	ex, err := h.b.CreateExercise(ctx, name, sets, reps)
	if err != nil {
		return mcp.NewToolResultError("create failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(ex)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) deleteExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	if err := h.b.DeleteExercise(ctx, id); err != nil {
		return mcp.NewToolResultError("delete failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}

func (h *handlers) startWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.b.StartWorkout(ctx)
	return h.workoutResult("start_workout", v, err)
}

func (h *handlers) completeSet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.b.CompleteSet(ctx)
	return h.workoutResult("complete_set", v, err)
}

func (h *handlers) skipRest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.b.SkipRest(ctx)
	return h.workoutResult("skip_rest", v, err)
}

func (h *handlers) endWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.b.EndWorkout(ctx)
	return h.workoutResult("end_workout", v, err)
}

func (h *handlers) resetWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	v, err := h.b.ResetWorkout(ctx)
	return h.workoutResult("reset_workout", v, err)
}

// workoutResult renders a workout view. Rejected transitions are tool
// errors the model can act on, not protocol errors.
func (h *handlers) workoutResult(tool string, v coordinator.View, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.log.Debug("mcp "+tool, "error", err)
		return mcp.NewToolResultError(tool + " failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
