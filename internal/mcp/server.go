package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(b Backend, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout tracker. Read the current workout, manage the exercise list, and drive a workout set by set. Rest countdowns run on the server; skip_rest ends one early."),
	)

	h := &handlers{b: b, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkoutState, Handler: h.getWorkoutState},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolCreateExercise, Handler: h.createExercise},
		server.ServerTool{Tool: toolDeleteExercise, Handler: h.deleteExercise},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolCompleteSet, Handler: h.completeSet},
		server.ServerTool{Tool: toolSkipRest, Handler: h.skipRest},
		server.ServerTool{Tool: toolEndWorkout, Handler: h.endWorkout},
		server.ServerTool{Tool: toolResetWorkout, Handler: h.resetWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkout},
		server.ServerResource{Resource: resExercises, Handler: h.exercises},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	b   Backend
	log *slog.Logger
}

// --- Resource definitions ---

var resCurrentWorkout = mcp.NewResource(
	"liftlog://workout/current",
	"Current Workout",
	mcp.WithResourceDescription("State of the current workout: status, position, elapsed time and any running rest"),
	mcp.WithMIMEType("application/json"),
)

var resExercises = mcp.NewResource(
	"liftlog://exercises",
	"Exercises",
	mcp.WithResourceDescription("The exercise list a new workout runs through, in order"),
	mcp.WithMIMEType("application/json"),
)
