package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
)

func (s *Server) handleWorkoutState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workout.State())
}

type startWorkoutRequest struct {
	// Exercises overrides the saved exercise list when set.
	Exercises []models.Exercise `json:"exercises"`
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var req startWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	start := s.workout.StartWorkout
	exercises := req.Exercises
	if exercises == nil {
		list, err := s.catalog.List(r.Context())
		if err != nil {
			s.log.Error("listing exercises", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		start, exercises = s.workout.StartCatalogWorkout, list
	}

	v, err := start(r.Context(), exercises)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	v, err := s.workout.CompleteSet(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleRestComplete(w http.ResponseWriter, r *http.Request) {
	v, err := s.workout.RestComplete(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleEndWorkout(w http.ResponseWriter, r *http.Request) {
	v, err := s.workout.EndWorkout(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleResetWorkout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workout.ResetWorkout(r.Context()))
}

func (s *Server) handleUpdateElapsed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElapsedMs *int64 `json:"elapsed_ms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ElapsedMs == nil || *req.ElapsedMs < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "elapsed_ms must be a non-negative number"})
		return
	}
	v := s.workout.UpdateElapsed(r.Context(), time.Duration(*req.ElapsedMs)*time.Millisecond)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	ex, err := s.catalog.Create(r.Context(), req.Name, req.Sets, req.Reps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workout.ErrEmptyExerciseList), errors.Is(err, models.ErrInvalidExercise):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, workout.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
