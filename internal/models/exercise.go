package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidExercise is returned for exercises that fail validation.
var ErrInvalidExercise = errors.New("invalid exercise")

// Exercise is one entry of a user's workout plan.
type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}

// Validate checks the exercise invariants: non-empty id and name, and at
// least one set of at least one rep.
func (e Exercise) Validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidExercise)
	case strings.TrimSpace(e.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidExercise)
	case e.Sets < 1:
		return fmt.Errorf("%w: %q has %d sets", ErrInvalidExercise, e.Name, e.Sets)
	case e.Reps < 1:
		return fmt.Errorf("%w: %q has %d reps", ErrInvalidExercise, e.Name, e.Reps)
	}
	return nil
}

// ValidateExercises validates every exercise in list.
func ValidateExercises(list []Exercise) error {
	for i, e := range list {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("exercise %d: %w", i, err)
		}
	}
	return nil
}

// CloneExercises returns an independent copy of list.
func CloneExercises(list []Exercise) []Exercise {
	if list == nil {
		return nil
	}
	out := make([]Exercise, len(list))
	copy(out, list)
	return out
}

// ExerciseRow is a catalog row as stored in the user_exercises table.
type ExerciseRow struct {
	Exercise
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
