package models

import (
	"errors"
	"testing"
)

// TestExerciseValidate covers every rejection path and the happy path.
func TestExerciseValidate(t *testing.T) {
	tests := []struct {
		name    string
		ex      Exercise
		wantErr bool
	}{
		{"valid", Exercise{ID: "a", Name: "Squat", Sets: 3, Reps: 10}, false},
		{"missing id", Exercise{Name: "Squat", Sets: 3, Reps: 10}, true},
		{"blank name", Exercise{ID: "a", Name: "  ", Sets: 3, Reps: 10}, true},
		{"zero sets", Exercise{ID: "a", Name: "Squat", Sets: 0, Reps: 10}, true},
		{"zero reps", Exercise{ID: "a", Name: "Squat", Sets: 3, Reps: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ex.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidExercise) {
				t.Errorf("error %v does not wrap ErrInvalidExercise", err)
			}
		})
	}
}

// TestValidateExercisesReportsIndex verifies the failing position is named.
func TestValidateExercisesReportsIndex(t *testing.T) {
	list := []Exercise{
		{ID: "a", Name: "Squat", Sets: 3, Reps: 10},
		{ID: "b", Name: "Bench", Sets: 0, Reps: 8},
	}
	err := ValidateExercises(list)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got[:10] != "exercise 1" {
		t.Errorf("error = %q, want prefix %q", got, "exercise 1")
	}
}

// TestCloneExercisesIndependent verifies a clone does not alias the source.
func TestCloneExercisesIndependent(t *testing.T) {
	src := []Exercise{{ID: "a", Name: "Squat", Sets: 3, Reps: 10}}
	dup := CloneExercises(src)
	dup[0].Sets = 5
	if src[0].Sets != 3 {
		t.Errorf("source mutated: sets = %d, want 3", src[0].Sets)
	}
	if CloneExercises(nil) != nil {
		t.Error("CloneExercises(nil) should be nil")
	}
}
