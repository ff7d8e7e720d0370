package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/models"
)

// InsertExercise adds a row to the user_exercises table.
func (db *DB) InsertExercise(ctx context.Context, row models.ExerciseRow) error {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return fmt.Errorf("exercise id %q: %w", row.ID, err)
	}
	_, err = db.Pool.Exec(ctx,
		`INSERT INTO user_exercises (id, user_id, name, sets, reps, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, row.UserID, row.Name, row.Sets, row.Reps, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// DeleteExercise removes a user's exercise and reports whether it existed.
func (db *DB) DeleteExercise(ctx context.Context, userID, id string) (bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM user_exercises WHERE id = $1 AND user_id = $2`, uid, userID)
	if err != nil {
		return false, fmt.Errorf("deleting exercise %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListExercises returns a user's exercises in creation order.
func (db *DB) ListExercises(ctx context.Context, userID string) ([]models.ExerciseRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, sets, reps, created_at
		 FROM user_exercises
		 WHERE user_id = $1
		 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var (
			r  models.ExerciseRow
			id uuid.UUID
		)
		if err := rows.Scan(&id, &r.UserID, &r.Name, &r.Sets, &r.Reps, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		r.ID = id.String()
		result = append(result, r)
	}
	return result, rows.Err()
}
