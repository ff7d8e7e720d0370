package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftlog/internal/models"
)

// SaveActiveSession upserts a user's session record. When the record is
// active every other active record of that user is deactivated in the same
// transaction, keeping at most one active session per user.
func (db *DB) SaveActiveSession(ctx context.Context, s models.RemoteSession) error {
	id, err := uuid.Parse(s.SessionID)
	if err != nil {
		return fmt.Errorf("session id %q: %w", s.SessionID, err)
	}
	exercises, err := json.Marshal(s.Exercises)
	if err != nil {
		return fmt.Errorf("encoding session exercises: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning session save: %w", err)
	}
	defer tx.Rollback(ctx)

	if s.IsActive {
		_, err = tx.Exec(ctx,
			`UPDATE workout_sessions SET is_active = FALSE, last_updated_at = NOW()
			 WHERE user_id = $1 AND is_active AND id <> $2`,
			s.UserID, id)
		if err != nil {
			return fmt.Errorf("deactivating previous sessions: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, is_active, current_exercise_index, current_set,
		 started_at, stopwatch_time, exercises, from_catalog, last_updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active,
			current_exercise_index = EXCLUDED.current_exercise_index,
			current_set = EXCLUDED.current_set,
			started_at = EXCLUDED.started_at,
			stopwatch_time = EXCLUDED.stopwatch_time,
			exercises = EXCLUDED.exercises,
			from_catalog = EXCLUDED.from_catalog,
			last_updated_at = EXCLUDED.last_updated_at
		 WHERE workout_sessions.user_id = EXCLUDED.user_id`,
		id, s.UserID, s.IsActive, s.ExerciseIndex, s.SetIndex,
		s.StartedAt, s.ElapsedMs, exercises, s.FromCatalog, s.LastUpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing session save: %w", err)
	}
	return nil
}

// DeactivateSessions marks every active session of a user inactive.
func (db *DB) DeactivateSessions(ctx context.Context, userID string) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET is_active = FALSE, last_updated_at = NOW()
		 WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return fmt.Errorf("deactivating sessions for %s: %w", userID, err)
	}
	return nil
}

// LoadActiveSession returns the user's active session, or nil if there is none.
func (db *DB) LoadActiveSession(ctx context.Context, userID string) (*models.RemoteSession, error) {
	var (
		s         models.RemoteSession
		id        uuid.UUID
		exercises []byte
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, is_active, current_exercise_index, current_set,
		 started_at, stopwatch_time, exercises, from_catalog, last_updated_at
		 FROM workout_sessions
		 WHERE user_id = $1 AND is_active
		 ORDER BY last_updated_at DESC
		 LIMIT 1`, userID,
	).Scan(&id, &s.UserID, &s.IsActive, &s.ExerciseIndex, &s.SetIndex,
		&s.StartedAt, &s.ElapsedMs, &exercises, &s.FromCatalog, &s.LastUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading active session: %w", err)
	}

	s.SessionID = id.String()
	if err := json.Unmarshal(exercises, &s.Exercises); err != nil {
		return nil, fmt.Errorf("decoding session %s exercises: %w", id, err)
	}
	return &s, nil
}
