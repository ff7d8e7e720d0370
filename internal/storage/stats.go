package storage

import (
	"context"
	"fmt"
	"time"
)

// SessionStats holds aggregate statistics about a user's workout sessions.
type SessionStats struct {
	TotalSessions  int64      `json:"total_sessions"`
	ActiveSessions int64      `json:"active_sessions"`
	TotalElapsedMs int64      `json:"total_elapsed_ms"`
	TotalExercises int64      `json:"total_exercises"`
	FirstStarted   *time.Time `json:"first_started"`
	LastUpdated    *time.Time `json:"last_updated"`
}

// GetSessionStats returns aggregate statistics for a user's stored sessions.
func (db *DB) GetSessionStats(ctx context.Context, userID string) (*SessionStats, error) {
	stats := &SessionStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_active),
		        COALESCE(SUM(stopwatch_time), 0),
		        MIN(started_at),
		        MAX(last_updated_at)
		 FROM workout_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.ActiveSessions, &stats.TotalElapsedMs,
		&stats.FirstStarted, &stats.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("summarizing sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_exercises WHERE user_id = $1`, userID,
	).Scan(&stats.TotalExercises)
	if err != nil {
		return nil, fmt.Errorf("counting exercises: %w", err)
	}

	return stats, nil
}
