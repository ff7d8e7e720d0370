package models

import "time"

// RemoteSession is a row of the workout_sessions table: the reduced view of
// a workout mirrored to the remote store for cross-device resume.
type RemoteSession struct {
	SessionID     string
	UserID        string
	IsActive      bool
	ExerciseIndex int
	SetIndex      int
	StartedAt     *time.Time
	ElapsedMs     int64
	Exercises     []Exercise
	FromCatalog   bool
	LastUpdatedAt time.Time
}
