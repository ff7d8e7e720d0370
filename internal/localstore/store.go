// Package localstore is the on-device SQLite database: a key/value table for
// workout snapshots and the local exercise catalog.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/liftlog/internal/models"
)

// Store is a SQLite-backed key/value store and exercise repository.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" opens a
// throwaway database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating local store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	// One connection keeps ":memory:" databases and write ordering consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating local tables: %w", err)
		}
	}
	return &Store{db: db}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS exercises (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		sets       INTEGER NOT NULL CHECK (sets >= 1),
		reps       INTEGER NOT NULL CHECK (reps >= 1),
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS exercises_user_created ON exercises (user_id, created_at)`,
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return v, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Missing keys are not an error.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// InsertExercise adds a catalog row.
func (s *Store) InsertExercise(ctx context.Context, row models.ExerciseRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exercises (id, user_id, name, sets, reps, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID, row.UserID, row.Name, row.Sets, row.Reps, row.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting exercise: %w", err)
	}
	return nil
}

// DeleteExercise removes a user's exercise and reports whether it existed.
func (s *Store) DeleteExercise(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting exercise %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting exercise %s: %w", id, err)
	}
	return n > 0, nil
}

// ListExercises returns a user's exercises in creation order.
func (s *Store) ListExercises(ctx context.Context, userID string) ([]models.ExerciseRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, sets, reps, created_at FROM exercises
		 WHERE user_id = ? ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRow
	for rows.Next() {
		var r models.ExerciseRow
		var created int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Sets, &r.Reps, &created); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		result = append(result, r)
	}
	return result, rows.Err()
}
