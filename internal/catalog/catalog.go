// Package catalog manages the user's exercise list.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/clock"
	"github.com/claude/liftlog/internal/models"
)

// ErrNotFound is returned when deleting an exercise the user does not own.
var ErrNotFound = errors.New("exercise not found")

// LocalUser owns the exercises created while nobody is signed in.
const LocalUser = "local"

// Repo stores catalog rows per user.
type Repo interface {
	InsertExercise(ctx context.Context, row models.ExerciseRow) error
	DeleteExercise(ctx context.Context, userID, id string) (bool, error)
	ListExercises(ctx context.Context, userID string) ([]models.ExerciseRow, error)
}

// Identity reports the signed-in user.
type Identity interface {
	CurrentUser() (userID string, signedIn bool)
}

// Service validates and scopes catalog operations to the current user.
type Service struct {
	repo  Repo
	ident Identity
	clock clock.Clock
	log   *slog.Logger

	mu        sync.Mutex
	listeners []func(userID string, list []models.Exercise)
}

func New(repo Repo, ident Identity, c clock.Clock, logger *slog.Logger) *Service {
	return &Service{repo: repo, ident: ident, clock: c, log: logger}
}

// OnChange registers fn to receive the user's list after every create or
// delete.
func (s *Service) OnChange(fn func(userID string, list []models.Exercise)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// User returns the id the catalog is currently scoped to.
func (s *Service) User() string {
	if s.ident != nil {
		if id, ok := s.ident.CurrentUser(); ok {
			return id
		}
	}
	return LocalUser
}

// Create adds an exercise to the current user's list.
func (s *Service) Create(ctx context.Context, name string, sets, reps int) (models.Exercise, error) {
	ex := models.Exercise{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(name),
		Sets: sets,
		Reps: reps,
	}
	if err := ex.Validate(); err != nil {
		return models.Exercise{}, err
	}

	user := s.User()
	row := models.ExerciseRow{Exercise: ex, UserID: user, CreatedAt: s.clock.Now().UTC()}
	if err := s.repo.InsertExercise(ctx, row); err != nil {
		return models.Exercise{}, fmt.Errorf("creating exercise: %w", err)
	}
	s.log.Info("exercise created", "user", user, "id", ex.ID, "name", ex.Name)
	s.notify(ctx, user)
	return ex, nil
}

// Delete removes an exercise from the current user's list.
func (s *Service) Delete(ctx context.Context, id string) error {
	user := s.User()
	ok, err := s.repo.DeleteExercise(ctx, user, id)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.log.Info("exercise deleted", "user", user, "id", id)
	s.notify(ctx, user)
	return nil
}

// List returns the current user's exercises in creation order.
func (s *Service) List(ctx context.Context) ([]models.Exercise, error) {
	return s.list(ctx, s.User())
}

func (s *Service) list(ctx context.Context, user string) ([]models.Exercise, error) {
	rows, err := s.repo.ListExercises(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	out := make([]models.Exercise, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Exercise)
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, user string) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	if len(listeners) == 0 {
		return
	}

	list, err := s.list(ctx, user)
	if err != nil {
		s.log.Warn("reloading exercises after change", "user", user, "error", err)
		return
	}
	for _, fn := range listeners {
		fn(user, list)
	}
}
