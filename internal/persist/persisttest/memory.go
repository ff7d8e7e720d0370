// Package persisttest provides in-memory persistence backends for tests.
package persisttest

import (
	"context"
	"sync"

	"github.com/claude/liftlog/internal/models"
)

// MemoryStore is an in-memory persist.LocalStore.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[string]string
	writes  int
	removes int
	err     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (m *MemoryStore) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStore) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items[key] = value
	m.writes++
	return nil
}

func (m *MemoryStore) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.items, key)
	m.removes++
	return nil
}

// Writes returns the number of successful SetItem calls.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Removes returns the number of successful RemoveItem calls.
func (m *MemoryStore) Removes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removes
}

// FailWith makes later writes and removals return err; nil restores them.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// MemoryRemote is an in-memory persist.RemoteStore holding the latest record per user.
type MemoryRemote struct {
	mu       sync.Mutex
	sessions map[string]models.RemoteSession
	saves    int
	err      error
}

func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{sessions: make(map[string]models.RemoteSession)}
}

func (m *MemoryRemote) SaveActiveSession(_ context.Context, s models.RemoteSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s.Exercises = models.CloneExercises(s.Exercises)
	m.sessions[s.UserID] = s
	m.saves++
	return nil
}

func (m *MemoryRemote) DeactivateSessions(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if s, ok := m.sessions[userID]; ok {
		s.IsActive = false
		m.sessions[userID] = s
	}
	return nil
}

func (m *MemoryRemote) LoadActiveSession(_ context.Context, userID string) (*models.RemoteSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[userID]
	if !ok || !s.IsActive {
		return nil, nil
	}
	s.Exercises = models.CloneExercises(s.Exercises)
	return &s, nil
}

// Saves returns the number of successful SaveActiveSession calls.
func (m *MemoryRemote) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Session returns the stored record for userID.
func (m *MemoryRemote) Session(userID string) (models.RemoteSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// FailWith makes later calls return err; nil restores them.
func (m *MemoryRemote) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// StaticIdentity is a persist.Identity with a fixed answer.
type StaticIdentity struct {
	UserID string
}

func (s StaticIdentity) CurrentUser() (string, bool) {
	return s.UserID, s.UserID != ""
}
