package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/workout"
)

// StorageKey is the local storage key for the current snapshot format. A new
// format gets a new key instead of migrating old records.
const StorageKey = "workout_state_v2"

// Version is the snapshot format version stored in every record.
const Version = 2

// ErrCorrupt is returned by Decode for records that fail validation.
var ErrCorrupt = errors.New("corrupt workout snapshot")

// Snapshot is the persisted form of a workout session. Times are Unix
// milliseconds.
type Snapshot struct {
	Version       int               `json:"version"`
	IsActive      bool              `json:"isActive"`
	Status        string            `json:"status"`
	SessionID     string            `json:"sessionId"`
	ExerciseIndex int               `json:"exerciseIndex"`
	SetIndex      int               `json:"setIndex"`
	TimerPhase    string            `json:"timerPhase"`
	StartedAt     *int64            `json:"startedAt"`
	ElapsedMs     int64             `json:"elapsedMs"`
	Exercises     []models.Exercise `json:"exercises"`
	LastSavedAt   int64             `json:"lastSavedAt"`
	FromCatalog   bool              `json:"fromCatalog,omitempty"`
}

// FromSession builds a snapshot of s stamped with savedAt.
func FromSession(s workout.Session, savedAt time.Time) Snapshot {
	snap := Snapshot{
		Version:       Version,
		IsActive:      s.IsActive(),
		Status:        s.Status.String(),
		SessionID:     s.ID,
		ExerciseIndex: s.ExerciseIndex,
		SetIndex:      s.SetIndex,
		TimerPhase:    s.Phase.String(),
		ElapsedMs:     s.Elapsed.Milliseconds(),
		Exercises:     models.CloneExercises(s.Exercises),
		LastSavedAt:   savedAt.UnixMilli(),
		FromCatalog:   s.FromCatalog,
	}
	if snap.Exercises == nil {
		snap.Exercises = []models.Exercise{}
	}
	if !s.StartedAt.IsZero() {
		ms := s.StartedAt.UnixMilli()
		snap.StartedAt = &ms
	}
	return snap
}

// Session converts a validated snapshot back into a session.
func (s Snapshot) Session() (workout.Session, error) {
	status, err := workout.ParseStatus(s.Status)
	if err != nil {
		return workout.Session{}, err
	}
	phase, err := workout.ParsePhase(s.TimerPhase)
	if err != nil {
		return workout.Session{}, err
	}
	out := workout.Session{
		Status:        status,
		ID:            s.SessionID,
		ExerciseIndex: s.ExerciseIndex,
		SetIndex:      s.SetIndex,
		Phase:         phase,
		Elapsed:       time.Duration(s.ElapsedMs) * time.Millisecond,
		Exercises:     models.CloneExercises(s.Exercises),
		LastSavedAt:   time.UnixMilli(s.LastSavedAt).UTC(),
		FromCatalog:   s.FromCatalog,
	}
	if s.StartedAt != nil {
		out.StartedAt = time.UnixMilli(*s.StartedAt).UTC()
	}
	return out, nil
}

// Remote returns the reduced view mirrored to the remote store.
func (s Snapshot) Remote(userID string) models.RemoteSession {
	r := models.RemoteSession{
		SessionID:     s.SessionID,
		UserID:        userID,
		IsActive:      s.IsActive,
		ExerciseIndex: s.ExerciseIndex,
		SetIndex:      s.SetIndex,
		ElapsedMs:     s.ElapsedMs,
		Exercises:     models.CloneExercises(s.Exercises),
		FromCatalog:   s.FromCatalog,
		LastUpdatedAt: time.UnixMilli(s.LastSavedAt).UTC(),
	}
	if s.StartedAt != nil {
		t := time.UnixMilli(*s.StartedAt).UTC()
		r.StartedAt = &t
	}
	return r
}

// FromRemote rebuilds a snapshot from a remote record. The remote view does
// not carry the rest phase, so the workout resumes in the lifting phase.
func FromRemote(r models.RemoteSession) Snapshot {
	status := workout.StatusPaused
	if r.IsActive {
		status = workout.StatusActive
	}
	snap := Snapshot{
		Version:       Version,
		IsActive:      r.IsActive,
		Status:        status.String(),
		SessionID:     r.SessionID,
		ExerciseIndex: r.ExerciseIndex,
		SetIndex:      r.SetIndex,
		TimerPhase:    workout.PhaseNone.String(),
		ElapsedMs:     r.ElapsedMs,
		Exercises:     models.CloneExercises(r.Exercises),
		LastSavedAt:   r.LastUpdatedAt.UnixMilli(),
		FromCatalog:   r.FromCatalog,
	}
	if r.StartedAt != nil {
		ms := r.StartedAt.UnixMilli()
		snap.StartedAt = &ms
	}
	return snap
}

// Encode serializes a snapshot.
func Encode(s Snapshot) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(b), nil
}

type jsonKind int

const (
	kindNull jsonKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

var requiredFields = []struct {
	name  string
	kinds []jsonKind
}{
	{"version", []jsonKind{kindNumber}},
	{"isActive", []jsonKind{kindBool}},
	{"status", []jsonKind{kindString}},
	{"sessionId", []jsonKind{kindString}},
	{"exerciseIndex", []jsonKind{kindNumber}},
	{"setIndex", []jsonKind{kindNumber}},
	{"timerPhase", []jsonKind{kindString}},
	{"startedAt", []jsonKind{kindNumber, kindNull}},
	{"elapsedMs", []jsonKind{kindNumber}},
	{"exercises", []jsonKind{kindArray}},
	{"lastSavedAt", []jsonKind{kindNumber}},
}

// Decode parses and validates a stored snapshot. Any structural problem is
// reported as ErrCorrupt.
func Decode(raw string) (Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for _, f := range requiredFields {
		v, ok := fields[f.name]
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: missing %s", ErrCorrupt, f.name)
		}
		if !oneOf(kindOf(v), f.kinds) {
			return Snapshot{}, fmt.Errorf("%w: %s has wrong type", ErrCorrupt, f.name)
		}
	}

	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate checks the decoded values.
func (s Snapshot) Validate() error {
	if s.Version != Version {
		return fmt.Errorf("%w: version %d", ErrCorrupt, s.Version)
	}
	status, err := workout.ParseStatus(s.Status)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.IsActive != (status == workout.StatusActive) {
		return fmt.Errorf("%w: isActive disagrees with status %s", ErrCorrupt, s.Status)
	}
	if _, err := workout.ParsePhase(s.TimerPhase); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.ExerciseIndex < 0 || s.SetIndex < 0 || s.ElapsedMs < 0 {
		return fmt.Errorf("%w: negative progress", ErrCorrupt)
	}
	if err := models.ValidateExercises(s.Exercises); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func kindOf(v json.RawMessage) jsonKind {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return kindNull
	}
	switch v[0] {
	case 'n':
		return kindNull
	case 't', 'f':
		return kindBool
	case '"':
		return kindString
	case '[':
		return kindArray
	case '{':
		return kindObject
	}
	return kindNumber
}

func oneOf(k jsonKind, kinds []jsonKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
