package workout

import (
	"fmt"
	"time"
)

// EffectKind enumerates the side effects a transition can request.
type EffectKind int

const (
	// EffectBeginStopwatch starts the stopwatch from Effect.Elapsed.
	EffectBeginStopwatch EffectKind = iota
	EffectPauseStopwatch
	EffectResetStopwatch
	// EffectStartCountdown starts Effect.TimerID for Effect.Duration.
	EffectStartCountdown
	// EffectStopCountdown stops Effect.TimerID.
	EffectStopCountdown
	EffectStopAllCountdowns
	EffectSave
	EffectForceSave
	EffectClearSnapshot
	EffectNotifyStarted
	EffectNotifyComplete
)

var effectNames = [...]string{
	"begin_stopwatch", "pause_stopwatch", "reset_stopwatch",
	"start_countdown", "stop_countdown", "stop_all_countdowns",
	"save", "force_save", "clear_snapshot",
	"notify_started", "notify_complete",
}

func (k EffectKind) String() string {
	if k < 0 || int(k) >= len(effectNames) {
		return fmt.Sprintf("effect(%d)", int(k))
	}
	return effectNames[k]
}

// Effect is one side effect requested by a transition. Effects must be
// applied in the order returned.
type Effect struct {
	Kind     EffectKind
	TimerID  string
	Phase    Phase
	Duration time.Duration
	Elapsed  time.Duration
}

func (e Effect) String() string {
	switch e.Kind {
	case EffectStartCountdown:
		return fmt.Sprintf("%s(%s, %s)", e.Kind, e.TimerID, e.Duration)
	case EffectStopCountdown:
		return fmt.Sprintf("%s(%s)", e.Kind, e.TimerID)
	case EffectBeginStopwatch:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Elapsed)
	}
	return e.Kind.String()
}

// Kinds lists the kinds of effects, for compact assertions and logging.
func Kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, len(effects))
	for i, e := range effects {
		out[i] = e.Kind
	}
	return out
}
