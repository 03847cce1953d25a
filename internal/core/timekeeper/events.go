package timekeeper

import (
	"time"

	"resttimer/internal/core/model"
)

// Phase represents the current TimeKeeper mode.
type Phase string

const (
	PhaseWorking     Phase = "working"
	PhaseEarlyWarned Phase = "early_warned"
	PhaseOnBreak     Phase = "on_break"
	PhasePaused      Phase = "paused"
)

// Active reports whether the phase counts down toward a break.
func (phase Phase) Active() bool {
	return phase == PhaseWorking || phase == PhaseEarlyWarned
}

// EventType defines the type of TimeKeeper event.
type EventType string

const (
	EventPhaseChange    EventType = "phase_change"
	EventEarlyNotify    EventType = "early_notify"
	EventTick           EventType = "tick"
	EventConfigRejected EventType = "config_rejected"
)

// Event represents a TimeKeeper update for channel subscribers.
type Event struct {
	Type      EventType
	Phase     Phase
	Remaining time.Duration
	Err       error
	At        time.Time
}

// Snapshot is a consistent view of the cycle taken inside the event loop.
type Snapshot struct {
	Phase          Phase
	Remaining      time.Duration
	PausedFrom     Phase
	Epoch          uint64
	PreventingQuit bool
	Started        bool
	Config         model.Config
}
