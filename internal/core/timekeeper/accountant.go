package timekeeper

import "time"

type timerKind int

const (
	kindEarlyNotify timerKind = iota
	kindPhaseEnd
)

func (kind timerKind) String() string {
	switch kind {
	case kindEarlyNotify:
		return "early_notify"
	case kindPhaseEnd:
		return "phase_end"
	default:
		return "unknown"
	}
}

// scheduledEvent is a timer callback tagged with the epoch it was armed in.
type scheduledEvent struct {
	kind   timerKind
	fireAt time.Time
	epoch  uint64
}

type plannedTimer struct {
	kind  timerKind
	delay time.Duration
}

// cycleState is owned by the loop goroutine.
type cycleState struct {
	phase          Phase
	phaseStartedAt time.Time
	phaseDuration  time.Duration

	paused          bool
	pausedRemainder time.Duration
	pausedFromPhase Phase

	epoch uint64
}

// remaining is computed from the phase start, never from a countdown field.
func (state *cycleState) remaining(now time.Time) time.Duration {
	if state.phase == PhasePaused {
		return state.pausedRemainder
	}
	return remainingAt(state.phaseDuration, state.phaseStartedAt, now)
}

// begin starts a fresh phase instance of the given length at now.
func (state *cycleState) begin(phase Phase, duration time.Duration, now time.Time) {
	state.phase = phase
	state.phaseStartedAt = now
	state.phaseDuration = duration
	state.paused = false
	state.pausedRemainder = 0
	state.pausedFromPhase = ""
}

// pause records what is left of the active phase. The epoch is unchanged.
func (state *cycleState) pause(now time.Time) {
	remainder := state.remaining(now)
	from := PhaseWorking
	if state.phase == PhaseOnBreak {
		from = PhaseOnBreak
	}
	state.paused = true
	state.pausedRemainder = remainder
	state.pausedFromPhase = from
	state.phase = PhasePaused
}

// resume restores the interrupted phase with exactly the stored remainder
// and moves to a new epoch.
func (state *cycleState) resume(now time.Time) (Phase, time.Duration) {
	phase := state.pausedFromPhase
	remainder := state.pausedRemainder
	state.begin(phase, remainder, now)
	state.epoch++
	return phase, remainder
}

func remainingAt(duration time.Duration, startedAt, now time.Time) time.Duration {
	remaining := duration - now.Sub(startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// planWork returns the timers for a work phase with the given time left.
// The early warning is only armed while it still lies in the future.
func planWork(remaining, earlyNotify time.Duration) []plannedTimer {
	timers := make([]plannedTimer, 0, 2)
	if earlyNotify > 0 && remaining > earlyNotify {
		timers = append(timers, plannedTimer{kind: kindEarlyNotify, delay: remaining - earlyNotify})
	}
	return append(timers, plannedTimer{kind: kindPhaseEnd, delay: remaining})
}

func planBreak(remaining time.Duration) []plannedTimer {
	return []plannedTimer{{kind: kindPhaseEnd, delay: remaining}}
}
