// Package status renders the remaining time the way every host shows it.
package status

import (
	"fmt"
	"time"

	"resttimer/internal/core/timekeeper"
)

// Placeholder is shown when no time remains in the phase.
const Placeholder = "--:--"

// Clock formats remaining as mm:ss, truncated to whole seconds. Minutes are
// not wrapped into hours.
func Clock(remaining time.Duration) string {
	seconds := int(remaining / time.Second)
	if seconds <= 0 {
		return Placeholder
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Line describes the phase and its remaining time in one short line.
func Line(phase timekeeper.Phase, remaining time.Duration) string {
	switch phase {
	case timekeeper.PhaseWorking:
		return "Next break in " + Clock(remaining)
	case timekeeper.PhaseEarlyWarned:
		return "Break starts in " + Clock(remaining)
	case timekeeper.PhaseOnBreak:
		return "On break, " + Clock(remaining) + " left"
	case timekeeper.PhasePaused:
		return "Paused (" + Clock(remaining) + " left)"
	default:
		return Clock(remaining)
	}
}
