// Package triggers turns desktop signals into cycle operations.
package triggers

import (
	"sync"

	"github.com/rs/zerolog"

	"resttimer/internal/core/timekeeper"
)

// Controller is the subset of the TimeKeeper the adapter drives.
type Controller interface {
	Pause()
	Resume()
	ResetTimer()
	Snapshot() timekeeper.Snapshot
}

// Adapter maps lock, media and quit signals onto a Controller.
// All methods are safe for concurrent use.
type Adapter struct {
	controller Controller
	log        zerolog.Logger

	mu          sync.Mutex
	mediaPaused bool

	// pauseEpoch identifies the media pause; any resume or reset since
	// then moves the keeper's epoch on.
	pauseEpoch uint64
}

func New(controller Controller, logger zerolog.Logger) *Adapter {
	return &Adapter{
		controller: controller,
		log:        logger.With().Str("component", "triggers").Logger(),
	}
}

// ScreenLocked pauses the cycle.
func (adapter *Adapter) ScreenLocked() {
	if adapter.controller.Snapshot().Phase == timekeeper.PhasePaused {
		return
	}
	adapter.log.Debug().Msg("screen locked, pausing")
	adapter.controller.Pause()
}

// ScreenUnlocked starts a fresh work period. It does not resume the
// remainder saved by ScreenLocked.
func (adapter *Adapter) ScreenUnlocked() {
	adapter.mu.Lock()
	adapter.mediaPaused = false
	adapter.mu.Unlock()

	adapter.log.Debug().Msg("screen unlocked, resetting")
	adapter.controller.ResetTimer()
}

// MediaPlaybackChanged pauses work while media plays. Repeated playing
// reports pause a work phase that began after playback started, such as
// after a break or an unlock. When playback stops only a pause made here is
// resumed; a manual pause stays in place.
func (adapter *Adapter) MediaPlaybackChanged(playing bool) {
	snapshot := adapter.controller.Snapshot()
	if !snapshot.Config.EnableMediaDetection {
		return
	}

	adapter.mu.Lock()
	defer adapter.mu.Unlock()

	if playing {
		if adapter.mediaPaused || !snapshot.Phase.Active() {
			return
		}
		adapter.log.Debug().Msg("media playing, pausing")
		adapter.controller.Pause()
		adapter.mediaPaused = true
		adapter.pauseEpoch = snapshot.Epoch
		return
	}

	if !adapter.mediaPaused {
		return
	}
	adapter.mediaPaused = false
	if snapshot.Phase != timekeeper.PhasePaused || snapshot.Epoch != adapter.pauseEpoch {
		return
	}
	adapter.log.Debug().Msg("media stopped, resuming")
	adapter.controller.Resume()
}

// QuitRequested reports whether the process may exit now.
func (adapter *Adapter) QuitRequested() bool {
	if adapter.controller.Snapshot().PreventingQuit {
		adapter.log.Info().Msg("quit refused during break")
		return false
	}
	return true
}
