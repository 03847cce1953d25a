package platform

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// IdleProvider returns the duration since last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}

// LockListener receives screen lock transitions.
type LockListener interface {
	ScreenLocked()
	ScreenUnlocked()
}

// IdleLockOptions tunes WatchIdleAsLock.
type IdleLockOptions struct {
	// Threshold is the input-free time treated as a locked screen.
	Threshold time.Duration
	// Interval is the polling period.
	Interval time.Duration
}

// WatchIdleAsLock reports a lock once the user has been idle for the
// threshold and an unlock when input resumes. It is the fallback for
// sessions without lock signals. It returns ErrUnsupported if the provider
// cannot measure idle time, and nil when ctx is cancelled.
func WatchIdleAsLock(ctx context.Context, provider IdleProvider, options IdleLockOptions, listener LockListener, logger zerolog.Logger) error {
	if options.Threshold <= 0 {
		options.Threshold = 5 * time.Minute
	}
	if options.Interval <= 0 {
		options.Interval = 5 * time.Second
	}
	log := logger.With().Str("component", "idle_lock").Logger()

	ticker := time.NewTicker(options.Interval)
	defer ticker.Stop()

	locked := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		idle, err := provider.IdleDuration()
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				return err
			}
			log.Debug().Err(err).Msg("idle probe failed")
			continue
		}

		switch {
		case !locked && idle >= options.Threshold:
			locked = true
			log.Debug().Dur("idle", idle).Msg("idle threshold reached")
			listener.ScreenLocked()
		case locked && idle < options.Threshold:
			locked = false
			log.Debug().Dur("idle", idle).Msg("input resumed")
			listener.ScreenUnlocked()
		}
	}
}
