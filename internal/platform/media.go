package platform

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// MediaListener receives playback state. Playing is reported on every poll
// while media plays; a stop is reported once.
type MediaListener interface {
	MediaPlaybackChanged(playing bool)
}

const defaultMediaPollInterval = 3 * time.Second

// WatchMediaPlayback polls the desktop's media players and reports the
// aggregate playing state to listener. It returns ErrUnsupported where no
// media probe exists, and nil when ctx is cancelled.
func WatchMediaPlayback(ctx context.Context, interval time.Duration, listener MediaListener, logger zerolog.Logger) error {
	probe, closeProbe, err := newMediaProbe()
	if err != nil {
		return err
	}
	defer closeProbe()
	return pollMedia(ctx, interval, probe, listener, logger)
}

type mediaProbe func() (bool, error)

func pollMedia(ctx context.Context, interval time.Duration, probe mediaProbe, listener MediaListener, logger zerolog.Logger) error {
	if interval <= 0 {
		interval = defaultMediaPollInterval
	}
	log := logger.With().Str("component", "media_watch").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	playing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now, err := probe()
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				return err
			}
			log.Debug().Err(err).Msg("media probe failed")
			continue
		}
		if now != playing {
			log.Debug().Bool("playing", now).Msg("media playback changed")
		} else if !now {
			continue
		}
		playing = now
		listener.MediaPlaybackChanged(playing)
	}
}
