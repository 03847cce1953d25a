//go:build linux

package platform

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

// Screen savers that emit ActiveChanged(bool) on the session bus.
var screenSaverInterfaces = []string{
	"org.freedesktop.ScreenSaver",
	"org.gnome.ScreenSaver",
	"org.cinnamon.ScreenSaver",
	"org.mate.ScreenSaver",
}

// WatchScreenLock forwards screen saver ActiveChanged signals to listener
// until ctx is cancelled.
func WatchScreenLock(ctx context.Context, listener LockListener, logger zerolog.Logger) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w: %w", ErrUnsupported, err)
	}
	defer conn.Close()

	for _, iface := range screenSaverInterfaces {
		if err := conn.AddMatchSignal(
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember("ActiveChanged"),
		); err != nil {
			return fmt.Errorf("match %s: %w", iface, err)
		}
	}

	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	log := logger.With().Str("component", "lock_watch").Logger()
	log.Debug().Msg("listening for screen lock signals")

	for {
		select {
		case <-ctx.Done():
			return nil
		case signal, ok := <-signals:
			if !ok {
				return nil
			}
			active, ok := screenSaverActive(signal)
			if !ok {
				continue
			}
			log.Debug().Str("signal", signal.Name).Bool("active", active).Msg("screen saver changed")
			if active {
				listener.ScreenLocked()
			} else {
				listener.ScreenUnlocked()
			}
		}
	}
}

func screenSaverActive(signal *dbus.Signal) (bool, bool) {
	if signal == nil || len(signal.Body) != 1 {
		return false, false
	}
	for _, iface := range screenSaverInterfaces {
		if signal.Name == iface+".ActiveChanged" {
			active, ok := signal.Body[0].(bool)
			return active, ok
		}
	}
	return false, false
}
