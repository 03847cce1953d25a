//go:build linux

package platform

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix         = "org.mpris.MediaPlayer2."
	mprisObjectPath     = "/org/mpris/MediaPlayer2"
	mprisPlaybackStatus = "org.mpris.MediaPlayer2.Player.PlaybackStatus"
)

// newMediaProbe asks every MPRIS player on the session bus for its status.
func newMediaProbe() (mediaProbe, func(), error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, fmt.Errorf("connect session bus: %w: %w", ErrUnsupported, err)
	}

	probe := func() (bool, error) {
		var names []string
		if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
			return false, fmt.Errorf("list bus names: %w", err)
		}
		for _, name := range names {
			if !strings.HasPrefix(name, mprisPrefix) {
				continue
			}
			status, err := conn.Object(name, mprisObjectPath).GetProperty(mprisPlaybackStatus)
			if err != nil {
				continue
			}
			if value, ok := status.Value().(string); ok && value == "Playing" {
				return true, nil
			}
		}
		return false, nil
	}
	return probe, func() { _ = conn.Close() }, nil
}
