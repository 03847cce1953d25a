package platform

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mutterIdleDest   = "org.gnome.Mutter.IdleMonitor"
	mutterIdlePath   = dbus.ObjectPath("/org/gnome/Mutter/IdleMonitor/Core")
	mutterIdleMethod = "org.gnome.Mutter.IdleMonitor.GetIdletime"
)

// mutterIdle asks GNOME Shell, which also works under Wayland.
type mutterIdle struct {
	conn *dbus.Conn
}

func (provider mutterIdle) IdleDuration() (time.Duration, error) {
	var idleMillis uint64
	call := provider.conn.Object(mutterIdleDest, mutterIdlePath).Call(mutterIdleMethod, 0)
	if err := call.Store(&idleMillis); err != nil {
		return 0, fmt.Errorf("mutter idle monitor: %w", err)
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

type xprintidle struct {
	path string
}

func (provider xprintidle) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(provider.path).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse xprintidle output: %w", err)
	}
	return time.Duration(max(idleMillis, 0)) * time.Millisecond, nil
}

type unsupportedIdleProvider struct{}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrUnsupported
}

func newIdleProvider() IdleProvider {
	if conn, err := dbus.SessionBus(); err == nil {
		provider := mutterIdle{conn: conn}
		if _, err := provider.IdleDuration(); err == nil {
			return provider
		}
	}
	// xprintidle only sees X11 input.
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return unsupportedIdleProvider{}
	}
	if path, err := exec.LookPath("xprintidle"); err == nil {
		return xprintidle{path: path}
	}
	return unsupportedIdleProvider{}
}
