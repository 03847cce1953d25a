// Package gui runs the tray application: status menu, break overlay and
// preferences window.
package gui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"resttimer/internal/app"
	"resttimer/internal/core/model"
	"resttimer/internal/core/timekeeper"
	"resttimer/internal/ui/overlay"
	"resttimer/internal/ui/preferences"
	"resttimer/internal/ui/status"
	"resttimer/internal/ui/tray"
)

// ErrTrayUnsupported is returned when the fyne driver has no system tray.
var ErrTrayUnsupported = errors.New("system tray unsupported on this platform")

const appID = "app.resttimer"

// Host connects the fyne widgets to an app.App.
type Host struct {
	fyneApp     fyne.App
	desktopApp  desktop.App
	application *app.App
	keeper      *timekeeper.TimeKeeper
	log         zerolog.Logger

	tray        *tray.Manager
	overlay     *overlay.Window
	preferences *preferences.Window
	mainWindow  fyne.Window

	config model.Config
	phase  timekeeper.Phase
	// post runs fn on the fyne goroutine.
	post func(fn func())
}

func newHost(fyneApp fyne.App, application *app.App, logger zerolog.Logger) *Host {
	keeper := application.Keeper()
	host := &Host{
		fyneApp:     fyneApp,
		application: application,
		keeper:      keeper,
		log:         logger.With().Str("component", "gui").Logger(),
		config:      keeper.Config(),
		phase:       timekeeper.PhaseWorking,
		post:        fyne.Do,
	}
	host.desktopApp, _ = fyneApp.(desktop.App)

	host.overlay = overlay.New(fyneApp, host.overlayConfig())
	host.overlay.SetOnSkip(keeper.SkipBreak)

	host.preferences = preferences.New(fyneApp, host.config, host.apply)

	host.tray = tray.New(host.desktopApp, tray.Callbacks{
		OnPreferences:         host.preferences.Show,
		OnTogglePause:         keeper.TogglePause,
		OnSkipBreak:           keeper.SkipBreak,
		OnReset:               keeper.ResetTimer,
		OnToggleLaunchAtLogin: host.toggleLaunchAtLogin,
		OnToggleSkipButton:    host.toggleSkipButton,
		OnQuit:                host.quit,
	})
	host.tray.SetFlags(host.config.LaunchAtLogin, host.config.ShowSkipButton)

	host.mainWindow = fyneApp.NewWindow("RestTimer")
	host.mainWindow.SetContent(widget.NewLabel("RestTimer is running in the system tray."))
	host.mainWindow.SetCloseIntercept(host.mainWindow.Hide)
	if host.desktopApp != nil {
		host.desktopApp.SetSystemTrayWindow(host.mainWindow)
	}
	host.applyDockIcon()
	host.updateTrayIcon()

	application.OnConfigChanged(func(config model.Config) {
		host.post(func() { host.setConfig(config) })
	})
	return host
}

// Run shows the tray and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, application *app.App, logger zerolog.Logger) error {
	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.SetIcon(theme.HistoryIcon())
	if _, ok := fyneApp.(desktop.App); !ok {
		return ErrTrayUnsupported
	}
	host := newHost(fyneApp, application, logger)

	appCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The event and quit goroutines post to the fyne loop, so they are not
	// waited on once that loop has stopped.
	events := host.keeper.Subscribe(16)
	go func() {
		for event := range events {
			host.post(func() { host.handle(event) })
		}
	}()

	uiDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-uiDone:
			default:
				fyne.Do(fyneApp.Quit)
			}
		case <-uiDone:
		}
	}()

	appDone := make(chan struct{})
	go func() {
		defer close(appDone)
		if err := application.Run(appCtx); err != nil {
			host.log.Error().Err(err).Msg("app stopped")
		}
	}()

	fyneApp.Run()
	close(uiDone)
	cancel()
	<-appDone
	return nil
}

func (host *Host) handle(event timekeeper.Event) {
	switch event.Type {
	case timekeeper.EventPhaseChange:
		host.phase = event.Phase
		host.tray.SetPhase(event.Phase)
		host.updateTrayIcon()
		remaining := host.keeper.Remaining()
		host.tray.SetStatus(status.Line(event.Phase, remaining))
		if event.Phase == timekeeper.PhaseOnBreak {
			host.overlay.Show(remaining)
		} else {
			host.overlay.Hide()
		}
	case timekeeper.EventEarlyNotify:
		host.phase = timekeeper.PhaseEarlyWarned
		host.tray.SetStatus(status.Line(host.phase, event.Remaining))
		host.fyneApp.SendNotification(fyne.NewNotification("RestTimer", "Break starts in "+status.Clock(event.Remaining)))
	case timekeeper.EventTick:
		host.tray.SetStatus(status.Line(event.Phase, event.Remaining))
		if event.Phase == timekeeper.PhaseOnBreak {
			host.overlay.SetRemaining(event.Remaining)
		}
	case timekeeper.EventConfigRejected:
		host.log.Warn().Err(event.Err).Msg("settings change rejected")
		host.preferences.UpdateConfig(host.keeper.Config())
	}
}

// apply is the preferences callback; the keeper validates, the app persists.
func (host *Host) apply(config model.Config) error {
	if err := host.application.Apply(config); err != nil {
		return err
	}
	host.setConfig(config)
	return nil
}

func (host *Host) setConfig(config model.Config) {
	host.config = config
	host.overlay.UpdateConfig(host.overlayConfig())
	host.preferences.UpdateConfig(config)
	host.tray.SetFlags(config.LaunchAtLogin, config.ShowSkipButton)
	host.applyDockIcon()
}

func (host *Host) toggleLaunchAtLogin() {
	config := host.keeper.Config()
	config.LaunchAtLogin = !config.LaunchAtLogin
	if err := host.apply(config); err != nil {
		host.log.Warn().Err(err).Msg("toggle launch at login")
	}
}

func (host *Host) toggleSkipButton() {
	config := host.keeper.Config()
	config.ShowSkipButton = !config.ShowSkipButton
	if err := host.apply(config); err != nil {
		host.log.Warn().Err(err).Msg("toggle skip button")
	}
}

func (host *Host) quit() {
	if !host.application.QuitRequested() {
		host.fyneApp.SendNotification(fyne.NewNotification("RestTimer", "Finish your break before quitting."))
		return
	}
	host.fyneApp.Quit()
}

func (host *Host) overlayConfig() overlay.Config {
	config := overlay.DefaultConfig()
	config.ShowSkip = host.config.ShowSkipButton
	return config
}

// applyDockIcon keeps a regular window open while the dock/taskbar icon
// is wanted; a tray-only app has no open windows.
func (host *Host) applyDockIcon() {
	if host.config.ShowDockIcon {
		host.mainWindow.Show()
		return
	}
	host.mainWindow.Hide()
}

func (host *Host) updateTrayIcon() {
	if host.desktopApp == nil {
		return
	}
	if host.phase == timekeeper.PhasePaused {
		host.desktopApp.SetSystemTrayIcon(theme.MediaPauseIcon())
		return
	}
	host.desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
}
