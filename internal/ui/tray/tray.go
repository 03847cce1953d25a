package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"resttimer/internal/core/timekeeper"
)

const menuTitle = "RestTimer"

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences         func()
	OnTogglePause         func()
	OnSkipBreak           func()
	OnReset               func()
	OnToggleLaunchAtLogin func()
	OnToggleSkipButton    func()
	OnQuit                func()
}

// Manager handles system tray state. Its methods must run on the fyne
// main goroutine.
type Manager struct {
	app          desktop.App
	statusItem   *fyne.MenuItem
	pauseItem    *fyne.MenuItem
	skipItem     *fyne.MenuItem
	resetItem    *fyne.MenuItem
	launchItem   *fyne.MenuItem
	skipFlagItem *fyne.MenuItem
	callbacks    Callbacks
	phase        timekeeper.Phase
	statusLabel  string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		phase:       timekeeper.PhaseWorking,
		statusLabel: "starting...",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true

	manager.pauseItem = fyne.NewMenuItem("Pause", invoke(&manager.callbacks.OnTogglePause))
	manager.skipItem = fyne.NewMenuItem("Skip break", invoke(&manager.callbacks.OnSkipBreak))
	manager.resetItem = fyne.NewMenuItem("Restart work timer", invoke(&manager.callbacks.OnReset))
	manager.launchItem = fyne.NewMenuItem("Launch at login", invoke(&manager.callbacks.OnToggleLaunchAtLogin))
	manager.skipFlagItem = fyne.NewMenuItem("Show skip button", invoke(&manager.callbacks.OnToggleSkipButton))

	manager.applyPhase()
	manager.refreshStatus()
	return manager
}

// invoke defers the nil check to click time so callbacks may be set late.
func invoke(callback *func()) func() {
	return func() {
		if *callback != nil {
			(*callback)()
		}
	}
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	if status == manager.statusLabel {
		return
	}
	manager.statusLabel = status
	manager.refreshStatus()
}

// SetPhase updates the pause and skip items for phase.
func (manager *Manager) SetPhase(phase timekeeper.Phase) {
	manager.phase = phase
	manager.applyPhase()
	manager.refreshMenu()
}

// SetFlags updates the check marks of the toggle items.
func (manager *Manager) SetFlags(launchAtLogin, showSkipButton bool) {
	manager.launchItem.Checked = launchAtLogin
	manager.skipFlagItem.Checked = showSkipButton
	manager.refreshMenu()
}

func (manager *Manager) applyPhase() {
	if manager.phase == timekeeper.PhasePaused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.skipItem.Disabled = manager.phase != timekeeper.PhaseOnBreak
}

func (manager *Manager) refreshStatus() {
	manager.statusItem.Label = manager.statusLabel
	manager.refreshMenu()
}

func (manager *Manager) menu() *fyne.Menu {
	return fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.pauseItem,
		manager.skipItem,
		manager.resetItem,
		fyne.NewMenuItemSeparator(),
		manager.launchItem,
		manager.skipFlagItem,
		fyne.NewMenuItem("Preferences", invoke(&manager.callbacks.OnPreferences)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", invoke(&manager.callbacks.OnQuit)),
	)
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu())
	}
}
