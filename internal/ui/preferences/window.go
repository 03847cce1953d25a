package preferences

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"resttimer/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window   fyne.Window
	current  model.Config
	onApply  func(model.Config) error
	work     durationEntries
	early    durationEntries
	rest     durationEntries
	launch   *widget.Check
	skip     *widget.Check
	dock     *widget.Check
	media    *widget.Check
	lastErr  error
	showErrs bool
}

type durationEntries struct {
	minutes *widget.Entry
	seconds *widget.Entry
}

func newDurationEntries() durationEntries {
	return durationEntries{minutes: widget.NewEntry(), seconds: widget.NewEntry()}
}

func (entries durationEntries) row(label string) fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel(label),
		layout.NewSpacer(),
		entries.minutes, widget.NewLabel("min"),
		entries.seconds, widget.NewLabel("sec"),
	)
}

func (entries durationEntries) set(fields DurationFields) {
	entries.minutes.SetText(fields.Minutes)
	entries.seconds.SetText(fields.Seconds)
}

func (entries durationEntries) fields() DurationFields {
	return DurationFields{Minutes: entries.minutes.Text, Seconds: entries.seconds.Text}
}

// New creates a preferences window. onApply receives every parsed form and
// returns the validation error, if any.
func New(app fyne.App, config model.Config, onApply func(model.Config) error) *Window {
	window := app.NewWindow("RestTimer Settings")

	prefs := &Window{
		window:   window,
		current:  config,
		onApply:  onApply,
		work:     newDurationEntries(),
		early:    newDurationEntries(),
		rest:     newDurationEntries(),
		launch:   widget.NewCheck("Launch at login", nil),
		skip:     widget.NewCheck("Show skip button", nil),
		dock:     widget.NewCheck("Show dock icon", nil),
		media:    widget.NewCheck("Pause while media is playing", nil),
		showErrs: true,
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.launch,
		prefs.skip,
		prefs.dock,
		prefs.media,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Timing", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.work.row("Work"),
		prefs.early.row("Early notice"),
		prefs.rest.row("Break"),
	)

	resetButton := widget.NewButton("Defaults", prefs.handleDefaults)
	applyButton := widget.NewButton("Apply", prefs.handleApply)
	applyButton.Importance = widget.HighImportance
	buttons := container.NewHBox(resetButton, layout.NewSpacer(), applyButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 420))
	window.SetCloseIntercept(window.Hide)

	prefs.load(config)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateConfig replaces window values with the active config.
func (prefs *Window) UpdateConfig(config model.Config) {
	prefs.current = config
	prefs.load(config)
}

// Current returns the config the form was last loaded with.
func (prefs *Window) Current() model.Config {
	return prefs.current
}

func (prefs *Window) load(config model.Config) {
	settings := FromConfig(config)
	prefs.work.set(settings.Work)
	prefs.early.set(settings.EarlyNotify)
	prefs.rest.set(settings.Break)
	prefs.launch.SetChecked(settings.LaunchAtLogin)
	prefs.skip.SetChecked(settings.ShowSkipButton)
	prefs.dock.SetChecked(settings.ShowDockIcon)
	prefs.media.SetChecked(settings.EnableMediaDetection)
}

func (prefs *Window) settings() Settings {
	return Settings{
		Work:                 prefs.work.fields(),
		EarlyNotify:          prefs.early.fields(),
		Break:                prefs.rest.fields(),
		LaunchAtLogin:        prefs.launch.Checked,
		ShowSkipButton:       prefs.skip.Checked,
		ShowDockIcon:         prefs.dock.Checked,
		EnableMediaDetection: prefs.media.Checked,
	}
}

// handleDefaults only fills the form; nothing is applied until Apply.
func (prefs *Window) handleDefaults() {
	defaults := model.DefaultConfig()
	settings := FromConfig(defaults)
	prefs.work.set(settings.Work)
	prefs.early.set(settings.EarlyNotify)
	prefs.rest.set(settings.Break)
}

func (prefs *Window) handleApply() {
	prefs.lastErr = nil

	config, err := prefs.settings().Config()
	if err == nil && prefs.onApply != nil {
		err = prefs.onApply(config)
	}
	if err != nil {
		prefs.lastErr = err
		prefs.load(prefs.current)
		if prefs.showErrs {
			dialog.ShowError(errors.New(rejectionMessage(err)), prefs.window)
		}
		return
	}

	prefs.current = config
	prefs.window.Hide()
}

func rejectionMessage(err error) string {
	var invalid *model.InvalidConfigError
	if !errors.As(err, &invalid) {
		return err.Error()
	}
	switch invalid.Reason {
	case model.ReasonEarlyNotifyTooLong:
		return "The early notice must be shorter than the work duration."
	case model.ReasonBreakTooShort:
		return "The break must be longer than zero."
	default:
		return "Durations cannot be negative."
	}
}
