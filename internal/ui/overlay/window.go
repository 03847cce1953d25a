package overlay

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"resttimer/internal/ui/status"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
	Message    string
	ShowSkip   bool
}

// DefaultConfig returns the overlay look used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Opacity:    220,
		Fullscreen: true,
		Message:    "Time for a break!",
		ShowSkip:   true,
	}
}

// Window shows the break screen. Its methods must run on the fyne main
// goroutine.
type Window struct {
	window       fyne.Window
	config       Config
	background   *canvas.Rectangle
	messageLabel *canvas.Text
	timerLabel   *canvas.Text
	skipButton   *widget.Button
	onSkip       func()
	visible      bool
}

const (
	overlayWidthFraction  = float32(0.30)
	overlayHeightFraction = float32(0.30)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden overlay window.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("RestTimer")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{A: config.Opacity})

	messageLabel := canvas.NewText(config.Message, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	messageLabel.Alignment = fyne.TextAlignCenter
	messageLabel.TextStyle = fyne.TextStyle{Bold: true}
	messageLabel.TextSize = 32

	timerLabel := canvas.NewText(status.Placeholder, color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	timerLabel.TextSize = 24

	skipButton := widget.NewButton("Skip break", nil)
	skipButton.Importance = widget.HighImportance

	content := container.New(&breakLayout{}, messageLabel, timerLabel, skipButton)
	window.SetContent(container.NewStack(background, content))

	overlay := &Window{
		window:       window,
		config:       config,
		background:   background,
		messageLabel: messageLabel,
		timerLabel:   timerLabel,
		skipButton:   skipButton,
	}
	skipButton.OnTapped = func() {
		if overlay.onSkip != nil {
			overlay.onSkip()
		}
	}
	overlay.applySkip()
	return overlay
}

// Show brings the break screen up with remaining on the countdown.
func (overlay *Window) Show(remaining time.Duration) {
	overlay.SetRemaining(remaining)
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
	applyNativeOpacity(overlay.window, overlay.config.Opacity)
	overlay.visible = true
}

// Hide closes the overlay.
func (overlay *Window) Hide() {
	if !overlay.visible {
		return
	}
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
	overlay.visible = false
}

// Visible reports whether the break screen is up.
func (overlay *Window) Visible() bool {
	return overlay.visible
}

// SetRemaining updates the countdown.
func (overlay *Window) SetRemaining(remaining time.Duration) {
	text := status.Clock(remaining)
	if overlay.timerLabel.Text == text {
		return
	}
	overlay.timerLabel.Text = text
	overlay.timerLabel.Refresh()
}

// SetOnSkip sets skip handler.
func (overlay *Window) SetOnSkip(handler func()) {
	overlay.onSkip = handler
}

// UpdateConfig updates overlay visuals; a visible overlay is updated in place.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{A: config.Opacity}
	overlay.messageLabel.Text = config.Message
	overlay.applySkip()
	canvas.Refresh(overlay.background)
	overlay.messageLabel.Refresh()
	if overlay.visible {
		overlay.applyWindowMode()
	}
}

// Config returns the active overlay settings.
func (overlay *Window) Config() Config {
	return overlay.config
}

func (overlay *Window) applySkip() {
	if overlay.config.ShowSkip {
		overlay.skipButton.Show()
		return
	}
	overlay.skipButton.Hide()
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}

// breakLayout stacks message, countdown and skip button around the
// vertical center.
type breakLayout struct{}

const (
	breakLayoutGap     = float32(18)
	breakLayoutPadding = float32(20)
)

func (layout *breakLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 3 {
		return
	}
	total := layout.MinSize(objects).Height - breakLayoutPadding*2
	y := (size.Height - total) / 2
	if y < 0 {
		y = 0
	}

	for _, object := range objects {
		if !object.Visible() {
			continue
		}
		objectSize := object.MinSize()
		width := objectSize.Width
		if _, isButton := object.(*widget.Button); isButton {
			width *= 1.4
		} else {
			width = size.Width
		}
		if width > size.Width {
			width = size.Width
		}
		object.Move(fyne.NewPos((size.Width-width)/2, y))
		object.Resize(fyne.NewSize(width, objectSize.Height))
		y += objectSize.Height + breakLayoutGap
	}
}

func (layout *breakLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var width, height float32
	visible := 0
	for _, object := range objects {
		if !object.Visible() {
			continue
		}
		objectSize := object.MinSize()
		if objectSize.Width > width {
			width = objectSize.Width
		}
		height += objectSize.Height
		visible++
	}
	if visible > 1 {
		height += breakLayoutGap * float32(visible-1)
	}
	return fyne.NewSize(width+breakLayoutPadding*2, height+breakLayoutPadding*2)
}
