// Package term prints cycle events to a terminal for headless runs.
package term

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"resttimer/internal/core/timekeeper"
	"resttimer/internal/ui/status"
)

var (
	phaseStyle = lipgloss.NewStyle().Bold(true)

	workStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#1f7a1f", Dark: "#7fd67f"})

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#a15c00", Dark: "#ffcc66"}).
		Bold(true)

	breakStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#93c5fd"}).
		Bold(true)

	dimStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"})

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}).
		Bold(true)
)

// Options configures a Sink.
type Options struct {
	// TickEvery limits how often progress lines are printed. Zero prints
	// every tick.
	TickEvery time.Duration
	// BreakMessage is printed when a break starts.
	BreakMessage string
}

// Sink writes one line per cycle event. It implements timekeeper.Sink.
type Sink struct {
	mu      sync.Mutex
	out     io.Writer
	limiter *rate.Limiter
	message string
	phase   timekeeper.Phase
}

// New returns a Sink writing to out.
func New(out io.Writer, options Options) *Sink {
	limit := rate.Inf
	if options.TickEvery > 0 {
		limit = rate.Every(options.TickEvery)
	}
	message := options.BreakMessage
	if message == "" {
		message = "Time for a break. Stand up and look away from the screen."
	}
	return &Sink{
		out:     out,
		limiter: rate.NewLimiter(limit, 1),
		message: message,
		phase:   timekeeper.PhaseWorking,
	}
}

func (sink *Sink) PhaseChanged(phase timekeeper.Phase) {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	sink.phase = phase
	switch phase {
	case timekeeper.PhaseWorking:
		sink.println(phaseStyle.Render("work") + " " + workStyle.Render("cycle running"))
	case timekeeper.PhaseOnBreak:
		sink.println(phaseStyle.Render("break") + " " + breakStyle.Render(sink.message))
	case timekeeper.PhasePaused:
		sink.println(phaseStyle.Render("pause") + " " + dimStyle.Render("cycle paused"))
	}
}

func (sink *Sink) EarlyNotify(remaining time.Duration) {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	sink.phase = timekeeper.PhaseEarlyWarned
	sink.println(warnStyle.Render("soon") + " break in " + status.Clock(remaining))
}

func (sink *Sink) Tick(remaining time.Duration) {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	if !sink.limiter.Allow() {
		return
	}
	sink.println(dimStyle.Render(status.Line(sink.phase, remaining)))
}

func (sink *Sink) ConfigRejected(err error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()

	sink.println(errorStyle.Render("settings rejected") + " " + err.Error())
}

func (sink *Sink) println(line string) {
	_, _ = fmt.Fprintln(sink.out, line)
}
