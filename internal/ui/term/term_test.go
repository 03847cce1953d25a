package term

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"resttimer/internal/core/timekeeper"
)

var _ timekeeper.Sink = (*Sink)(nil)

func TestSinkWritesEvents(t *testing.T) {
	var out bytes.Buffer
	sink := New(&out, Options{BreakMessage: "Rest your eyes"})

	sink.PhaseChanged(timekeeper.PhaseWorking)
	sink.Tick(270 * time.Second)
	sink.EarlyNotify(30 * time.Second)
	sink.Tick(29 * time.Second)
	sink.PhaseChanged(timekeeper.PhaseOnBreak)
	sink.Tick(0)
	sink.ConfigRejected(errors.New("early notify too long"))

	text := out.String()
	assert.Contains(t, text, "cycle running")
	assert.Contains(t, text, "Next break in 04:30")
	assert.Contains(t, text, "break in 00:30")
	assert.Contains(t, text, "Break starts in 00:29")
	assert.Contains(t, text, "Rest your eyes")
	assert.Contains(t, text, "On break, --:-- left")
	assert.Contains(t, text, "early notify too long")
	assert.Len(t, strings.Split(strings.TrimSpace(text), "\n"), 7)
}

func TestSinkThrottlesTicks(t *testing.T) {
	var out bytes.Buffer
	sink := New(&out, Options{TickEvery: time.Hour})

	for i := 0; i < 10; i++ {
		sink.Tick(time.Duration(100-i) * time.Second)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "01:40")
}
