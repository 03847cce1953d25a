package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualFiresInOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	manual := NewManual(start)

	var fired []string
	var firedAt []time.Duration
	record := func(name string) func() {
		return func() {
			fired = append(fired, name)
			firedAt = append(firedAt, manual.Now().Sub(start))
		}
	}
	manual.AfterFunc(30*time.Second, record("b"))
	manual.AfterFunc(10*time.Second, record("a"))
	manual.AfterFunc(30*time.Second, record("c"))

	manual.Advance(time.Minute)

	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second, 30 * time.Second}, firedAt)
	assert.Equal(t, start.Add(time.Minute), manual.Now())
	assert.Equal(t, 0, manual.Pending())
}

func TestManualStop(t *testing.T) {
	manual := NewManual(time.Unix(0, 0))
	called := false
	timer := manual.AfterFunc(time.Second, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	manual.Advance(2 * time.Second)
	assert.False(t, called)
}

func TestManualTimerScheduledFromCallback(t *testing.T) {
	start := time.Unix(0, 0)
	manual := NewManual(start)
	var ticks []time.Duration
	var tick func()
	tick = func() {
		ticks = append(ticks, manual.Now().Sub(start))
		manual.AfterFunc(time.Second, tick)
	}
	manual.AfterFunc(time.Second, tick)

	manual.Advance(3 * time.Second)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, ticks)
	assert.Equal(t, 1, manual.Pending())
}
