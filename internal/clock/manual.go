package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock that only moves when Advance or Set is called.
// Callbacks run synchronously on the goroutine that advances the clock,
// in fire-time order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	clock  *Manual
	fireAt time.Time
	seq    uint64
	fn     func()
	active bool
}

// NewManual returns a manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (clock *Manual) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

// AfterFunc registers fn to run once the clock reaches now+delay.
func (clock *Manual) AfterFunc(delay time.Duration, fn func()) Timer {
	if delay < 0 {
		delay = 0
	}
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.seq++
	timer := &manualTimer{
		clock:  clock,
		fireAt: clock.now.Add(delay),
		seq:    clock.seq,
		fn:     fn,
		active: true,
	}
	clock.timers = append(clock.timers, timer)
	return timer
}

// Advance moves the clock forward by delta, firing due timers on the way.
func (clock *Manual) Advance(delta time.Duration) {
	clock.Set(clock.Now().Add(delta))
}

// Set moves the clock to target. Time never moves backwards.
func (clock *Manual) Set(target time.Time) {
	for {
		clock.mu.Lock()
		next := clock.nextDueLocked(target)
		if next == nil {
			if target.After(clock.now) {
				clock.now = target
			}
			clock.mu.Unlock()
			return
		}
		next.active = false
		if next.fireAt.After(clock.now) {
			clock.now = next.fireAt
		}
		clock.removeLocked(next)
		fn := next.fn
		clock.mu.Unlock()

		fn()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (clock *Manual) Pending() int {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return len(clock.timers)
}

func (clock *Manual) nextDueLocked(target time.Time) *manualTimer {
	due := make([]*manualTimer, 0, len(clock.timers))
	for _, timer := range clock.timers {
		if !timer.fireAt.After(target) {
			due = append(due, timer)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].fireAt.Equal(due[j].fireAt) {
			return due[i].seq < due[j].seq
		}
		return due[i].fireAt.Before(due[j].fireAt)
	})
	return due[0]
}

func (clock *Manual) removeLocked(target *manualTimer) {
	for index, timer := range clock.timers {
		if timer == target {
			clock.timers = append(clock.timers[:index], clock.timers[index+1:]...)
			return
		}
	}
}

func (timer *manualTimer) Stop() bool {
	timer.clock.mu.Lock()
	defer timer.clock.mu.Unlock()
	if !timer.active {
		return false
	}
	timer.active = false
	timer.clock.removeLocked(timer)
	return true
}
