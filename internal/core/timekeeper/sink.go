package timekeeper

import (
	"sync"
	"time"
)

// Sink receives scheduler notifications. Methods are called from the
// TimeKeeper loop goroutine and must not block or call back into the
// TimeKeeper synchronously.
type Sink interface {
	PhaseChanged(phase Phase)
	EarlyNotify(remaining time.Duration)
	Tick(remaining time.Duration)
	ConfigRejected(err error)
}

// SinkFuncs adapts optional closures to Sink. Nil fields are ignored.
type SinkFuncs struct {
	OnPhaseChanged   func(Phase)
	OnEarlyNotify    func(time.Duration)
	OnTick           func(time.Duration)
	OnConfigRejected func(error)
}

func (funcs SinkFuncs) PhaseChanged(phase Phase) {
	if funcs.OnPhaseChanged != nil {
		funcs.OnPhaseChanged(phase)
	}
}

func (funcs SinkFuncs) EarlyNotify(remaining time.Duration) {
	if funcs.OnEarlyNotify != nil {
		funcs.OnEarlyNotify(remaining)
	}
}

func (funcs SinkFuncs) Tick(remaining time.Duration) {
	if funcs.OnTick != nil {
		funcs.OnTick(remaining)
	}
}

func (funcs SinkFuncs) ConfigRejected(err error) {
	if funcs.OnConfigRejected != nil {
		funcs.OnConfigRejected(err)
	}
}

// MultiSink forwards every notification to each non-nil sink in order.
type MultiSink []Sink

func (sinks MultiSink) PhaseChanged(phase Phase) {
	for _, sink := range sinks {
		if sink != nil {
			sink.PhaseChanged(phase)
		}
	}
}

func (sinks MultiSink) EarlyNotify(remaining time.Duration) {
	for _, sink := range sinks {
		if sink != nil {
			sink.EarlyNotify(remaining)
		}
	}
}

func (sinks MultiSink) Tick(remaining time.Duration) {
	for _, sink := range sinks {
		if sink != nil {
			sink.Tick(remaining)
		}
	}
}

func (sinks MultiSink) ConfigRejected(err error) {
	for _, sink := range sinks {
		if sink != nil {
			sink.ConfigRejected(err)
		}
	}
}

// fanout turns sink calls into Events for channel subscribers.
// Full subscriber channels drop the event.
type fanout struct {
	mu     sync.Mutex
	now    func() time.Time
	phase  func() Phase
	events []chan Event
	closed bool
}

func (fan *fanout) subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if fan.closed {
		close(ch)
		return ch
	}
	fan.events = append(fan.events, ch)
	return ch
}

func (fan *fanout) close() {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if fan.closed {
		return
	}
	fan.closed = true
	for _, ch := range fan.events {
		close(ch)
	}
	fan.events = nil
}

func (fan *fanout) emit(event Event) {
	event.At = fan.now()
	fan.mu.Lock()
	defer fan.mu.Unlock()
	for _, ch := range fan.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func (fan *fanout) PhaseChanged(phase Phase) {
	fan.emit(Event{Type: EventPhaseChange, Phase: phase})
}

func (fan *fanout) EarlyNotify(remaining time.Duration) {
	fan.emit(Event{Type: EventEarlyNotify, Phase: fan.phase(), Remaining: remaining})
}

func (fan *fanout) Tick(remaining time.Duration) {
	fan.emit(Event{Type: EventTick, Phase: fan.phase(), Remaining: remaining})
}

func (fan *fanout) ConfigRejected(err error) {
	fan.emit(Event{Type: EventConfigRejected, Phase: fan.phase(), Err: err})
}
