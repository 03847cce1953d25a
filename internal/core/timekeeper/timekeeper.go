package timekeeper

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"resttimer/internal/clock"
	"resttimer/internal/core/model"
)

// ErrClosed is returned by operations issued after Close.
var ErrClosed = errors.New("timekeeper closed")

const defaultInboxSize = 16

// Options contains runtime options for TimeKeeper.
type Options struct {
	Clock        clock.Clock
	Sink         Sink
	Logger       zerolog.Logger
	TickInterval time.Duration
}

// TimeKeeper runs the work/break cycle. A single loop goroutine owns the
// cycle state; every operation and timer callback is a message processed
// in arrival order.
type TimeKeeper struct {
	clock        clock.Clock
	log          zerolog.Logger
	tickInterval time.Duration

	inbox    chan message
	ticks    chan struct{}
	done     chan struct{}
	loopDone chan struct{}
	closing  sync.Once

	fan         *fanout
	staleEvents atomic.Uint64

	// Owned by the loop goroutine.
	sink    Sink
	config  model.Config
	state   cycleState
	timers  []clock.Timer
	started bool
	ticker  *tickTimer
}

type message struct {
	apply func(now time.Time)
	done  chan struct{}
}

// New creates a TimeKeeper in the Working phase and starts its event loop.
// Timers are not armed until Start. The config is used as given; callers
// are expected to pass a validated config.
func New(config model.Config, options Options) *TimeKeeper {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}

	keeper := &TimeKeeper{
		clock:        options.Clock,
		log:          options.Logger.With().Str("component", "timekeeper").Logger(),
		tickInterval: options.TickInterval,
		inbox:        make(chan message, defaultInboxSize),
		ticks:        make(chan struct{}, 1),
		done:         make(chan struct{}),
		loopDone:     make(chan struct{}),
		config:       config,
	}
	keeper.fan = &fanout{now: keeper.clock.Now, phase: func() Phase { return keeper.state.phase }}
	keeper.sink = MultiSink{options.Sink, keeper.fan}
	keeper.state.begin(PhaseWorking, config.WorkDuration, keeper.clock.Now())

	go keeper.run()
	return keeper
}

// Subscribe registers a new observer channel. Slow observers miss events.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	return keeper.fan.subscribe(buffer)
}

// Start arms the first work phase and the display tick. Subsequent calls are no-ops.
func (keeper *TimeKeeper) Start() {
	keeper.dispatch(func(now time.Time) {
		if keeper.started {
			return
		}
		keeper.started = true
		keeper.state.begin(PhaseWorking, keeper.config.WorkDuration, now)
		keeper.arm(planWork(keeper.config.WorkDuration, keeper.config.EarlyNotify), now)
		keeper.ticker = newTickTimer(keeper.clock, keeper.tickInterval, keeper.requestTick)
		keeper.ticker.start()

		keeper.log.Info().
			Dur("work", keeper.config.WorkDuration).
			Dur("break", keeper.config.BreakDuration).
			Dur("early_notify", keeper.config.EarlyNotify).
			Msg("cycle started")
		keeper.sink.PhaseChanged(PhaseWorking)
	})
}

// Close stops the loop, cancels every timer and closes subscriber channels.
func (keeper *TimeKeeper) Close() {
	keeper.closing.Do(func() {
		close(keeper.done)
		<-keeper.loopDone
		keeper.fan.close()
	})
}

// Pause freezes the current phase, keeping its exact remainder.
func (keeper *TimeKeeper) Pause() {
	keeper.dispatch(keeper.pauseLocked)
}

// Resume restores the phase interrupted by Pause.
func (keeper *TimeKeeper) Resume() {
	keeper.dispatch(keeper.resumeLocked)
}

// TogglePause pauses an active cycle or resumes a paused one.
func (keeper *TimeKeeper) TogglePause() {
	keeper.dispatch(func(now time.Time) {
		if keeper.state.phase == PhasePaused {
			keeper.resumeLocked(now)
			return
		}
		keeper.pauseLocked(now)
	})
}

// ResetTimer restarts a full work phase from now, dropping any pause remainder.
func (keeper *TimeKeeper) ResetTimer() {
	keeper.dispatch(func(now time.Time) {
		if !keeper.started {
			return
		}
		keeper.log.Debug().Str("from", string(keeper.state.phase)).Msg("timer reset")
		keeper.enterWorkLocked(now)
	})
}

// ResetWorkTimer re-arms the work timers from the current config.
// It has no effect while paused.
func (keeper *TimeKeeper) ResetWorkTimer() {
	keeper.dispatch(keeper.resetWorkLocked)
}

// SkipBreak ends the current break and returns to work.
func (keeper *TimeKeeper) SkipBreak() {
	keeper.dispatch(func(now time.Time) {
		if keeper.state.phase != PhaseOnBreak {
			return
		}
		keeper.log.Info().Dur("remaining", keeper.state.remaining(now)).Msg("break skipped")
		keeper.enterWorkLocked(now)
	})
}

// UpdateConfig validates and applies config. An invalid config is rejected:
// the previous config stays in effect and the sink is notified.
func (keeper *TimeKeeper) UpdateConfig(config model.Config) error {
	var result error
	ok := keeper.dispatch(func(now time.Time) {
		if err := config.Validate(); err != nil {
			keeper.log.Warn().Err(err).Msg("config rejected")
			keeper.sink.ConfigRejected(err)
			result = err
			return
		}
		previous := keeper.config
		keeper.config = config
		if previous.WorkTimingChanged(config) {
			keeper.resetWorkLocked(now)
		}
	})
	if !ok {
		return ErrClosed
	}
	return result
}

// Config returns the config currently in effect.
func (keeper *TimeKeeper) Config() model.Config {
	return keeper.Snapshot().Config
}

// Remaining returns the time left in the current phase.
func (keeper *TimeKeeper) Remaining() time.Duration {
	return keeper.Snapshot().Remaining
}

// Phase returns the current phase.
func (keeper *TimeKeeper) Phase() Phase {
	return keeper.Snapshot().Phase
}

// PreventingQuit reports whether the host should veto termination.
func (keeper *TimeKeeper) PreventingQuit() bool {
	return keeper.Snapshot().PreventingQuit
}

// StaleEvents returns how many timer callbacks were discarded.
func (keeper *TimeKeeper) StaleEvents() uint64 {
	return keeper.staleEvents.Load()
}

// Snapshot returns a consistent view of the cycle. After Close it returns
// the zero Snapshot.
func (keeper *TimeKeeper) Snapshot() Snapshot {
	var snapshot Snapshot
	keeper.dispatch(func(now time.Time) {
		snapshot = keeper.snapshotLocked(now)
	})
	return snapshot
}

func (keeper *TimeKeeper) run() {
	defer close(keeper.loopDone)
	for {
		select {
		case <-keeper.done:
			keeper.cancelTimersLocked()
			if keeper.ticker != nil {
				keeper.ticker.stop()
			}
			return
		case msg := <-keeper.inbox:
			msg.apply(keeper.clock.Now())
			close(msg.done)
		case <-keeper.ticks:
			keeper.tickLocked(keeper.clock.Now())
		}
	}
}

// dispatch runs apply on the loop goroutine and waits for it to finish.
// It reports false if the TimeKeeper is closed.
func (keeper *TimeKeeper) dispatch(apply func(now time.Time)) bool {
	msg := message{apply: apply, done: make(chan struct{})}
	select {
	case keeper.inbox <- msg:
	case <-keeper.done:
		return false
	}
	select {
	case <-msg.done:
		return true
	case <-keeper.loopDone:
		return false
	}
}

func (keeper *TimeKeeper) requestTick() {
	select {
	case keeper.ticks <- struct{}{}:
	default:
	}
}

func (keeper *TimeKeeper) tickLocked(now time.Time) {
	if !keeper.started {
		return
	}
	keeper.sink.Tick(keeper.state.remaining(now))
}

func (keeper *TimeKeeper) fire(event scheduledEvent) {
	keeper.dispatch(func(now time.Time) {
		keeper.handleTimerLocked(event, now)
	})
}

func (keeper *TimeKeeper) handleTimerLocked(event scheduledEvent, now time.Time) {
	state := &keeper.state
	if event.epoch != state.epoch || !keeper.timerValidLocked(event.kind) {
		keeper.staleEvents.Add(1)
		keeper.log.Debug().
			Str("kind", event.kind.String()).
			Uint64("event_epoch", event.epoch).
			Uint64("epoch", state.epoch).
			Str("phase", string(state.phase)).
			Msg("stale timer event dropped")
		return
	}

	switch event.kind {
	case kindEarlyNotify:
		state.phase = PhaseEarlyWarned
		remaining := state.remaining(now)
		keeper.log.Info().Dur("remaining", remaining).Msg("break approaching")
		keeper.sink.EarlyNotify(remaining)
	case kindPhaseEnd:
		if state.phase == PhaseOnBreak {
			keeper.log.Info().Msg("break finished")
			keeper.enterWorkLocked(now)
			return
		}
		keeper.enterBreakLocked(now)
	}
}

func (keeper *TimeKeeper) timerValidLocked(kind timerKind) bool {
	if !keeper.started {
		return false
	}
	switch kind {
	case kindEarlyNotify:
		return keeper.state.phase == PhaseWorking
	case kindPhaseEnd:
		return keeper.state.phase != PhasePaused
	default:
		return false
	}
}

func (keeper *TimeKeeper) enterBreakLocked(now time.Time) {
	keeper.cancelTimersLocked()
	keeper.state.epoch++
	keeper.state.begin(PhaseOnBreak, keeper.config.BreakDuration, now)
	keeper.arm(planBreak(keeper.config.BreakDuration), now)

	keeper.log.Info().Dur("break", keeper.config.BreakDuration).Uint64("epoch", keeper.state.epoch).Msg("break started")
	keeper.sink.PhaseChanged(PhaseOnBreak)
}

func (keeper *TimeKeeper) enterWorkLocked(now time.Time) {
	previous := keeper.state.phase
	keeper.cancelTimersLocked()
	keeper.state.epoch++
	keeper.state.begin(PhaseWorking, keeper.config.WorkDuration, now)
	keeper.arm(planWork(keeper.config.WorkDuration, keeper.config.EarlyNotify), now)

	if previous != PhaseWorking {
		keeper.sink.PhaseChanged(PhaseWorking)
	}
}

func (keeper *TimeKeeper) resetWorkLocked(now time.Time) {
	if !keeper.started || keeper.state.phase == PhasePaused {
		return
	}
	keeper.log.Debug().Str("from", string(keeper.state.phase)).Msg("work timers re-derived")
	keeper.enterWorkLocked(now)
}

func (keeper *TimeKeeper) pauseLocked(now time.Time) {
	if !keeper.started || keeper.state.phase == PhasePaused {
		return
	}
	keeper.cancelTimersLocked()
	keeper.state.pause(now)

	keeper.log.Info().
		Str("from", string(keeper.state.pausedFromPhase)).
		Dur("remainder", keeper.state.pausedRemainder).
		Msg("cycle paused")
	keeper.sink.PhaseChanged(PhasePaused)
}

func (keeper *TimeKeeper) resumeLocked(now time.Time) {
	if keeper.state.phase != PhasePaused {
		return
	}
	phase, remainder := keeper.state.resume(now)
	if phase == PhaseOnBreak {
		keeper.arm(planBreak(remainder), now)
	} else {
		keeper.arm(planWork(remainder, keeper.config.EarlyNotify), now)
	}

	keeper.log.Info().
		Str("phase", string(phase)).
		Dur("remainder", remainder).
		Uint64("epoch", keeper.state.epoch).
		Msg("cycle resumed")
	keeper.sink.PhaseChanged(phase)
}

func (keeper *TimeKeeper) arm(plan []plannedTimer, now time.Time) {
	epoch := keeper.state.epoch
	for _, planned := range plan {
		event := scheduledEvent{kind: planned.kind, fireAt: now.Add(planned.delay), epoch: epoch}
		timer := keeper.clock.AfterFunc(planned.delay, func() {
			keeper.fire(event)
		})
		keeper.timers = append(keeper.timers, timer)
	}
}

func (keeper *TimeKeeper) cancelTimersLocked() {
	for _, timer := range keeper.timers {
		timer.Stop()
	}
	keeper.timers = keeper.timers[:0]
}

func (keeper *TimeKeeper) snapshotLocked(now time.Time) Snapshot {
	remaining := keeper.state.remaining(now)
	if !keeper.started {
		remaining = keeper.config.WorkDuration
	}
	return Snapshot{
		Phase:          keeper.state.phase,
		Remaining:      remaining,
		PausedFrom:     keeper.state.pausedFromPhase,
		Epoch:          keeper.state.epoch,
		PreventingQuit: keeper.state.phase == PhaseOnBreak,
		Started:        keeper.started,
		Config:         keeper.config,
	}
}

// tickTimer re-arms itself every interval on the clock. Each firing only
// requests a display tick; requests coalesce while one is pending.
type tickTimer struct {
	mu       sync.Mutex
	clock    clock.Clock
	interval time.Duration
	notify   func()
	timer    clock.Timer
	stopped  bool
}

func newTickTimer(source clock.Clock, interval time.Duration, notify func()) *tickTimer {
	return &tickTimer{clock: source, interval: interval, notify: notify}
}

func (ticker *tickTimer) start() {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	ticker.timer = ticker.clock.AfterFunc(ticker.interval, ticker.fire)
}

func (ticker *tickTimer) fire() {
	ticker.mu.Lock()
	if ticker.stopped {
		ticker.mu.Unlock()
		return
	}
	ticker.timer = ticker.clock.AfterFunc(ticker.interval, ticker.fire)
	ticker.mu.Unlock()

	ticker.notify()
}

func (ticker *tickTimer) stop() {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	ticker.stopped = true
	if ticker.timer != nil {
		ticker.timer.Stop()
	}
}
