package timekeeper

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/clock"
	"resttimer/internal/core/model"
)

var testStart = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type record struct {
	kind      EventType
	phase     Phase
	remaining time.Duration
	at        time.Duration
	err       error
}

type recorder struct {
	mu      sync.Mutex
	clock   *clock.Manual
	records []record
}

func (rec *recorder) add(entry record) {
	entry.at = rec.clock.Now().Sub(testStart)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.records = append(rec.records, entry)
}

func (rec *recorder) PhaseChanged(phase Phase) {
	rec.add(record{kind: EventPhaseChange, phase: phase})
}

func (rec *recorder) EarlyNotify(remaining time.Duration) {
	rec.add(record{kind: EventEarlyNotify, remaining: remaining})
}

func (rec *recorder) Tick(remaining time.Duration) {
	rec.add(record{kind: EventTick, remaining: remaining})
}

func (rec *recorder) ConfigRejected(err error) {
	rec.add(record{kind: EventConfigRejected, err: err})
}

func (rec *recorder) of(kind EventType) []record {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var out []record
	for _, entry := range rec.records {
		if entry.kind == kind {
			out = append(out, entry)
		}
	}
	return out
}

func (rec *recorder) phases() []Phase {
	var out []Phase
	for _, entry := range rec.of(EventPhaseChange) {
		out = append(out, entry.phase)
	}
	return out
}

func (rec *recorder) phaseAt(phase Phase) []time.Duration {
	var out []time.Duration
	for _, entry := range rec.of(EventPhaseChange) {
		if entry.phase == phase {
			out = append(out, entry.at)
		}
	}
	return out
}

func testConfig(work, brk, early time.Duration) model.Config {
	config := model.DefaultConfig()
	config.WorkDuration = work
	config.BreakDuration = brk
	config.EarlyNotify = early
	return config
}

func newTestKeeper(t *testing.T, config model.Config) (*TimeKeeper, *clock.Manual, *recorder) {
	t.Helper()
	manual := clock.NewManual(testStart)
	rec := &recorder{clock: manual}
	keeper := New(config, Options{Clock: manual, Sink: rec, TickInterval: time.Hour})
	t.Cleanup(keeper.Close)
	return keeper, manual, rec
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func TestWorkedExampleTimeline(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Equal(t, uint64(0), keeper.Snapshot().Epoch)

	manual.Advance(seconds(269))
	assert.Empty(t, rec.of(EventEarlyNotify))

	manual.Advance(seconds(1))
	early := rec.of(EventEarlyNotify)
	require.Len(t, early, 1)
	assert.Equal(t, seconds(270), early[0].at)
	assert.Equal(t, seconds(30), early[0].remaining)
	assert.Equal(t, PhaseEarlyWarned, keeper.Phase())

	manual.Advance(seconds(30))
	assert.Equal(t, PhaseOnBreak, keeper.Phase())
	assert.Equal(t, []time.Duration{seconds(300)}, rec.phaseAt(PhaseOnBreak))
	assert.True(t, keeper.PreventingQuit())
	epochOnBreak := keeper.Snapshot().Epoch

	manual.Advance(seconds(60))
	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.False(t, keeper.PreventingQuit())
	assert.Greater(t, keeper.Snapshot().Epoch, epochOnBreak)
	assert.Equal(t, []time.Duration{0, seconds(360)}, rec.phaseAt(PhaseWorking))

	manual.Advance(seconds(269))
	assert.Len(t, rec.of(EventEarlyNotify), 1)
	manual.Advance(seconds(1))
	early = rec.of(EventEarlyNotify)
	require.Len(t, early, 2)
	assert.Equal(t, seconds(630), early[1].at)
}

func TestWorkEndsInExactlyOneBreak(t *testing.T) {
	configs := []model.Config{
		testConfig(seconds(1), seconds(1), 0),
		testConfig(seconds(300), seconds(60), seconds(30)),
		testConfig(25*time.Minute, 3*time.Minute, 2*time.Minute),
		testConfig(time.Hour, seconds(5), time.Hour-time.Second),
	}
	for _, config := range configs {
		t.Run(config.WorkDuration.String(), func(t *testing.T) {
			keeper, manual, rec := newTestKeeper(t, config)
			keeper.Start()

			manual.Advance(config.WorkDuration - time.Nanosecond)
			assert.Empty(t, rec.phaseAt(PhaseOnBreak))

			manual.Advance(time.Nanosecond)
			assert.Equal(t, []time.Duration{config.WorkDuration}, rec.phaseAt(PhaseOnBreak))

			early := rec.of(EventEarlyNotify)
			if config.EarlyNotify == 0 {
				assert.Empty(t, early)
				return
			}
			require.Len(t, early, 1)
			assert.Equal(t, config.WorkDuration-config.EarlyNotify, early[0].at)
			assert.Less(t, early[0].at, config.WorkDuration)
		})
	}
}

func TestZeroEarlyNotifyNeverWarns(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(100), seconds(10), 0))
	keeper.Start()

	manual.Advance(seconds(1000))

	assert.Empty(t, rec.of(EventEarlyNotify))
	assert.NotContains(t, rec.phases(), PhaseEarlyWarned)
	assert.Len(t, rec.phaseAt(PhaseOnBreak), 9)
}

func TestPauseResumePreservesRemainder(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()

	manual.Advance(seconds(100))
	keeper.Pause()
	assert.Equal(t, PhasePaused, keeper.Phase())
	assert.Equal(t, seconds(200), keeper.Remaining())

	manual.Advance(seconds(400))
	assert.Equal(t, seconds(200), keeper.Remaining())
	assert.Empty(t, rec.of(EventEarlyNotify))

	keeper.Resume()
	assert.Equal(t, PhaseWorking, keeper.Phase())

	manual.Advance(seconds(199))
	early := rec.of(EventEarlyNotify)
	require.Len(t, early, 1)
	assert.Equal(t, seconds(670), early[0].at)
	assert.Empty(t, rec.phaseAt(PhaseOnBreak))

	manual.Advance(seconds(1))
	assert.Equal(t, []time.Duration{seconds(700)}, rec.phaseAt(PhaseOnBreak))
}

func TestRepeatedPausesSumToConfiguredDuration(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), 0))
	keeper.Start()

	// 50 + 70 + 100 + 80 active seconds with pauses of varying length.
	active := []int{50, 70, 100}
	pauses := []int{10, 3600, 1}
	for index := range active {
		manual.Advance(seconds(active[index]))
		keeper.Pause()
		manual.Advance(seconds(pauses[index]))
		keeper.Resume()
	}
	manual.Advance(seconds(79))
	assert.Empty(t, rec.phaseAt(PhaseOnBreak))
	manual.Advance(seconds(1))
	require.Len(t, rec.phaseAt(PhaseOnBreak), 1)
	assert.Equal(t, PhaseOnBreak, keeper.Phase())
}

func TestPauseDuringBreakRestoresBreak(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(320))
	require.Equal(t, PhaseOnBreak, keeper.Phase())

	keeper.Pause()
	snapshot := keeper.Snapshot()
	assert.Equal(t, PhaseOnBreak, snapshot.PausedFrom)
	assert.Equal(t, seconds(40), snapshot.Remaining)
	assert.False(t, snapshot.PreventingQuit)

	manual.Advance(time.Hour)
	keeper.Resume()
	assert.Equal(t, PhaseOnBreak, keeper.Phase())
	assert.True(t, keeper.PreventingQuit())

	manual.Advance(seconds(40))
	assert.Equal(t, PhaseWorking, keeper.Phase())
	working := rec.phaseAt(PhaseWorking)
	assert.Equal(t, seconds(320)+time.Hour+seconds(40), working[len(working)-1])
}

func TestResumeAfterEarlyWarningDoesNotWarnAgain(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(280))
	require.Equal(t, PhaseEarlyWarned, keeper.Phase())

	keeper.Pause()
	assert.Equal(t, PhaseWorking, keeper.Snapshot().PausedFrom)
	manual.Advance(seconds(100))
	keeper.Resume()
	assert.Equal(t, PhaseWorking, keeper.Phase())

	manual.Advance(seconds(20))
	assert.Len(t, rec.of(EventEarlyNotify), 1)
	assert.Equal(t, []time.Duration{seconds(400)}, rec.phaseAt(PhaseOnBreak))
}

func TestPauseAndResumeAreIdempotent(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()

	keeper.Resume()
	assert.Equal(t, PhaseWorking, keeper.Phase())

	manual.Advance(seconds(10))
	keeper.Pause()
	manual.Advance(seconds(10))
	keeper.Pause()
	assert.Equal(t, seconds(290), keeper.Remaining())

	keeper.Resume()
	keeper.Resume()
	assert.Equal(t, []Phase{PhaseWorking, PhasePaused, PhaseWorking}, rec.phases())
}

func TestTogglePause(t *testing.T) {
	keeper, manual, _ := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(5))

	keeper.TogglePause()
	assert.Equal(t, PhasePaused, keeper.Phase())
	keeper.TogglePause()
	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Equal(t, seconds(295), keeper.Remaining())
}

func TestSkipBreakStartsFullWorkPhase(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(310))
	require.Equal(t, PhaseOnBreak, keeper.Phase())

	keeper.SkipBreak()
	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Equal(t, seconds(300), keeper.Remaining())
	assert.False(t, keeper.PreventingQuit())

	// The cancelled break timer must not end the new work phase early.
	manual.Advance(seconds(299))
	assert.Len(t, rec.phaseAt(PhaseOnBreak), 1)
	manual.Advance(seconds(1))
	assert.Equal(t, []time.Duration{seconds(300), seconds(610)}, rec.phaseAt(PhaseOnBreak))
	assert.Zero(t, keeper.StaleEvents())
}

func TestSkipBreakOutsideBreakIsNoop(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(100))

	keeper.SkipBreak()
	assert.Equal(t, seconds(200), keeper.Remaining())

	keeper.Pause()
	keeper.SkipBreak()
	assert.Equal(t, PhasePaused, keeper.Phase())
	assert.Equal(t, []Phase{PhaseWorking, PhasePaused}, rec.phases())
}

func TestResetTimer(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(200))
	epoch := keeper.Snapshot().Epoch

	keeper.ResetTimer()
	assert.Equal(t, seconds(300), keeper.Remaining())
	assert.Equal(t, epoch+1, keeper.Snapshot().Epoch)

	manual.Advance(seconds(300))
	assert.Equal(t, []time.Duration{seconds(500)}, rec.phaseAt(PhaseOnBreak))
}

func TestResetWhilePausedDropsRemainder(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(320))
	keeper.Pause()
	manual.Advance(seconds(10))

	keeper.ResetTimer()
	snapshot := keeper.Snapshot()
	assert.Equal(t, PhaseWorking, snapshot.Phase)
	assert.Equal(t, seconds(300), snapshot.Remaining)
	assert.Empty(t, snapshot.PausedFrom)

	// Resume after a reset has nothing to restore.
	keeper.Resume()
	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Equal(t, []Phase{PhaseWorking, PhaseOnBreak, PhasePaused, PhaseWorking}, rec.phases())
}

func TestUpdateConfigRejectsEarlyNotifyTooLong(t *testing.T) {
	original := testConfig(seconds(300), seconds(60), seconds(30))
	keeper, manual, rec := newTestKeeper(t, original)
	keeper.Start()
	manual.Advance(seconds(100))
	before := keeper.Snapshot()

	invalid := testConfig(seconds(300), seconds(60), seconds(300))
	err := keeper.UpdateConfig(invalid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidDurationConfig))

	after := keeper.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, original, keeper.Config())

	rejected := rec.of(EventConfigRejected)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0].err, model.ErrInvalidDurationConfig)
}

func TestUpdateConfigRestartsWorkTimers(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(100))

	require.NoError(t, keeper.UpdateConfig(testConfig(seconds(120), seconds(60), seconds(20))))
	assert.Equal(t, seconds(120), keeper.Remaining())

	manual.Advance(seconds(100))
	early := rec.of(EventEarlyNotify)
	require.Len(t, early, 1)
	assert.Equal(t, seconds(200), early[0].at)

	manual.Advance(seconds(20))
	assert.Equal(t, []time.Duration{seconds(220)}, rec.phaseAt(PhaseOnBreak))
}

func TestUpdateConfigFlagsOnlyKeepsTimers(t *testing.T) {
	config := testConfig(seconds(300), seconds(60), seconds(30))
	keeper, manual, _ := newTestKeeper(t, config)
	keeper.Start()
	manual.Advance(seconds(100))
	epoch := keeper.Snapshot().Epoch

	config.ShowSkipButton = false
	config.BreakDuration = seconds(90)
	require.NoError(t, keeper.UpdateConfig(config))

	assert.Equal(t, epoch, keeper.Snapshot().Epoch)
	assert.Equal(t, seconds(200), keeper.Remaining())

	manual.Advance(seconds(200))
	assert.Equal(t, PhaseOnBreak, keeper.Phase())
	assert.Equal(t, seconds(90), keeper.Remaining())
}

func TestUpdateConfigDuringBreakReturnsToWork(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(310))

	require.NoError(t, keeper.UpdateConfig(testConfig(seconds(200), seconds(60), seconds(30))))

	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Equal(t, seconds(200), keeper.Remaining())
	assert.Equal(t, []time.Duration{0, seconds(310)}, rec.phaseAt(PhaseWorking))
}

func TestUpdateConfigWhilePausedKeepsRemainder(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(100))
	keeper.Pause()

	require.NoError(t, keeper.UpdateConfig(testConfig(seconds(600), seconds(60), seconds(50))))
	assert.Equal(t, PhasePaused, keeper.Phase())
	assert.Equal(t, seconds(200), keeper.Remaining())

	manual.Advance(seconds(10))
	keeper.Resume()
	manual.Advance(seconds(150))
	early := rec.of(EventEarlyNotify)
	require.Len(t, early, 1)
	assert.Equal(t, seconds(260), early[0].at)

	manual.Advance(seconds(50))
	assert.Equal(t, []time.Duration{seconds(310)}, rec.phaseAt(PhaseOnBreak))
}

func TestResetWorkTimer(t *testing.T) {
	keeper, manual, _ := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(50))

	keeper.ResetWorkTimer()
	assert.Equal(t, seconds(300), keeper.Remaining())

	manual.Advance(seconds(50))
	keeper.Pause()
	keeper.ResetWorkTimer()
	assert.Equal(t, PhasePaused, keeper.Phase())
	assert.Equal(t, seconds(250), keeper.Remaining())
}

func TestStaleTimerEventIsDropped(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(10))
	keeper.ResetTimer()

	// A work-end callback from epoch 0 that was already queued when the reset happened.
	keeper.fire(scheduledEvent{kind: kindPhaseEnd, fireAt: testStart.Add(seconds(300)), epoch: 0})

	assert.Equal(t, uint64(1), keeper.StaleEvents())
	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Empty(t, rec.phaseAt(PhaseOnBreak))
}

func TestTimerEventWhilePausedIsStale(t *testing.T) {
	keeper, manual, _ := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(10))
	keeper.Pause()
	epoch := keeper.Snapshot().Epoch

	keeper.fire(scheduledEvent{kind: kindPhaseEnd, epoch: epoch})
	keeper.fire(scheduledEvent{kind: kindEarlyNotify, epoch: epoch})

	assert.Equal(t, uint64(2), keeper.StaleEvents())
	assert.Equal(t, PhasePaused, keeper.Phase())
	assert.Equal(t, seconds(290), keeper.Remaining())
}

func TestOperationsBeforeStart(t *testing.T) {
	keeper, manual, rec := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))

	keeper.Pause()
	keeper.ResetTimer()
	manual.Advance(time.Hour)

	assert.Equal(t, PhaseWorking, keeper.Phase())
	assert.Equal(t, seconds(300), keeper.Remaining())
	assert.False(t, keeper.Snapshot().Started)
	assert.Empty(t, rec.phases())
	assert.Equal(t, 0, manual.Pending())
}

func TestTickReportsRemaining(t *testing.T) {
	manual := clock.NewManual(testStart)
	rec := &recorder{clock: manual}
	keeper := New(testConfig(seconds(300), seconds(60), seconds(30)), Options{Clock: manual, Sink: rec})
	t.Cleanup(keeper.Close)
	keeper.Start()

	manual.Advance(seconds(1))
	require.Eventually(t, func() bool {
		return len(rec.of(EventTick)) > 0
	}, time.Second, time.Millisecond)

	tick := rec.of(EventTick)[0]
	assert.LessOrEqual(t, tick.remaining, seconds(299))
	assert.Equal(t, PhaseWorking, keeper.Phase())
}

func TestSubscribeReceivesEvents(t *testing.T) {
	keeper, manual, _ := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	events := keeper.Subscribe(8)
	keeper.Start()
	manual.Advance(seconds(300))

	var received []Event
	for len(received) < 3 {
		select {
		case event := <-events:
			received = append(received, event)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d events", len(received))
		}
	}

	assert.Equal(t, EventPhaseChange, received[0].Type)
	assert.Equal(t, PhaseWorking, received[0].Phase)
	assert.Equal(t, EventEarlyNotify, received[1].Type)
	assert.Equal(t, seconds(30), received[1].Remaining)
	assert.Equal(t, EventPhaseChange, received[2].Type)
	assert.Equal(t, PhaseOnBreak, received[2].Phase)
	assert.Equal(t, testStart.Add(seconds(300)), received[2].At)
}

func TestCloseMakesOperationsNoops(t *testing.T) {
	keeper, manual, _ := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	events := keeper.Subscribe(1)
	keeper.Start()
	<-events

	keeper.Close()
	keeper.Close()

	keeper.Pause()
	keeper.SkipBreak()
	assert.ErrorIs(t, keeper.UpdateConfig(model.DefaultConfig()), ErrClosed)
	assert.Equal(t, Snapshot{}, keeper.Snapshot())
	assert.Equal(t, 0, manual.Pending())

	_, open := <-events
	assert.False(t, open)
}

func TestConcurrentTriggersApplyWholly(t *testing.T) {
	keeper, manual, _ := newTestKeeper(t, testConfig(seconds(300), seconds(60), seconds(30)))
	keeper.Start()
	manual.Advance(seconds(60))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			keeper.TogglePause()
		}()
		go func() {
			defer wg.Done()
			_ = keeper.Snapshot()
		}()
	}
	wg.Wait()

	// An even number of toggles with no time passing leaves the cycle where it was.
	snapshot := keeper.Snapshot()
	assert.Equal(t, PhaseWorking, snapshot.Phase)
	assert.Equal(t, seconds(240), snapshot.Remaining)
}
