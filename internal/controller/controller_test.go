package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mthorpe/relayctl/internal/config"
	"github.com/mthorpe/relayctl/internal/gpio"
	"github.com/mthorpe/relayctl/internal/input"
	"github.com/mthorpe/relayctl/internal/logic"
	"github.com/mthorpe/relayctl/internal/sleep"
	"github.com/mthorpe/relayctl/internal/status"
	"github.com/mthorpe/relayctl/internal/timebase"
	"github.com/mthorpe/relayctl/internal/watchdog"
)

// pollStep is the simulated poll interval. Coarser than production to keep
// scenario step counts down; every timing threshold has at least a few
// hundred milliseconds of margin around it.
const pollStep = 100 * time.Millisecond

// rig is a controller wired to fakes: pins, relay, store, watchdog,
// sleeper and the simulated clock. Time moves only through run/advance.
type rig struct {
	t       *testing.T
	clock   *timebase.Fake
	acc1    *gpio.FakePin
	acc2    *gpio.FakePin
	relay   *gpio.FakeRelay
	store   *config.Memory
	wdt     *watchdog.Fake
	sleeper *sleep.Fake
	tracker *status.Tracker
	ctrl    *Controller

	events  []logic.Event
	elapsed time.Duration
}

func newRig(t *testing.T, acc1, acc2 bool) *rig {
	t.Helper()
	r := &rig{
		t:       t,
		clock:   timebase.NewFake(),
		acc1:    gpio.NewFakePin(acc1),
		acc2:    gpio.NewFakePin(acc2),
		relay:   gpio.NewFakeRelay(),
		store:   config.NewMemory(),
		wdt:     watchdog.NewFake(),
		sleeper: sleep.NewFake(),
		tracker: status.NewTracker(time.Unix(0, 0), status.Config{}),
	}
	ch1 := input.New("acc1", r.acc1, r.clock, r.sleeper.WakeEdge)
	ch2 := input.New("acc2", r.acc2, r.clock, r.sleeper.WakeEdge)
	r.acc1.OnEdge(ch1.HandleEdge)
	r.acc2.OnEdge(ch2.HandleEdge)
	r.ctrl = New(Options{
		Clock:    r.clock,
		ACC1:     ch1,
		ACC2:     ch2,
		Relay:    r.relay,
		Store:    r.store,
		Watchdog: r.wdt,
		Sleeper:  r.sleeper,
		Tracker:  r.tracker,
		OnEvent:  func(ev logic.Event) { r.events = append(r.events, ev) },
		Now:      func() time.Time { return time.Unix(0, 0).Add(r.elapsed) },
	})
	return r
}

// booted builds a rig and runs the bring-up iteration.
func booted(t *testing.T, acc1, acc2 bool) *rig {
	t.Helper()
	r := newRig(t, acc1, acc2)
	pause := r.step()
	require.False(t, pause, "bring-up iteration should restart without pacing")
	return r
}

func (r *rig) step() bool {
	r.t.Helper()
	pause, err := r.ctrl.Step(context.Background())
	require.NoError(r.t, err)
	return pause
}

func (r *rig) advance(d time.Duration) {
	r.clock.Advance(d)
	r.elapsed += d
}

// run advances simulated time in poll-sized slices, stepping the
// controller after each.
func (r *rig) run(d time.Duration) {
	r.t.Helper()
	for done := time.Duration(0); done < d; done += pollStep {
		r.advance(pollStep)
		r.step()
	}
}

func (r *rig) snap() status.Snapshot {
	return r.tracker.Snapshot()
}

func (r *rig) eventTypes() []logic.EventType {
	types := make([]logic.EventType, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

func (r *rig) countEvents(t logic.EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// programSequence drives n flashes and the confirm handshake on ACC2:
// 0.5 s pulses with 1 s gaps, the last gap stretched to 5 s, then a 5 s
// hold, a 5 s gap, and the final rise that lands the commit.
func (r *rig) programSequence(n int) {
	r.t.Helper()
	for i := 0; i < n; i++ {
		r.acc2.SetLevel(true)
		r.run(500 * time.Millisecond)
		r.acc2.SetLevel(false)
		r.run(time.Second)
	}
	r.run(4 * time.Second)
	r.acc2.SetLevel(true)
	r.run(5 * time.Second)
	r.acc2.SetLevel(false)
	r.run(5 * time.Second)
	r.acc2.SetLevel(true)
	r.run(300 * time.Millisecond)
}

func TestBringUp(t *testing.T) {
	t.Run("ignition off starts down", func(t *testing.T) {
		r := booted(t, false, false)
		assert.Equal(t, logic.PowerDown, r.snap().Power)
		assert.Equal(t, uint8(config.DefaultWaitMinutes), r.snap().WaitMinutes)
		assert.False(t, r.relay.On())
	})

	t.Run("ignition only starts out off", func(t *testing.T) {
		r := booted(t, true, false)
		assert.Equal(t, logic.PowerOutOff, r.snap().Power)
	})

	t.Run("both lines start out on", func(t *testing.T) {
		r := booted(t, true, true)
		assert.Equal(t, logic.PowerOutOn, r.snap().Power)
		r.run(pollStep)
		assert.True(t, r.relay.On(), "first normal iteration drives the output")
	})

	t.Run("stored wait minutes are honored", func(t *testing.T) {
		r := newRig(t, true, false)
		r.store.Seed(45)
		r.step()
		assert.Equal(t, uint8(45), r.snap().WaitMinutes)
	})

	t.Run("stored byte is not range checked", func(t *testing.T) {
		r := newRig(t, true, false)
		r.store.Seed(255)
		r.step()
		assert.Equal(t, uint8(255), r.snap().WaitMinutes)
	})

	t.Run("store read failure aborts", func(t *testing.T) {
		r := newRig(t, true, false)
		r.store.ReadError = errors.New("eeprom dead")
		_, err := r.ctrl.Step(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wait minutes")
	})

	t.Run("line read failure aborts with the line name", func(t *testing.T) {
		r := newRig(t, true, false)
		r.acc2.ReadError = errors.New("stuck line")
		_, err := r.ctrl.Step(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "acc2")
	})

	t.Run("watchdog armed", func(t *testing.T) {
		r := booted(t, true, false)
		assert.True(t, r.wdt.Enabled())
	})
}

func TestStepPauseContract(t *testing.T) {
	r := newRig(t, false, false)

	require.False(t, r.step(), "bring-up is not paced")

	r.advance(pollStep)
	require.False(t, r.step(), "a suspended iteration is not paced")
	deeps, _ := r.sleeper.Counts()
	assert.Equal(t, 1, deeps)

	r.acc1.SetLevel(true)
	r.advance(pollStep)
	assert.True(t, r.step(), "a transition iteration is paced normally")
	assert.Equal(t, logic.PowerOutOff, r.snap().Power)
}

func TestRelayFollowsSecondary(t *testing.T) {
	r := booted(t, true, true)
	r.run(500 * time.Millisecond)
	require.True(t, r.relay.On())

	// A drop longer than the stay-on pulse window must not arm the
	// gesture latch on the way back up.
	r.acc2.SetLevel(false)
	r.run(4 * time.Second)
	assert.Equal(t, logic.PowerOutOff, r.snap().Power)
	assert.False(t, r.relay.On())

	r.acc2.SetLevel(true)
	r.run(300 * time.Millisecond)
	assert.Equal(t, logic.PowerOutOn, r.snap().Power)
	assert.True(t, r.relay.On())

	assert.Equal(t, []logic.EventType{
		logic.EventRelayOn,
		logic.EventRelayOff,
		logic.EventRelayOn,
	}, r.eventTypes())
}

func TestIgnitionDropPowersDown(t *testing.T) {
	r := booted(t, true, true)
	r.run(500 * time.Millisecond)
	require.True(t, r.relay.On())

	r.acc1.SetLevel(false)
	r.acc2.SetLevel(false)
	r.run(500 * time.Millisecond)

	assert.Equal(t, logic.PowerDown, r.snap().Power)
	assert.False(t, r.relay.On())
	deeps, _ := r.sleeper.Counts()
	assert.Greater(t, deeps, 0, "down iterations suspend")
	assert.True(t, r.wdt.Enabled(), "guard re-armed after each deep wake")
}

func TestDownWakesWithSecondaryHeld(t *testing.T) {
	r := booted(t, false, true)
	r.run(300 * time.Millisecond)
	require.Equal(t, logic.PowerDown, r.snap().Power)

	// The rise is latched at the edge; the very next iteration leaves
	// Down without waiting out a debounce.
	r.acc1.SetLevel(true)
	r.run(pollStep)
	assert.Equal(t, logic.PowerOutOn, r.snap().Power)
	r.run(pollStep)
	assert.True(t, r.relay.On())
}

func TestStayOnGestureTimerCountdownAndExpiry(t *testing.T) {
	r := newRig(t, true, true)
	r.store.Seed(1) // one minute, to keep the countdown short
	r.step()
	r.run(500 * time.Millisecond)
	require.True(t, r.relay.On())

	// Gesture: a short dip on ACC2 arms the stay-on latch.
	r.acc2.SetLevel(false)
	r.run(time.Second)
	r.acc2.SetLevel(true)
	r.run(200 * time.Millisecond)
	require.Equal(t, logic.PowerOutStayOn, r.snap().Power)
	require.Equal(t, 1, r.countEvents(logic.EventStayOnArmed))

	// Ignition off starts the countdown; the output must ride through.
	r.acc1.SetLevel(false)
	r.run(300 * time.Millisecond)
	require.Equal(t, logic.PowerTimer, r.snap().Power)
	require.Equal(t, 1, r.countEvents(logic.EventTimerStarted))
	for _, ev := range r.events {
		if ev.Type == logic.EventTimerStarted {
			assert.Equal(t, uint8(1), ev.WaitMinutes)
		}
	}
	assert.True(t, r.relay.On())

	r.run(59 * time.Second)
	assert.Equal(t, logic.PowerTimer, r.snap().Power, "still counting just before the minute")
	assert.True(t, r.relay.On(), "output stays on across the countdown")

	r.run(3 * time.Second)
	assert.Equal(t, logic.PowerDown, r.snap().Power)
	assert.Equal(t, 1, r.countEvents(logic.EventTimerExpired))
	assert.False(t, r.relay.On())

	_, lights := r.sleeper.Counts()
	assert.Greater(t, lights, 0, "timer iterations suspend lightly")
	assert.Equal(t, 0, r.store.Writes, "countdown never touches the store")
}

func TestProgrammingTwoFlashesPersistsTwenty(t *testing.T) {
	r := booted(t, true, false)
	r.run(time.Second)

	r.programSequence(2)

	assert.Equal(t, 1, r.store.Writes, "one write per confirmed sequence")
	v, ok := r.store.Value()
	require.True(t, ok)
	assert.Equal(t, uint8(20), v)
	assert.Equal(t, uint8(20), r.snap().WaitMinutes)
	assert.Equal(t, logic.ProgIndOn, r.snap().Program)

	// Success indication: the output blinks off between the 2 s and 3 s
	// marks of the final hold, one iteration behind the decoder.
	r.run(2200 * time.Millisecond)
	assert.Equal(t, logic.ProgIndOff, r.snap().Program)
	assert.False(t, r.relay.On(), "output forced off during the blink")
	r.run(1300 * time.Millisecond)
	assert.True(t, r.relay.On(), "output restored after the blink")

	assert.Equal(t, []logic.EventType{
		logic.EventRelayOn,     // first flash pulse
		logic.EventRelayOff,    // first gap
		logic.EventStayOnArmed, // second rise doubles as a stay-on gesture
		logic.EventRelayOn,     // second flash pulse
		logic.EventRelayOff,    // second gap, after the release grace
		logic.EventRelayOn,     // confirm hold
		logic.EventRelayOff,    // confirm gap
		logic.EventProgrammed,  // final rise commits
		logic.EventRelayOn,     // final hold
		logic.EventRelayOff,    // indication blink
		logic.EventRelayOn,     // blink over
	}, r.eventTypes())
}

func TestProgrammingThirtyFlashesClampsAt250(t *testing.T) {
	r := booted(t, true, false)
	r.run(time.Second)

	r.programSequence(30)

	assert.Equal(t, 1, r.countEvents(logic.EventProgrammed))
	v, ok := r.store.Value()
	require.True(t, ok)
	assert.Equal(t, uint8(250), v, "counts above 25 flashes clamp to 250 minutes")
	assert.Equal(t, uint8(250), r.snap().WaitMinutes)
}

func TestProgrammingWindowClosesAfterSixtySeconds(t *testing.T) {
	r := booted(t, true, false)
	r.run(61 * time.Second)

	r.programSequence(2)
	r.run(4 * time.Second)

	assert.Equal(t, 0, r.store.Writes)
	assert.Equal(t, 0, r.countEvents(logic.EventProgrammed))
	assert.Equal(t, logic.ProgReset, r.snap().Program, "decoder never leaves reset once the window is shut")
	assert.Greater(t, r.countEvents(logic.EventRelayOn), 0, "the power layer still follows the switch")
}

func TestStayOnReleaseGrace(t *testing.T) {
	r := booted(t, true, true)
	r.run(500 * time.Millisecond)

	r.acc2.SetLevel(false)
	r.run(time.Second)
	r.acc2.SetLevel(true)
	r.run(200 * time.Millisecond)
	require.Equal(t, logic.PowerOutStayOn, r.snap().Power)

	// A dip inside the release grace is ridden out.
	r.acc2.SetLevel(false)
	r.run(300 * time.Millisecond)
	assert.Equal(t, logic.PowerOutStayOn, r.snap().Power)
	r.acc2.SetLevel(true)
	r.run(200 * time.Millisecond)
	assert.Equal(t, logic.PowerOutStayOn, r.snap().Power)

	// A sustained drop releases the latch.
	r.acc2.SetLevel(false)
	r.run(time.Second)
	assert.Equal(t, logic.PowerOutOff, r.snap().Power)
	r.run(200 * time.Millisecond)
	assert.False(t, r.relay.On())
}

func TestMachinesResetWhileIgnitionOff(t *testing.T) {
	r := booted(t, true, false)
	r.run(500 * time.Millisecond)

	// One flash in: the decoder holds a partial count.
	r.acc2.SetLevel(true)
	r.run(500 * time.Millisecond)
	r.acc2.SetLevel(false)
	r.run(500 * time.Millisecond)
	require.Equal(t, logic.ProgFlashOff, r.snap().Program)
	require.Equal(t, uint8(1), r.snap().Flashes)

	// Ignition drop discards it.
	r.acc1.SetLevel(false)
	r.run(300 * time.Millisecond)
	assert.Equal(t, logic.PowerDown, r.snap().Power)
	assert.Equal(t, logic.ProgReset, r.snap().Program)
	assert.Equal(t, uint8(0), r.snap().Flashes)
	assert.Equal(t, logic.StayOnReset, r.snap().StayOn)

	// A fresh sequence after ignition returns programs from zero.
	r.acc1.SetLevel(true)
	r.run(200 * time.Millisecond)
	r.programSequence(2)
	v, ok := r.store.Value()
	require.True(t, ok)
	assert.Equal(t, uint8(20), v, "stale flash count must not leak into the new sequence")
}

func TestWatchdogDiscipline(t *testing.T) {
	t.Run("reset once per iteration", func(t *testing.T) {
		r := booted(t, true, true)
		before := r.wdt.Resets()
		r.run(time.Second)
		assert.Equal(t, before+10, r.wdt.Resets())
	})

	t.Run("deep suspension is bracketed", func(t *testing.T) {
		r := booted(t, false, false)
		enables, disables := r.wdt.Cycles()
		r.run(300 * time.Millisecond)
		e2, d2 := r.wdt.Cycles()
		assert.Equal(t, disables+3, d2)
		assert.Equal(t, enables+3, e2)
		assert.True(t, r.wdt.Enabled())
	})

	t.Run("light suspension leaves the guard off", func(t *testing.T) {
		r := booted(t, true, true)
		r.run(500 * time.Millisecond)
		r.acc2.SetLevel(false)
		r.run(time.Second)
		r.acc2.SetLevel(true)
		r.run(200 * time.Millisecond)
		r.acc1.SetLevel(false)
		r.run(300 * time.Millisecond)
		require.Equal(t, logic.PowerTimer, r.snap().Power)
		assert.False(t, r.wdt.Enabled(), "guard stays off through the countdown")

		// Even a return to powered states leaves it off; only the next
		// deep wake re-arms it.
		r.acc1.SetLevel(true)
		r.run(300 * time.Millisecond)
		require.Equal(t, logic.PowerOutOn, r.snap().Power)
		assert.False(t, r.wdt.Enabled())

		r.acc1.SetLevel(false)
		r.acc2.SetLevel(false)
		r.run(5 * time.Second)
		require.Equal(t, logic.PowerDown, r.snap().Power)
		assert.True(t, r.wdt.Enabled())
	})
}

func TestRelayWriteFailureKeepsIntendedState(t *testing.T) {
	r := booted(t, true, true)
	r.relay.SetError = errors.New("bus fault")
	r.run(300 * time.Millisecond)

	assert.True(t, r.snap().Relay, "intended drive is tracked past the fault")
	assert.False(t, r.relay.On(), "hardware never latched")
	assert.Equal(t, 1, r.countEvents(logic.EventRelayOn))

	r.relay.SetError = nil
	r.run(200 * time.Millisecond)
	assert.True(t, r.relay.On(), "drive is reasserted every iteration")
}

func TestCounterMinutesSaturate(t *testing.T) {
	var c counter
	for i := 0; i < 61*60; i++ {
		c.bump()
	}
	assert.Equal(t, uint8(60), c.minutesNow())
	for i := 0; i < 120; i++ {
		c.bump()
	}
	assert.Equal(t, uint8(60), c.minutesNow())
}

func TestCounterZero(t *testing.T) {
	var c counter
	for i := 0; i < 61; i++ {
		c.bump()
	}
	require.Equal(t, uint8(1), c.minutesNow())
	c.zero()
	assert.Equal(t, uint8(0), c.minutesNow())
}

// A programmed wait beyond the 60-minute counter cap can never be
// reached, so the timer holds the output indefinitely.
func TestTimerWaitBeyondCounterCapNeverExpires(t *testing.T) {
	r := newRig(t, true, true)
	r.store.Seed(250)
	r.step()
	r.run(500 * time.Millisecond)

	r.acc2.SetLevel(false)
	r.run(time.Second)
	r.acc2.SetLevel(true)
	r.run(200 * time.Millisecond)
	r.acc1.SetLevel(false)
	r.run(300 * time.Millisecond)
	require.Equal(t, logic.PowerTimer, r.snap().Power)

	// 62 minutes in coarse slices; the counter saturates at 60 while
	// the configured wait sits at 250.
	for i := 0; i < 62*60; i++ {
		r.advance(time.Second)
		r.step()
	}
	assert.Equal(t, logic.PowerTimer, r.snap().Power)
	assert.True(t, r.relay.On())
	assert.Equal(t, uint8(60), r.snap().TimerMinutes)
	assert.Equal(t, 0, r.countEvents(logic.EventTimerExpired))
}
