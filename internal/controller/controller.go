// Package controller owns the relay control loop: bring-up, one Step per
// poll interval, and the wiring between the debounced sense lines, the
// three decision machines, the relay outputs, and the stay-on countdown.
package controller

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mthorpe/relayctl/internal/config"
	"github.com/mthorpe/relayctl/internal/gpio"
	"github.com/mthorpe/relayctl/internal/input"
	"github.com/mthorpe/relayctl/internal/logic"
	"github.com/mthorpe/relayctl/internal/sleep"
	"github.com/mthorpe/relayctl/internal/status"
	"github.com/mthorpe/relayctl/internal/timebase"
	"github.com/mthorpe/relayctl/internal/watchdog"
)

// Options wires a Controller to its collaborators. Tracker, OnEvent and
// Now are optional; everything else is required.
type Options struct {
	Clock    timebase.Source
	ACC1     *input.Channel
	ACC2     *input.Channel
	Relay    gpio.Relay
	Store    config.Store
	Watchdog watchdog.Timer
	Sleeper  sleep.Controller

	// Tracker receives a state update once per iteration.
	Tracker *status.Tracker
	// OnEvent is called for every emitted transition event.
	OnEvent func(logic.Event)
	// Now supplies event timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Controller runs the control loop. All fields are owned by the loop
// goroutine except counter, which the tick callback feeds.
type Controller struct {
	clock   timebase.Source
	acc1    *input.Channel
	acc2    *input.Channel
	relay   gpio.Relay
	store   config.Store
	wdt     watchdog.Timer
	sleeper sleep.Controller
	tracker *status.Tracker
	onEvent func(logic.Event)
	now     func() time.Time

	power   logic.PowerState // zero value is PowerReset, the bring-up trigger
	stay    logic.StayOnState
	prog    logic.Program
	waitMin uint8
	relayOn bool
	counts  logic.EventCounts

	counter counter
	tick    timebase.OneShot
}

func New(opts Options) *Controller {
	c := &Controller{
		clock:   opts.Clock,
		acc1:    opts.ACC1,
		acc2:    opts.ACC2,
		relay:   opts.Relay,
		store:   opts.Store,
		wdt:     opts.Watchdog,
		sleeper: opts.Sleeper,
		tracker: opts.Tracker,
		onEvent: opts.OnEvent,
		now:     opts.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.tick = opts.Clock.NewOneShot(c.handleSecond)
	return c
}

// Run steps the controller until ctx is done, waiting out the poll
// interval between iterations. Iterations that performed bring-up or
// ended in a suspension are not paced; they already waited, or must
// re-evaluate immediately.
func (c *Controller) Run(ctx context.Context, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		pause, err := c.Step(ctx)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if !pause {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Step runs one iteration of the control loop: watchdog reset, input
// snapshot, power step and relay drive, then the stay-on and programming
// machines when the ignition line is on. It returns pause=false when the
// iteration restarted from bring-up or ended in a suspension.
func (c *Controller) Step(ctx context.Context) (pause bool, err error) {
	c.wdt.Reset()

	if c.power == logic.PowerReset {
		if err := c.bringUp(); err != nil {
			return false, err
		}
		return false, nil
	}

	now := c.clock.Now()
	acc1 := c.acc1.Sample(now)
	acc2 := c.acc2.Sample(now)

	prev := c.power
	next, eff := logic.StepPower(prev, logic.PowerInput{
		ACC1:        acc1,
		ACC2:        acc2,
		Prog:        c.prog.Phase, // the phase the previous iteration left behind
		Minutes:     c.counter.minutesNow(),
		WaitMinutes: c.waitMin,
	})
	c.power = next

	c.setRelay(eff.Relay)

	if eff.ArmTimer {
		c.counter.zero()
		c.tick.Schedule(now + timebase.TicksPerSecond)
		c.counts.Timer++
		c.emit(logic.EventTimerStarted)
	}
	if prev == logic.PowerTimer && next == logic.PowerDown {
		c.emit(logic.EventTimerExpired)
	}

	switch eff.Sleep {
	case logic.SleepDeep:
		c.syncStatus(acc1, acc2)
		c.wdt.Disable()
		c.sleeper.Deep(ctx)
		c.wdt.Enable()
		return false, nil
	case logic.SleepLight:
		c.syncStatus(acc1, acc2)
		c.wdt.Disable()
		c.sleeper.Light(ctx)
		// The guard stays off until the next PowerDown wake re-enables
		// it; in PowerTimer the 1-second tick is the only activity and
		// most iterations end right back here.
		return false, nil
	}

	// The stay-on and programming machines do not run while ACC1 is off.
	if !acc1.On {
		c.stay = logic.StayOnReset
		c.prog = logic.Program{}
		c.syncStatus(acc1, acc2)
		return true, nil
	}

	var latched bool
	c.stay, latched = logic.StepStayOn(c.stay, acc2)
	if latched {
		c.power = logic.PowerOutStayOn
		c.counts.StayOn++
		c.emit(logic.EventStayOnArmed)
	}

	var peff logic.ProgramEffect
	c.prog, peff = c.prog.Step(acc1, acc2)
	if peff.Commit {
		if err := config.Save(c.store, peff.Minutes); err != nil {
			log.Printf("controller: save wait minutes: %v", err)
		}
		c.waitMin = peff.Minutes
		c.counts.Programmed++
		c.emit(logic.EventProgrammed)
	}

	c.syncStatus(acc1, acc2)
	return true, nil
}

// bringUp loads the persisted wait, latches both line levels, starts the
// second tick and the watchdog, and picks the starting power state.
func (c *Controller) bringUp() error {
	wait, err := config.Load(c.store)
	if err != nil {
		return fmt.Errorf("load wait minutes: %w", err)
	}
	c.waitMin = wait

	on1, err := c.acc1.Prime()
	if err != nil {
		return err
	}
	on2, err := c.acc2.Prime()
	if err != nil {
		return err
	}

	now := c.clock.Now()
	c.counter.zero()
	c.tick.Schedule(now + timebase.TicksPerSecond)
	c.wdt.Enable()

	c.stay = logic.StayOnReset
	c.prog = logic.Program{}
	c.power = logic.NextPower(on1, on2)
	log.Printf("controller: up acc1=%v acc2=%v wait=%dm state=%s", on1, on2, wait, c.power)

	c.syncStatus(c.acc1.Sample(now), c.acc2.Sample(now))
	return nil
}

// handleSecond runs on the tick timer goroutine once per second while
// armed. It re-arms itself from the current tick, advances the counter,
// and wakes a light suspension so the loop re-checks expiry.
func (c *Controller) handleSecond() {
	c.tick.Schedule(c.clock.Now() + timebase.TicksPerSecond)
	c.counter.bump()
	c.sleeper.WakeTick()
}

// setRelay drives both outputs every iteration and reports changes of the
// intended state. A failed write is logged and the intended state kept,
// so the drive is retried next iteration.
func (c *Controller) setRelay(on bool) {
	if err := c.relay.Set(on, on); err != nil {
		log.Printf("controller: relay set: %v", err)
	}
	if on == c.relayOn {
		return
	}
	c.relayOn = on
	if on {
		c.counts.RelayOn++
		c.emit(logic.EventRelayOn)
	} else {
		c.counts.RelayOff++
		c.emit(logic.EventRelayOff)
	}
}

func (c *Controller) emit(t logic.EventType) {
	if c.onEvent == nil {
		return
	}
	c.onEvent(logic.Event{
		Timestamp:   c.now(),
		Type:        t,
		Power:       c.power,
		Relay:       c.relayOn,
		WaitMinutes: c.waitMin,
	})
}

func (c *Controller) syncStatus(acc1, acc2 logic.Sample) {
	if c.tracker == nil {
		return
	}
	c.tracker.Update(status.State{
		Power:        c.power,
		StayOn:       c.stay,
		Program:      c.prog.Phase,
		Flashes:      c.prog.Flashes,
		Relay:        c.relayOn,
		ACC1:         acc1,
		ACC2:         acc2,
		WaitMinutes:  c.waitMin,
		TimerMinutes: c.counter.minutesNow(),
		Counts:       c.counts,
	})
}
