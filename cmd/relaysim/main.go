// Command relaysim runs the relay controller against simulated inputs, for
// bench-testing gesture and programming timing without hardware. Time only
// moves when a command advances it, so sequences can be driven exactly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/mthorpe/relayctl/internal/config"
	"github.com/mthorpe/relayctl/internal/controller"
	"github.com/mthorpe/relayctl/internal/gpio"
	"github.com/mthorpe/relayctl/internal/input"
	"github.com/mthorpe/relayctl/internal/logic"
	"github.com/mthorpe/relayctl/internal/sleep"
	"github.com/mthorpe/relayctl/internal/status"
	"github.com/mthorpe/relayctl/internal/timebase"
	"github.com/mthorpe/relayctl/internal/watchdog"
)

// pollStep matches the production poll interval.
const pollStep = 20 * time.Millisecond

// sim is a controller wired to fakes, advanced manually from the prompt.
type sim struct {
	clock   *timebase.Fake
	acc1    *gpio.FakePin
	acc2    *gpio.FakePin
	relay   *gpio.FakeRelay
	store   *config.Memory
	tracker *status.Tracker
	ctrl    *controller.Controller
	elapsed time.Duration
}

func newSim() *sim {
	s := &sim{
		clock:   timebase.NewFake(),
		acc1:    gpio.NewFakePin(false),
		acc2:    gpio.NewFakePin(false),
		relay:   gpio.NewFakeRelay(),
		store:   config.NewMemory(),
		tracker: status.NewTracker(time.Now(), status.Config{PollMs: pollStep.Milliseconds()}),
	}
	sleeper := sleep.NewFake()
	ch1 := input.New("acc1", s.acc1, s.clock, sleeper.WakeEdge)
	ch2 := input.New("acc2", s.acc2, s.clock, sleeper.WakeEdge)
	s.acc1.OnEdge(ch1.HandleEdge)
	s.acc2.OnEdge(ch2.HandleEdge)

	s.ctrl = controller.New(controller.Options{
		Clock:    s.clock,
		ACC1:     ch1,
		ACC2:     ch2,
		Relay:    s.relay,
		Store:    s.store,
		Watchdog: watchdog.NewFake(),
		Sleeper:  sleeper,
		Tracker:  s.tracker,
		OnEvent: func(ev logic.Event) {
			fmt.Printf("[%9.3fs] %-13s power=%s output=%s wait=%dm\n",
				s.elapsed.Seconds(), ev.Type, ev.Power, onOff(ev.Relay), ev.WaitMinutes)
		},
	})
	return s
}

func (s *sim) step() {
	if _, err := s.ctrl.Step(context.Background()); err != nil {
		log.Printf("step: %v", err)
	}
}

// run advances simulated time in poll-sized slices, stepping the controller
// after each.
func (s *sim) run(d time.Duration) {
	for done := time.Duration(0); done < d; done += pollStep {
		s.clock.Advance(pollStep)
		s.elapsed += pollStep
		s.step()
	}
}

func (s *sim) pin(name string) *gpio.FakePin {
	switch name {
	case "acc1":
		return s.acc1
	case "acc2":
		return s.acc2
	}
	return nil
}

func (s *sim) printStatus() {
	snap := s.tracker.Snapshot()
	fmt.Printf("t=%.3fs power=%s output=%s stay=%s prog=%s flashes=%d\n",
		s.elapsed.Seconds(), snap.Power, onOff(snap.Relay), snap.StayOn, snap.Program, snap.Flashes)
	fmt.Printf("acc1=%s acc2=%s wait=%dm timer=%dm\n",
		lineString(snap.ACC1), lineString(snap.ACC2), snap.WaitMinutes, snap.TimerMinutes)
	c := snap.Counts
	fmt.Printf("counts: relay_on=%d relay_off=%d stay_on=%d timer=%d programmed=%d\n",
		c.RelayOn, c.RelayOff, c.StayOn, c.Timer, c.Programmed)
}

func (s *sim) printStore() {
	v, ok := s.store.Value()
	if !ok {
		fmt.Printf("store: empty (default %d min), writes=%d\n", config.DefaultWaitMinutes, s.store.Writes)
		return
	}
	fmt.Printf("store: %d min, writes=%d\n", v, s.store.Writes)
}

func lineString(smp logic.Sample) string {
	if smp.On {
		return fmt.Sprintf("ON(%.2fs)", smp.OnRun.Seconds())
	}
	return fmt.Sprintf("OFF(%.2fs)", smp.OffRun.Seconds())
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func parseLevel(arg string) (bool, error) {
	switch arg {
	case "on", "1", "high":
		return true, nil
	case "off", "0", "low":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", arg)
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  acc1 on|off          - set the primary sense line")
	fmt.Println("  acc2 on|off          - set the secondary sense line")
	fmt.Println("  pulse <line> <dur>   - drive a line high for a duration, e.g. pulse acc2 500ms")
	fmt.Println("  bounce <line> <n>    - fire n raw edges without a level change")
	fmt.Println("  wait <dur>           - advance simulated time, e.g. wait 3s")
	fmt.Println("  status               - print the controller state")
	fmt.Println("  store                - print the persisted wait minutes")
	fmt.Println("  reset                - power-cycle the simulation")
	fmt.Println("  quit                 - exit")
}

// handleCommand runs one command line. It returns false when the user asked
// to quit.
func handleCommand(s *sim, fields []string) (*sim, bool) {
	switch fields[0] {
	case "acc1", "acc2":
		if len(fields) != 2 {
			fmt.Printf("usage: %s on|off\n", fields[0])
			return s, true
		}
		level, err := parseLevel(fields[1])
		if err != nil {
			fmt.Println(err)
			return s, true
		}
		s.pin(fields[0]).SetLevel(level)
		s.run(pollStep)

	case "pulse":
		if len(fields) != 3 {
			fmt.Println("usage: pulse <acc1|acc2> <duration>")
			return s, true
		}
		pin := s.pin(fields[1])
		if pin == nil {
			fmt.Printf("unknown line %q\n", fields[1])
			return s, true
		}
		d, err := time.ParseDuration(fields[2])
		if err != nil {
			fmt.Printf("bad duration: %v\n", err)
			return s, true
		}
		pin.SetLevel(true)
		s.run(d)
		pin.SetLevel(false)
		s.run(pollStep)

	case "bounce":
		if len(fields) != 3 {
			fmt.Println("usage: bounce <acc1|acc2> <count>")
			return s, true
		}
		pin := s.pin(fields[1])
		if pin == nil {
			fmt.Printf("unknown line %q\n", fields[1])
			return s, true
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 1 {
			fmt.Println("count must be a positive integer")
			return s, true
		}
		pin.Bounce(n)
		s.run(pollStep)

	case "wait":
		if len(fields) != 2 {
			fmt.Println("usage: wait <duration>")
			return s, true
		}
		d, err := time.ParseDuration(fields[1])
		if err != nil {
			fmt.Printf("bad duration: %v\n", err)
			return s, true
		}
		s.run(d)

	case "status":
		s.printStatus()

	case "store":
		s.printStore()

	case "reset":
		fmt.Println("power cycle")
		s = newSim()
		s.step()

	case "help":
		printHelp()

	case "quit", "exit":
		return s, false

	default:
		fmt.Printf("unknown command: %s (try 'help')\n", fields[0])
	}
	return s, true
}

// historyPath returns the readline history location under the user cache
// directory.
func historyPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // no history if we can't find home
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "relaysim")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "history")
}

func main() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "relaysim> ",
		HistoryFile: historyPath(),
	})
	if err != nil {
		log.Fatalf("readline init: %v", err)
	}
	defer rl.Close()

	fmt.Println("relay controller simulator (type 'help' for commands)")
	s := newSim()
	s.step()
	s.printStatus()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return
		}
		if err != nil {
			return // EOF
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var cont bool
		s, cont = handleCommand(s, fields)
		if !cont {
			return
		}
	}
}
