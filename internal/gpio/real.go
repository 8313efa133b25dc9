//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealBoard owns the GPIO chip, the two sense lines and the two output
// enables on actual hardware.
type RealBoard struct {
	chip *gpiocdev.Chip
	acc1 *senseLine
	acc2 *senseLine
	out  *relayPair
}

// Pins carries the BCM pin assignment for one board.
type Pins struct {
	ACC1, ACC2 int
	Out1, Out2 int
}

// DefaultPins returns the assignment the harness is wired for.
func DefaultPins() Pins {
	return Pins{ACC1: PinACC1, ACC2: PinACC2, Out1: PinOut1, Out2: PinOut2}
}

// OpenBoard requests the four lines on the named chip. Sense lines are
// requested as input with pull-down, matching the totem-pole harness
// drivers, and report both edges so the debounce engine sees every raw
// transition. Output enables start deasserted.
func OpenBoard(chipName string, pins Pins) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealBoard{
		chip: chip,
		acc1: &senseLine{name: "ACC1"},
		acc2: &senseLine{name: "ACC2"},
	}

	b.acc1.line, err = chip.RequestLine(pins.ACC1, gpiocdev.AsInput, gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(b.acc1.handleEvent))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request ACC1 pin %d: %w", pins.ACC1, err)
	}

	b.acc2.line, err = chip.RequestLine(pins.ACC2, gpiocdev.AsInput, gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(b.acc2.handleEvent))
	if err != nil {
		b.acc1.line.Close()
		chip.Close()
		return nil, fmt.Errorf("request ACC2 pin %d: %w", pins.ACC2, err)
	}

	out1, err := chip.RequestLine(pins.Out1, gpiocdev.AsOutput(0))
	if err != nil {
		b.acc2.line.Close()
		b.acc1.line.Close()
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pins.Out1, err)
	}

	out2, err := chip.RequestLine(pins.Out2, gpiocdev.AsOutput(0))
	if err != nil {
		out1.Close()
		b.acc2.line.Close()
		b.acc1.line.Close()
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pins.Out2, err)
	}

	b.out = &relayPair{out1: out1, out2: out2}
	return b, nil
}

func (b *RealBoard) ACC1() Sense  { return b.acc1 }
func (b *RealBoard) ACC2() Sense  { return b.acc2 }
func (b *RealBoard) Relay() Relay { return b.out }

// Close deasserts both output enables and releases all lines. Sense pins
// are left as input with pull-down (the Pi boot default) so externally
// driven harness lines do not confuse the next boot.
func (b *RealBoard) Close() error {
	var errs []error

	if b.out != nil {
		if err := b.out.Set(false, false); err != nil {
			errs = append(errs, err)
		}
		if err := b.out.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range []*senseLine{b.acc2, b.acc1} {
		if s == nil || s.line == nil {
			continue
		}
		if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", s.name, err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", s.name, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// senseLine dispatches character-device edge events to the registered
// handler. Events arrive on the gpiocdev goroutine.
type senseLine struct {
	name string
	line *gpiocdev.Line

	mu sync.Mutex
	fn func()
}

func (s *senseLine) handleEvent(gpiocdev.LineEvent) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *senseLine) OnEdge(fn func()) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *senseLine) Read() (bool, error) {
	v, err := s.line.Value()
	if err != nil {
		return false, fmt.Errorf("read %s pin: %w", s.name, err)
	}
	return v != 0, nil
}

func (s *senseLine) Close() error {
	return s.line.Close()
}

type relayPair struct {
	mu   sync.Mutex
	out1 *gpiocdev.Line
	out2 *gpiocdev.Line
}

func (r *relayPair) Set(primary, secondary bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.out1.SetValue(level(primary)); err != nil {
		return fmt.Errorf("set primary enable: %w", err)
	}
	if err := r.out2.SetValue(level(secondary)); err != nil {
		return fmt.Errorf("set secondary enable: %w", err)
	}
	return nil
}

func (r *relayPair) Close() error {
	var errs []error
	if err := r.out1.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close primary enable: %w", err))
	}
	if err := r.out2.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close secondary enable: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
