//go:build !linux

package gpio

import "errors"

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// Pins carries the BCM pin assignment for one board.
type Pins struct {
	ACC1, ACC2 int
	Out1, Out2 int
}

// DefaultPins returns the assignment the harness is wired for.
func DefaultPins() Pins {
	return Pins{ACC1: PinACC1, ACC2: PinACC2, Out1: PinOut1, Out2: PinOut2}
}

// OpenBoard returns an error on non-Linux platforms.
func OpenBoard(chipName string, pins Pins) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (b *RealBoard) ACC1() Sense  { return nil }
func (b *RealBoard) ACC2() Sense  { return nil }
func (b *RealBoard) Relay() Relay { return nil }

func (b *RealBoard) Close() error {
	return nil
}
