// Package gpio provides access to the accessory sense inputs and the relay
// output enables with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing and simulation without hardware.
package gpio

// Sense is one accessory sense line.
type Sense interface {
	// Read returns the instantaneous logic level of the raw line.
	Read() (bool, error)

	// OnEdge registers fn to run on every raw transition of the line,
	// replacing any previous handler. Edges seen before a handler is
	// registered are dropped; callers latch the starting level with a
	// Read first.
	OnEdge(fn func())

	// Close releases the line.
	Close() error
}

// Relay drives the two output enables. Both switches are always driven
// together by the controller; the split is a harness concern.
type Relay interface {
	Set(primary, secondary bool) error
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinACC1 = 23 // primary accessory sense
	PinACC2 = 24 // secondary accessory sense
	PinOut1 = 5  // primary output enable
	PinOut2 = 6  // secondary output enable
)
