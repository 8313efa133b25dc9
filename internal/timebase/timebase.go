// Package timebase provides the millisecond tick counter the controller
// measures input durations against, plus one-shot timers armed at absolute
// tick values.
//
// The counter is 16 bits wide and wraps every 65.536 s. Durations derived
// from it are clamped to MaxRun, safely inside a single wrap, so a level
// that holds for minutes still reads as a long-but-bounded run instead of
// a small one.
package timebase

import "time"

// Tick is one millisecond on the controller time base. Subtraction of
// Ticks is wraparound-correct by virtue of uint16 overflow.
type Tick uint16

// TicksPerSecond converts whole seconds to Ticks.
const TicksPerSecond = 1000

// MaxRun is the longest level run the time base reports. Runs are clamped
// here, just under the counter wrap, so a clamped reading can never be
// confused with a freshly started run.
const MaxRun = 65 * time.Second

const maxRunTicks = Tick(MaxRun / time.Millisecond)

// Duration converts a tick count to a time.Duration.
func (t Tick) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// TicksOf converts d to Ticks, truncating to whole milliseconds. Only
// meaningful for durations below the counter wrap.
func TicksOf(d time.Duration) Tick {
	return Tick(d / time.Millisecond)
}

// Elapsed returns the time from since to now, wraparound-correct and
// clamped to MaxRun.
func Elapsed(since, now Tick) time.Duration {
	d := now - since
	if d > maxRunTicks {
		d = maxRunTicks
	}
	return d.Duration()
}

// Run returns the elapsed time from anchor to now along with the anchor to
// carry forward. Below MaxRun the anchor comes back unchanged; at
// saturation it is advanced to now-MaxRun, so a run that outlives a
// counter wrap keeps reading MaxRun instead of aliasing back to a short
// value.
func Run(anchor, now Tick) (time.Duration, Tick) {
	d := now - anchor
	if d > maxRunTicks {
		return MaxRun, now - maxRunTicks
	}
	return d.Duration(), anchor
}

// Clock supplies the current tick count.
type Clock interface {
	Now() Tick
}

// OneShot is a single-fire timer armed at an absolute tick. Scheduling an
// armed timer replaces its deadline; the fire callback runs off the
// caller's goroutine on the real implementation.
type OneShot interface {
	Schedule(at Tick)
	Stop()
}

// Source is a Clock that can also mint one-shot timers compared against
// the same counter.
type Source interface {
	Clock
	NewOneShot(fire func()) OneShot
}
