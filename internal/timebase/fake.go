package timebase

import (
	"sync"
	"time"
)

// Fake is a manually advanced Source for tests and the simulator. Advance
// moves time forward, firing due timers in deadline order on the calling
// goroutine; a fire callback may re-arm its own timer.
type Fake struct {
	mu     sync.Mutex
	abs    int64 // milliseconds since construction; Tick is the low 16 bits
	timers []*fakeTimer
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Now() Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Tick(f.abs)
}

func (f *Fake) NewOneShot(fire func()) OneShot {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, fire: fire}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward by d. Each due timer fires with the
// clock stopped at its deadline, so callbacks that read Now see their own
// fire time.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.abs + int64(d/time.Millisecond)
	for {
		var next *fakeTimer
		for _, t := range f.timers {
			if t.armed && (next == nil || t.due < next.due) {
				next = t
			}
		}
		if next == nil || next.due > target {
			f.abs = target
			f.mu.Unlock()
			return
		}
		f.abs = next.due
		next.armed = false
		fire := next.fire
		f.mu.Unlock()
		fire()
		f.mu.Lock()
	}
}

type fakeTimer struct {
	clock *Fake
	fire  func()
	armed bool
	due   int64 // absolute milliseconds
}

// Schedule arms the timer at the absolute tick at, interpreted as the
// wraparound distance from the current clock value, matching the real
// timer's deadline arithmetic.
func (t *fakeTimer) Schedule(at Tick) {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	t.due = c.abs + int64(at-Tick(c.abs))
	t.armed = true
}

func (t *fakeTimer) Stop() {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	t.armed = false
}
