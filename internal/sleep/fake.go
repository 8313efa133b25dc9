package sleep

import (
	"context"
	"sync"
)

// Fake is a non-blocking Controller for tests and the simulator. It
// records suspensions and returns immediately.
type Fake struct {
	mu     sync.Mutex
	deeps  int
	lights int
	edges  int
	ticks  int
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Deep(context.Context) {
	f.mu.Lock()
	f.deeps++
	f.mu.Unlock()
}

func (f *Fake) Light(context.Context) {
	f.mu.Lock()
	f.lights++
	f.mu.Unlock()
}

func (f *Fake) WakeEdge() {
	f.mu.Lock()
	f.edges++
	f.mu.Unlock()
}

func (f *Fake) WakeTick() {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
}

// Counts returns how many deep and light suspensions were entered.
func (f *Fake) Counts() (deeps, lights int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deeps, f.lights
}
