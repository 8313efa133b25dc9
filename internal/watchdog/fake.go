package watchdog

import "sync"

// Fake records watchdog calls for tests and the simulator.
type Fake struct {
	mu       sync.Mutex
	enabled  bool
	resets   int
	enables  int
	disables int
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Enable() {
	f.mu.Lock()
	f.enabled = true
	f.enables++
	f.mu.Unlock()
}

func (f *Fake) Disable() {
	f.mu.Lock()
	f.enabled = false
	f.disables++
	f.mu.Unlock()
}

func (f *Fake) Reset() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

func (f *Fake) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *Fake) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

// Cycles returns how many times the guard was enabled and disabled.
func (f *Fake) Cycles() (enables, disables int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enables, f.disables
}
