package gpio

import "sync"

// FakePin is a scriptable sense line. SetLevel drives the raw level and
// fires the registered edge handler synchronously on the calling
// goroutine, keeping tests and the simulator deterministic.
type FakePin struct {
	mu    sync.Mutex
	level bool
	fn    func()

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by Read.
	ReadError error
}

// NewFakePin creates a pin resting at the given raw level.
func NewFakePin(level bool) *FakePin {
	return &FakePin{level: level}
}

func (p *FakePin) Read() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReadError != nil {
		return false, p.ReadError
	}
	return p.level, nil
}

func (p *FakePin) OnEdge(fn func()) {
	p.mu.Lock()
	p.fn = fn
	p.mu.Unlock()
}

func (p *FakePin) Close() error {
	p.mu.Lock()
	p.Closed = true
	p.mu.Unlock()
	return nil
}

// SetLevel drives the raw line to v, firing one edge event if the level
// changed.
func (p *FakePin) SetLevel(v bool) {
	p.mu.Lock()
	changed := p.level != v
	p.level = v
	fn := p.fn
	p.mu.Unlock()
	if changed && fn != nil {
		fn()
	}
}

// Bounce emulates n cycles of contact bounce that settle back at the
// current level: each cycle fires two edge events without moving the
// settled level a raw read would see.
func (p *FakePin) Bounce(n int) {
	p.mu.Lock()
	fn := p.fn
	p.mu.Unlock()
	if fn == nil {
		return
	}
	for i := 0; i < 2*n; i++ {
		fn()
	}
}

// RelayState is one recorded output drive.
type RelayState struct {
	Primary, Secondary bool
}

// FakeRelay records output drive changes.
type FakeRelay struct {
	mu        sync.Mutex
	primary   bool
	secondary bool

	// Changes holds the drive after each Set that moved it. Repeated Sets
	// to the same state are not recorded.
	Changes []RelayState

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

func NewFakeRelay() *FakeRelay {
	return &FakeRelay{}
}

func (f *FakeRelay) Set(primary, secondary bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	if primary != f.primary || secondary != f.secondary {
		f.primary, f.secondary = primary, secondary
		f.Changes = append(f.Changes, RelayState{Primary: primary, Secondary: secondary})
	}
	return nil
}

func (f *FakeRelay) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// On reports whether both enables are currently asserted.
func (f *FakeRelay) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.primary && f.secondary
}
