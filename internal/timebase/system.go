package timebase

import (
	"sync"
	"time"
)

// SystemClock derives Ticks from the runtime monotonic clock. The uint16
// conversion applies the 65.536 s wrap.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() Tick {
	return Tick(time.Since(c.start) / time.Millisecond)
}

// NewOneShot returns a timer that runs fire on its own goroutine once the
// clock reaches the scheduled tick.
func (c *SystemClock) NewOneShot(fire func()) OneShot {
	return &systemTimer{clock: c, fire: fire}
}

type systemTimer struct {
	clock *SystemClock
	fire  func()

	mu sync.Mutex
	t  *time.Timer
}

// Schedule arms the timer for the absolute tick at. The delay is the
// wraparound distance from now to at, so deadlines computed as now+delta
// survive the counter wrapping in between.
func (s *systemTimer) Schedule(at Tick) {
	delay := (at - s.clock.Now()).Duration()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t == nil {
		s.t = time.AfterFunc(delay, s.fire)
		return
	}
	s.t.Reset(delay)
}

func (s *systemTimer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t != nil {
		s.t.Stop()
	}
}
