// Package watchdog guards the poll loop's liveness. While enabled, Reset
// must arrive at least once per timeout or the guard trips.
package watchdog

import (
	"sync"
	"time"
)

// Timer is the loop liveness guard. Enable and Disable bracket the
// suspensions, where no Reset can arrive by design.
type Timer interface {
	Enable()
	Disable()
	Reset()
}

// Soft is an in-process watchdog. While enabled, a goroutine waits for
// Reset calls and invokes trip once if none arrives within the timeout.
// Used where no hardware watchdog device is available; the trip function
// typically exits the process so the service manager restarts it.
type Soft struct {
	timeout time.Duration
	trip    func()
	kick    chan struct{}

	mu      sync.Mutex
	enabled bool
	stop    chan struct{}
}

func NewSoft(timeout time.Duration, trip func()) *Soft {
	if trip == nil {
		trip = func() { panic("watchdog: loop stalled") }
	}
	return &Soft{
		timeout: timeout,
		trip:    trip,
		kick:    make(chan struct{}, 1),
	}
}

func (s *Soft) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	s.enabled = true
	s.stop = make(chan struct{})
	go s.watch(s.stop)
}

func (s *Soft) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	close(s.stop)
}

func (s *Soft) Reset() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Soft) watch(stop chan struct{}) {
	t := time.NewTimer(s.timeout)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-s.kick:
			t.Reset(s.timeout)
		case <-t.C:
			s.trip()
			return
		}
	}
}
