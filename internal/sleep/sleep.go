// Package sleep implements the loop's low-power suspensions as waits on
// wake notifications posted by the interrupt handlers.
package sleep

import "context"

// Controller suspends the poll loop until hardware activity.
type Controller interface {
	// Deep blocks until an input edge wake or ctx is done. Entered from
	// the powered-down state, where only input activity matters.
	Deep(ctx context.Context)
	// Light blocks until any wake, input edge or periodic tick, or ctx is
	// done. Entered while the stay-on timer runs.
	Light(ctx context.Context)
	// WakeEdge is posted by the input edge and debounce handlers.
	WakeEdge()
	// WakeTick is posted by the 1-second counter tick.
	WakeTick()
}

// Latch is the production Controller. Wake tokens are coalescing: a wake
// posted while the loop is awake is held and satisfies the next suspension
// immediately, so activity is never lost, only deduplicated.
type Latch struct {
	edge chan struct{}
	tick chan struct{}
}

func NewLatch() *Latch {
	return &Latch{
		edge: make(chan struct{}, 1),
		tick: make(chan struct{}, 1),
	}
}

func (l *Latch) WakeEdge() {
	select {
	case l.edge <- struct{}{}:
	default:
	}
}

func (l *Latch) WakeTick() {
	select {
	case l.tick <- struct{}{}:
	default:
	}
}

func (l *Latch) Deep(ctx context.Context) {
	select {
	case <-l.edge:
	case <-ctx.Done():
	}
}

func (l *Latch) Light(ctx context.Context) {
	select {
	case <-l.edge:
	case <-l.tick:
	case <-ctx.Done():
	}
}
