// Package input implements the debounce engine for the accessory sense
// lines. The engine is asymmetric: any electrical edge latches a line ON
// immediately, while OFF is accepted only after the line has been quiet
// for the debounce time and a raw read still shows it low. Noise can only
// keep a line on, never glitch it off.
package input

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mthorpe/relayctl/internal/logic"
	"github.com/mthorpe/relayctl/internal/timebase"
)

// DebounceTime is how long a line must stay electrically quiet before an
// OFF level can be accepted. ON needs no settling.
const DebounceTime = 50 * time.Millisecond

// RawReader is the instantaneous line read used at bring-up and at
// debounce expiry.
type RawReader interface {
	Read() (bool, error)
}

// Channel tracks the debounced level of one sense line and the length of
// its ON and OFF runs on the shared time base.
//
// HandleEdge and HandleDebounce are the interrupt entry points and the
// only writers of the level and its anchors. Sample is called from the
// poll loop and copies everything a controller step needs under the lock.
type Channel struct {
	name  string
	raw   RawReader
	clock timebase.Clock
	timer timebase.OneShot
	wake  func()

	mu       sync.Mutex
	on       bool
	onStart  timebase.Tick
	offStart timebase.Tick
	onRun    time.Duration // frozen at its final value while the line is off
	offRun   time.Duration // frozen at its final value while the line is on
}

// New creates a channel for one sense line. The debounce timer is minted
// from src against the same tick counter the anchors use. wake, if not
// nil, is called after every edge and debounce expiry so suspended loops
// re-evaluate.
func New(name string, raw RawReader, src timebase.Source, wake func()) *Channel {
	c := &Channel{name: name, raw: raw, clock: src, wake: wake}
	c.timer = src.NewOneShot(c.HandleDebounce)
	return c
}

func (c *Channel) Name() string { return c.name }

// Prime latches the current raw level as the debounced level. Called once
// during bring-up, before edge events are routed to the channel.
func (c *Channel) Prime() (bool, error) {
	v, err := c.raw.Read()
	if err != nil {
		return false, fmt.Errorf("prime %s: %w", c.name, err)
	}
	now := c.clock.Now()
	c.mu.Lock()
	c.on = v
	if v {
		c.onStart = now
	} else {
		c.offStart = now
	}
	c.mu.Unlock()
	return v, nil
}

// HandleEdge processes one raw transition. Any activity re-arms the
// debounce timer; a rising observation latches ON with zero latency, and
// the possible OFF is resolved once the line has settled.
func (c *Channel) HandleEdge() {
	now := c.clock.Now()
	c.timer.Schedule(now + timebase.TicksOf(DebounceTime))
	c.mu.Lock()
	if !c.on {
		c.on = true
		c.onStart = now
	}
	c.mu.Unlock()
	if c.wake != nil {
		c.wake()
	}
}

// HandleDebounce runs once the line has been quiet for DebounceTime. A
// raw read that still shows the line low finalizes the OFF; a high read
// means ON was already latched at the edge and nothing changes.
func (c *Channel) HandleDebounce() {
	now := c.clock.Now()
	c.mu.Lock()
	if c.on {
		v, err := c.raw.Read()
		switch {
		case err != nil:
			// Treat an unreadable line as still on; the next edge
			// schedules another chance to resolve it.
			log.Printf("input %s: debounce read: %v", c.name, err)
		case !v:
			c.on = false
			c.offStart = now
		}
	}
	c.mu.Unlock()
	if c.wake != nil {
		c.wake()
	}
}

// Sample returns the debounced level and both run durations as of now.
// The active side's run is measured against its anchor, clamped to
// timebase.MaxRun with the anchor written back on saturation; the
// inactive side keeps the final value it had when that level ended.
func (c *Channel) Sample(now timebase.Tick) logic.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.on {
		c.onRun, c.onStart = timebase.Run(c.onStart, now)
	} else {
		c.offRun, c.offStart = timebase.Run(c.offStart, now)
	}
	return logic.Sample{On: c.on, OnRun: c.onRun, OffRun: c.offRun}
}
