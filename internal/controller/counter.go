package controller

import "sync"

// counter tracks whole seconds and minutes since the stay-on timer was
// armed. bump runs on the tick timer goroutine; the loop reads minutes
// and zeroes both fields when it arms the countdown.
type counter struct {
	mu      sync.Mutex
	seconds uint8
	minutes uint8
}

func (c *counter) bump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seconds++
	if c.seconds == 60 {
		c.seconds = 0
		c.minutes++
		// Minutes saturate at 60.
		if c.minutes > 60 {
			c.minutes = 60
		}
	}
}

func (c *counter) zero() {
	c.mu.Lock()
	c.seconds, c.minutes = 0, 0
	c.mu.Unlock()
}

func (c *counter) minutesNow() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minutes
}
