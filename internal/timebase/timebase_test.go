package timebase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsed(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, Elapsed(100, 350))
	assert.Equal(t, time.Duration(0), Elapsed(500, 500))
}

func TestElapsedAcrossWrap(t *testing.T) {
	// 100 ticks before the counter wraps, 200 after.
	assert.Equal(t, 300*time.Millisecond, Elapsed(65436, 200))
}

func TestElapsedClampsToMaxRun(t *testing.T) {
	assert.Equal(t, MaxRun, Elapsed(0, 65000))
	assert.Equal(t, MaxRun, Elapsed(0, 65200))
	assert.Equal(t, MaxRun, Elapsed(0, 65535))
}

func TestRunKeepsAnchorBelowCap(t *testing.T) {
	d, anchor := Run(1000, 31000)
	assert.Equal(t, 30*time.Second, d)
	assert.Equal(t, Tick(1000), anchor)
}

func TestRunAdvancesAnchorAtCap(t *testing.T) {
	start := Tick(1000)
	now := start + 65300 // wraps
	d, anchor := Run(start, now)
	assert.Equal(t, MaxRun, d)
	assert.Equal(t, now-65000, anchor)
}

// A run sampled regularly must keep reading MaxRun forever, not alias back
// to a short value once the counter laps the original anchor.
func TestRunStaysSaturatedPastWrap(t *testing.T) {
	anchor := Tick(0)
	now := Tick(0)
	var d time.Duration
	for i := 0; i < 400; i++ { // 100 s of 250 ms samples, well past one wrap
		now += 250
		d, anchor = Run(anchor, now)
	}
	assert.Equal(t, MaxRun, d)
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	f := NewFake()
	var order []string
	a := f.NewOneShot(func() { order = append(order, "a") })
	b := f.NewOneShot(func() { order = append(order, "b") })
	a.Schedule(f.Now() + 20)
	b.Schedule(f.Now() + 10)
	f.Advance(50 * time.Millisecond)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestFakeCallbackSeesFireTime(t *testing.T) {
	f := NewFake()
	var at Tick
	o := f.NewOneShot(func() { at = f.Now() })
	o.Schedule(f.Now() + 30)
	f.Advance(100 * time.Millisecond)
	assert.Equal(t, Tick(30), at)
	assert.Equal(t, Tick(100), f.Now())
}

func TestFakeCallbackMayReschedule(t *testing.T) {
	f := NewFake()
	fires := 0
	var o OneShot
	o = f.NewOneShot(func() {
		fires++
		o.Schedule(f.Now() + TicksPerSecond)
	})
	o.Schedule(f.Now() + TicksPerSecond)
	f.Advance(3500 * time.Millisecond)
	assert.Equal(t, 3, fires)
}

func TestFakeScheduleReplacesDeadline(t *testing.T) {
	f := NewFake()
	fires := 0
	o := f.NewOneShot(func() { fires++ })
	o.Schedule(f.Now() + 50)
	f.Advance(20 * time.Millisecond)
	o.Schedule(f.Now() + 50) // due at 70 now
	f.Advance(40 * time.Millisecond)
	assert.Equal(t, 0, fires)
	f.Advance(20 * time.Millisecond)
	assert.Equal(t, 1, fires)
}

func TestFakeStop(t *testing.T) {
	f := NewFake()
	fires := 0
	o := f.NewOneShot(func() { fires++ })
	o.Schedule(f.Now() + 10)
	o.Stop()
	f.Advance(time.Second)
	assert.Equal(t, 0, fires)
}

func TestSystemTimerFires(t *testing.T) {
	c := NewSystemClock()
	done := make(chan struct{})
	o := c.NewOneShot(func() { close(done) })
	o.Schedule(c.Now() + 10)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
