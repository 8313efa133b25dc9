package watchdog

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSoftTripsWithoutResets(t *testing.T) {
	var tripped atomic.Bool
	w := NewSoft(30*time.Millisecond, func() { tripped.Store(true) })
	w.Enable()
	defer w.Disable()

	assert.Eventually(t, tripped.Load, time.Second, 5*time.Millisecond)
}

func TestSoftStaysQuietWhileReset(t *testing.T) {
	var tripped atomic.Bool
	w := NewSoft(50*time.Millisecond, func() { tripped.Store(true) })
	w.Enable()
	defer w.Disable()

	for i := 0; i < 10; i++ {
		w.Reset()
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, tripped.Load())
}

func TestSoftDisableStopsTheGuard(t *testing.T) {
	var tripped atomic.Bool
	w := NewSoft(30*time.Millisecond, func() { tripped.Store(true) })
	w.Enable()
	w.Disable()

	time.Sleep(100 * time.Millisecond)
	assert.False(t, tripped.Load(), "a disabled guard must not trip during a suspension")
}

func TestSoftReenableAfterDisable(t *testing.T) {
	var tripped atomic.Bool
	w := NewSoft(30*time.Millisecond, func() { tripped.Store(true) })
	w.Enable()
	w.Disable()
	w.Enable()
	defer w.Disable()

	assert.Eventually(t, tripped.Load, time.Second, 5*time.Millisecond)
}

func TestSoftRedundantEnableIsHarmless(t *testing.T) {
	var trips atomic.Int32
	w := NewSoft(20*time.Millisecond, func() { trips.Add(1) })
	w.Enable()
	w.Enable()
	defer w.Disable()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), trips.Load(), "double enable must not start a second guard")
}

func TestFakeRecords(t *testing.T) {
	f := NewFake()
	f.Enable()
	f.Reset()
	f.Reset()
	f.Disable()

	assert.False(t, f.Enabled())
	assert.Equal(t, 2, f.Resets())
	enables, disables := f.Cycles()
	assert.Equal(t, 1, enables)
	assert.Equal(t, 1, disables)
}
