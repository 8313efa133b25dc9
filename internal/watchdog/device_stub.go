//go:build !linux

package watchdog

import (
	"log"
	"time"
)

// Device is not available on non-Linux platforms.
type Device struct{}

func NewDevice(path string, timeout time.Duration) *Device {
	log.Printf("watchdog: %s not supported on this platform", path)
	return &Device{}
}

func (d *Device) Enable()  {}
func (d *Device) Disable() {}
func (d *Device) Reset()   {}
