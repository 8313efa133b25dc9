//go:build linux

package watchdog

import (
	"log"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Device drives a hardware watchdog through the Linux watchdog character
// device. Enable opens the device, which starts the hardware countdown;
// Disable performs the magic close so the hardware disarms instead of
// rebooting the machine when the descriptor closes.
type Device struct {
	path    string
	timeout int // seconds

	mu sync.Mutex
	fd int
}

func NewDevice(path string, timeout time.Duration) *Device {
	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &Device{path: path, timeout: secs, fd: -1}
}

func (d *Device) Enable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd >= 0 {
		return
	}
	fd, err := unix.Open(d.path, unix.O_WRONLY, 0)
	if err != nil {
		log.Printf("watchdog: open %s: %v", d.path, err)
		return
	}
	timeout := d.timeout
	if err := unix.IoctlSetPointerInt(fd, unix.WDIOC_SETTIMEOUT, timeout); err != nil {
		log.Printf("watchdog: set timeout: %v", err)
	}
	d.fd = fd
}

func (d *Device) Disable() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return
	}
	// The magic close tells the driver this is an orderly stop.
	if _, err := unix.Write(d.fd, []byte("V")); err != nil {
		log.Printf("watchdog: magic close: %v", err)
	}
	if err := unix.Close(d.fd); err != nil {
		log.Printf("watchdog: close: %v", err)
	}
	d.fd = -1
}

func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return
	}
	if err := unix.IoctlWatchdogKeepalive(d.fd); err != nil {
		log.Printf("watchdog: keepalive: %v", err)
	}
}
