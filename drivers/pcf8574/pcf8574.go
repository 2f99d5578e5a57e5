// Package pcf8574 provides a driver for the PCF8574 8-bit I²C port expander,
// used here to drive a bank of indicator LEDs.
//
// The expander has quasi-bidirectional outputs that can only sink current,
// so LEDs wired to VCC light when their bit is 0 (active-low). Writes are a
// single-byte transaction; the port latches until the next write.
package pcf8574

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"
)

// DefaultAddress is the 7-bit address of a PCF8574A with A0..A2 tied high.
const DefaultAddress = 0x3F

var ErrNoBus = errors.New("pcf8574: no i2c bus")

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to DefaultAddress if zero.
	Address uint16
	// ActiveHigh inverts every written byte, for boards with LEDs wired to GND.
	ActiveHigh bool
}

// Device wraps an I²C connection to a PCF8574.
type Device struct {
	bus drivers.I2C

	mu      sync.Mutex
	Address uint16 // guarded by mu once Write may run
	invert  bool
	buf     [1]byte
	last    byte
	writes  uint32
}

// New creates a new PCF8574 connection. The I²C bus must already be configured.
// This function only creates the Device object; it does not touch the device.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: DefaultAddress, last: 0xFF}
}

// Configure applies optional config. It does not touch the device.
func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) == 0 {
		return
	}
	c := cfgs[0]
	d.mu.Lock()
	if c.Address != 0 {
		d.Address = c.Address
	}
	d.invert = c.ActiveHigh
	d.mu.Unlock()
}

// Write latches pattern onto the port.
func (d *Device) Write(pattern byte) error {
	if d.bus == nil {
		return ErrNoBus
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v := pattern
	if d.invert {
		v = ^v
	}
	d.buf[0] = v
	if err := d.bus.Tx(d.Address, d.buf[:], nil); err != nil {
		return err
	}
	d.last = pattern
	d.writes++
	return nil
}

// Last returns the last pattern written successfully (0xFF before any).
func (d *Device) Last() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Writes returns the number of successful writes.
func (d *Device) Writes() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}
