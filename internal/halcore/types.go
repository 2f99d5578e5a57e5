// internal/halcore/types.go
package halcore

import (
	"context"
	"time"

	"tinygo.org/x/drivers"
)

// ---- Pulse peripheral boundary ----

// Pulse is one captured or emitted edge pair: the line held low for Low,
// then high for High.
type Pulse struct {
	Low  time.Duration
	High time.Duration
}

// PulseEmitter drives the trigger output.
type PulseEmitter interface {
	ConfigureEmitter() error
	// Emit starts transmitting p and returns without waiting.
	Emit(p Pulse) error
	// WaitDone blocks until the last Emit has been fully transmitted.
	// There is no timeout; only ctx cancellation ends the wait early.
	WaitDone(ctx context.Context) error
}

// PulseCapturer delivers captured pulses from the echo input.
type PulseCapturer interface {
	// StartCapture arms the input. Pulses whose high phase exceeds idle are
	// never delivered.
	StartCapture(ctx context.Context, idle time.Duration) error
	// Receive waits up to wait for at least one pulse and returns every
	// pulse queued at that point, oldest first. A timeout returns an empty
	// batch and a nil error.
	Receive(ctx context.Context, wait time.Duration) ([]Pulse, error)
}

// ---- Buses ----

// I2CBusFactory injects configured I²C instances by id.
// Uses the TinyGo drivers.I2C interface to remain compatible on MCU builds.
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// SerialPort is a byte stream such as the console UART.
type SerialPort interface {
	Write(p []byte) (int, error)
	// RecvSomeContext blocks until at least one byte is read or ctx ends.
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}
