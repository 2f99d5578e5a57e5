// internal/platform/pulseio.go
package platform

import (
	"alarmcode-go/errcode"
	"alarmcode-go/internal/halcore"
	"alarmcode-go/internal/pulsecap"
)

// PulseIO is a trigger/echo pair backed by an OS resource that must be
// released.
type PulseIO interface {
	halcore.PulseEmitter
	halcore.PulseCapturer
	Close() error
}

// GPIOPulseIO builds the trigger emitter and the echo capturer on plain GPIO
// pins taken from pf. The echo pin must support interrupts.
func GPIOPulseIO(pf halcore.PinFactory, trig, echo int) (*pulsecap.Emitter, *pulsecap.Capturer, error) {
	const op = "platform.GPIOPulseIO"
	tp, ok := pf.ByNumber(trig)
	if !ok {
		return nil, nil, errcode.New(errcode.UnknownPin, op, "trigger pin")
	}
	ep, ok := pf.ByNumber(echo)
	if !ok {
		return nil, nil, errcode.New(errcode.UnknownPin, op, "echo pin")
	}
	irq, ok := ep.(halcore.IRQPin)
	if !ok {
		return nil, nil, errcode.New(errcode.Unsupported, op, "echo pin lacks IRQ")
	}
	rx := pulsecap.New(64, 16)
	if _, err := rx.Attach(irq, false); err != nil {
		return nil, nil, errcode.Wrap(errcode.Unavailable, op, err)
	}
	return pulsecap.NewEmitter(tp), rx, nil
}
