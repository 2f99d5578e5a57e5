// internal/pulsecap/emit.go
package pulsecap

import (
	"context"
	"sync/atomic"
	"time"

	"alarmcode-go/errcode"
	"alarmcode-go/internal/halcore"
)

// Emitter bit-bangs pulses on a GPIO output. It implements
// halcore.PulseEmitter. The line idles low.
type Emitter struct {
	pin  halcore.GPIOPin
	busy atomic.Bool
	done chan struct{}

	// sleep is replaceable so tests need not wait on real timers.
	sleep func(time.Duration)
}

func NewEmitter(pin halcore.GPIOPin) *Emitter {
	return &Emitter{
		pin:   pin,
		done:  make(chan struct{}, 1),
		sleep: time.Sleep,
	}
}

func (e *Emitter) ConfigureEmitter() error {
	return e.pin.ConfigureOutput(false)
}

// Emit starts one pulse and returns immediately. A pulse already in flight
// yields errcode.Busy.
func (e *Emitter) Emit(p halcore.Pulse) error {
	if !e.busy.CompareAndSwap(false, true) {
		return errcode.Busy
	}
	// Clear a completion nobody waited for.
	select {
	case <-e.done:
	default:
	}
	go func() {
		e.pin.Set(false)
		e.sleep(p.Low)
		e.pin.Set(true)
		e.sleep(p.High)
		e.pin.Set(false)
		e.done <- struct{}{}
		e.busy.Store(false)
	}()
	return nil
}

// WaitDone blocks until the pulse started by the last Emit has finished.
func (e *Emitter) WaitDone(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
