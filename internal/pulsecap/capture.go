// internal/pulsecap/capture.go
package pulsecap

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"alarmcode-go/errcode"
	"alarmcode-go/internal/halcore"
	"alarmcode-go/x/mathx"
)

// Capturer turns level edges on an echo input into Pulses. It implements
// halcore.PulseCapturer.
//
// Edges arrive either from an interrupt handler installed by Attach or from
// Push (used by platforms that deliver timestamped edge events themselves).
type Capturer struct {
	// Written by ISR; MUST NOT block the ISR:
	isrQ chan edge
	// Consumed by Receive:
	outQ chan halcore.Pulse

	started atomic.Bool
	idle    atomic.Int64 // time.Duration

	mu     sync.Mutex
	detach func()

	asm assembler

	drops  atomic.Uint32 // ISR queue full
	overs  atomic.Uint32 // pulses dropped for exceeding idle
	losses atomic.Uint32 // out queue full
}

type edge struct {
	level bool
	ts    time.Duration // monotonic offset from the capturer epoch
}

// New creates a Capturer. isrBuf bounds queued edges, outBuf queued pulses.
func New(isrBuf, outBuf int) *Capturer {
	if isrBuf <= 0 {
		isrBuf = 64
	}
	if outBuf <= 0 {
		outBuf = 64
	}
	c := &Capturer{
		isrQ: make(chan edge, isrBuf),
		outQ: make(chan halcore.Pulse, outBuf),
	}
	c.idle.Store(int64(25 * time.Millisecond))
	return c
}

var epoch = time.Now()

// Attach installs a both-edges interrupt on pin. Edges are timestamped in
// the handler. The returned func removes the interrupt.
func (c *Capturer) Attach(pin halcore.IRQPin, invert bool) (func(), error) {
	if err := pin.ConfigureInput(halcore.PullDown); err != nil {
		return nil, err
	}
	// ISR handler: fast register read + non-blocking channel send.
	handler := func() {
		l := pin.Get()
		if invert {
			l = !l
		}
		c.Push(l, time.Since(epoch))
	}
	if err := pin.SetIRQ(halcore.EdgeBoth, handler); err != nil {
		return nil, err
	}
	println("[pulsecap] echo irq on pin", pin.Number(), halcore.EdgeToString(halcore.EdgeBoth))
	cancel := func() { _ = pin.ClearIRQ() }
	c.mu.Lock()
	c.detach = cancel
	c.mu.Unlock()
	return cancel, nil
}

// Push queues one edge: level is the line level after the edge, ts a
// monotonic timestamp. Safe to call from interrupt context.
func (c *Capturer) Push(level bool, ts time.Duration) {
	select {
	case c.isrQ <- edge{level: level, ts: ts}:
	default:
		c.drops.Add(1) // protect ISR path
	}
}

// StartCapture starts the assembling goroutine. Calling it twice returns
// errcode.AlreadyStarted.
func (c *Capturer) StartCapture(ctx context.Context, idle time.Duration) error {
	if !c.started.CompareAndSwap(false, true) {
		return errcode.AlreadyStarted
	}
	if idle > 0 {
		c.idle.Store(int64(idle))
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.mu.Lock()
				if c.detach != nil {
					c.detach()
					c.detach = nil
				}
				c.mu.Unlock()
				return
			case e := <-c.isrQ:
				c.handle(e)
			}
		}
	}()
	return nil
}

func (c *Capturer) handle(e edge) {
	p, ok, over := c.asm.edge(e, time.Duration(c.idle.Load()))
	if over {
		c.overs.Add(1)
		return
	}
	if !ok {
		return
	}
	select {
	case c.outQ <- p:
	default:
		// drop to protect system if consumer is slow
		c.losses.Add(1)
	}
}

// Receive waits up to wait for the first pulse, then drains what is queued.
func (c *Capturer) Receive(ctx context.Context, wait time.Duration) ([]halcore.Pulse, error) {
	t := time.NewTimer(wait)
	defer t.Stop()

	var first halcore.Pulse
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.C:
		return nil, nil
	case first = <-c.outQ:
	}
	batch := []halcore.Pulse{first}
	for {
		select {
		case p := <-c.outQ:
			batch = append(batch, p)
		default:
			return batch, nil
		}
	}
}

// Stats reports ISR queue drops, over-long pulses and out queue losses.
func (c *Capturer) Stats() (drops, overs, losses uint32) {
	return c.drops.Load(), c.overs.Load(), c.losses.Load()
}

// ---- edge pairing ----

// assembler pairs a rising edge with the following falling edge. It is
// only touched by the capture goroutine.
type assembler struct {
	high     bool
	riseAt   time.Duration
	fallAt   time.Duration
	seenFall bool
}

// edge consumes one edge. It returns a completed pulse when e closes a high
// phase; over is set when that phase exceeded idle.
func (a *assembler) edge(e edge, idle time.Duration) (p halcore.Pulse, ok, over bool) {
	switch {
	case e.level && !a.high:
		a.high = true
		a.riseAt = e.ts
		return p, false, false
	case !e.level && a.high:
		a.high = false
		high := e.ts - a.riseAt
		var low time.Duration
		if a.seenFall {
			low = mathx.Clamp(a.riseAt-a.fallAt, 0, idle)
		}
		a.fallAt = e.ts
		a.seenFall = true
		if high > idle {
			return p, false, true
		}
		return halcore.Pulse{Low: low, High: high}, true, false
	default:
		// Repeated level (missed edge); resync on it.
		if !e.level {
			a.fallAt = e.ts
			a.seenFall = true
		}
		return p, false, false
	}
}
