// internal/platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"alarmcode-go/drivers/hcsr04"
	"alarmcode-go/internal/halcore"

	"tinygo.org/x/drivers"
)

// ----------------------------- I²C (host) ------------------------------------

// HostI2C implements tinygo drivers.I2C for host-side tests. Every write is
// recorded so indicator patterns can be inspected.
type HostI2C struct {
	mu     sync.Mutex
	LastTx struct {
		Addr uint16
		W    []byte
		Rn   int
	}
	writes [][]byte
	fail   error
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail != nil {
		return h.fail
	}
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)
	if len(w) > 0 {
		h.writes = append(h.writes, h.LastTx.W)
	}
	return nil
}

// Writes returns a copy of every non-empty write seen so far.
func (h *HostI2C) Writes() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.writes))
	copy(out, h.writes)
	return out
}

// FailWith makes subsequent transactions return err (nil restores).
func (h *HostI2C) FailWith(err error) {
	h.mu.Lock()
	h.fail = err
	h.mu.Unlock()
}

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory creates recording host I²C buses "i2c0" and "i2c1".
func DefaultI2CFactory() halcore.I2CBusFactory {
	return &hostI2CFactory{
		buses: map[string]drivers.I2C{
			"i2c0": &HostI2C{},
			"i2c1": &HostI2C{},
		},
	}
}

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin and IRQPin for host-side tests.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	irqEdge halcore.Edge
	irqFunc func()
}

func NewFakePin(n int) *FakePin { return &FakePin{number: n} }

func (p *FakePin) ConfigureInput(_ halcore.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

// Set changes the level and runs the IRQ handler, outside the lock, when
// the resulting edge matches the configured one.
func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = halcore.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, seen halcore.Edge) bool {
	switch cfg {
	case halcore.EdgeNone:
		return false
	case halcore.EdgeBoth:
		return seen == halcore.EdgeRising || seen == halcore.EdgeFalling
	default:
		return cfg == seen
	}
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	return f.pin(n), true
}

// Get exposes the underlying *FakePin for tests (e.g. to drive IRQ edges).
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

func (f *HostPinFactory) pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = NewFakePin(n)
		f.pins[n] = p
	}
	return p
}

// DefaultPinFactory provides a host GPIO factory.
func DefaultPinFactory() halcore.PinFactory {
	return &HostPinFactory{pins: make(map[int]*FakePin)}
}

// ----------------------------- HC-SR04 simulation ----------------------------

// SimEcho stands in for an ultrasonic module on the host. Each falling edge
// of the trigger pin is answered by a high pulse on the echo pin whose width
// encodes the configured distance. A distance <= 0 means no obstacle: the
// trigger goes unanswered.
type SimEcho struct {
	trig, echo *FakePin
	cm         atomic.Uint64 // math.Float64bits
	delay      time.Duration
	divisor    float64
	busy       atomic.Bool
	answered   atomic.Uint32
}

// NewSimEcho arms a falling-edge IRQ on trig. delay is the gap between the
// end of the trigger and the start of the echo.
func NewSimEcho(trig, echo *FakePin, delay time.Duration, divisor float64) *SimEcho {
	s := &SimEcho{trig: trig, echo: echo, delay: delay, divisor: divisor}
	_ = trig.SetIRQ(halcore.EdgeFalling, s.onTrigger)
	return s
}

// SetDistance changes the simulated obstacle distance in centimetres.
func (s *SimEcho) SetDistance(cm float64) { s.cm.Store(math.Float64bits(cm)) }

func (s *SimEcho) Distance() float64 { return math.Float64frombits(s.cm.Load()) }

// Answered counts echoes produced.
func (s *SimEcho) Answered() uint32 { return s.answered.Load() }

// Close removes the trigger IRQ.
func (s *SimEcho) Close() error { return s.trig.ClearIRQ() }

func (s *SimEcho) onTrigger() {
	cm := s.Distance()
	if cm <= 0 {
		return
	}
	// One echo at a time, like the real module.
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	width := hcsr04.EchoFor(cm, s.divisor)
	go func() {
		defer s.busy.Store(false)
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		s.echo.Set(true)
		time.Sleep(width)
		s.echo.Set(false)
		s.answered.Add(1)
	}()
}
