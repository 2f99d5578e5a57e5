// Package indicator renders the device mode onto a bank of indicator LEDs.
//
// The Controller owns the current mode. A single driver goroutine polls it
// and, whenever it differs from the mode last rendered, plays that mode's
// output sequence on the Sink. Sequences are either a single write or a
// timed series of writes; ALARM repeats until the mode changes.
package indicator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"alarmcode-go/errcode"
	"alarmcode-go/internal/util"
	"alarmcode-go/types"
	"alarmcode-go/x/mathx"
	"alarmcode-go/x/timex"
)

// Port patterns. The bank is active-low: a 0 bit lights its LED.
const (
	PatternOff           byte = 0xFF
	PatternOn            byte = 0x00
	PatternTopGreen      byte = 0xF9
	PatternTopRed        byte = 0xF6
	PatternTopLeftRed    byte = 0xFE
	PatternTopLeftGreen  byte = 0xFD
	PatternTopRightGreen byte = 0xFB
	PatternTopRightRed   byte = 0xF7
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultDwell        = 200 * time.Millisecond
	DefaultErrorBlinks  = 2
)

// demoSequence is played once per DEMO, each pattern held for one dwell.
var demoSequence = [...]byte{
	PatternTopLeftRed,
	PatternTopLeftGreen,
	PatternTopRightGreen,
	PatternTopRightRed,
}

// Sink receives port patterns. Write failures are counted and ignored.
type Sink interface {
	Write(pattern byte) error
}

type Config struct {
	PollInterval time.Duration
	Dwell        time.Duration
	ErrorBlinks  int
}

// ConfigFrom maps the device configuration onto an indicator Config.
func ConfigFrom(c types.IndicatorConfig) Config {
	return Config{
		PollInterval: timex.Ms(c.PollIntervalMs),
		Dwell:        timex.Ms(c.DwellMs),
		ErrorBlinks:  c.ErrorBlinks,
	}
}

func (c Config) withDefaults() Config {
	c.PollInterval = mathx.Or(c.PollInterval, DefaultPollInterval)
	c.Dwell = mathx.Or(c.Dwell, DefaultDwell)
	c.ErrorBlinks = mathx.Clamp(mathx.Or(c.ErrorBlinks, DefaultErrorBlinks), 1, 10)
	return c
}

// Controller holds the shared mode and drives the sink from it.
type Controller struct {
	cfg  Config
	sink Sink

	started atomic.Bool

	mu   sync.Mutex
	mode types.Mode

	wake     chan struct{}
	timer    *time.Timer // driver goroutine only
	sinkErrs atomic.Uint32

	hookMu   sync.Mutex
	onChange func(types.Mode)
}

// New returns a Controller in mode OFF. Nothing is written before Init.
func New(cfg Config, sink Sink) *Controller {
	return &Controller{
		cfg:  cfg.withDefaults(),
		sink: sink,
		mode: types.ModeOff,
		wake: make(chan struct{}, 1),
	}
}

// Init starts the driver goroutine.
func (c *Controller) Init(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errcode.AlreadyStarted
	}
	go c.run(ctx)
	return nil
}

// SetMode replaces the shared mode. The driver picks it up on its next poll;
// an idle driver is woken at once. Setting the current mode again is a no-op.
func (c *Controller) SetMode(m types.Mode) {
	c.mu.Lock()
	old := c.mode
	c.mode = m
	c.mu.Unlock()
	if old == m {
		return
	}
	c.nudge()
	c.changed()
}

// Mode returns the shared mode.
func (c *Controller) Mode() types.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SinkErrors counts failed sink writes.
func (c *Controller) SinkErrors() uint32 { return c.sinkErrs.Load() }

// OnChange registers fn to run after every change of the shared mode,
// including the driver's own ERROR to OFF transition. fn receives the mode
// current at the time of the call. Calls are serialised, so the last call
// always carries the final mode. fn must not call OnChange.
func (c *Controller) OnChange(fn func(types.Mode)) {
	c.hookMu.Lock()
	c.onChange = fn
	c.hookMu.Unlock()
}

func (c *Controller) changed() {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	if c.onChange != nil {
		c.onChange(c.Mode())
	}
}

func (c *Controller) nudge() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// swapIf sets the mode to next only while it still equals cur.
func (c *Controller) swapIf(cur, next types.Mode) bool {
	c.mu.Lock()
	ok := c.mode == cur
	if ok {
		c.mode = next
	}
	c.mu.Unlock()
	if ok {
		c.changed()
	}
	return ok
}

// ---- driver ----

func (c *Controller) run(ctx context.Context) {
	last := types.ModeUnset
	for ctx.Err() == nil {
		m := c.Mode()
		if m == last {
			if !c.sleep(ctx, c.cfg.PollInterval, true) {
				return
			}
			continue
		}
		c.render(ctx, m)
		last = m
	}
}

// sleep waits for d. A wakeable sleep also ends on SetMode. It reports false
// once ctx is done.
func (c *Controller) sleep(ctx context.Context, d time.Duration, wakeable bool) bool {
	if c.timer == nil {
		c.timer = time.NewTimer(d)
	} else {
		util.ResetTimer(c.timer, d)
	}
	var wake <-chan struct{}
	if wakeable {
		wake = c.wake
	}
	select {
	case <-ctx.Done():
		return false
	case <-c.timer.C:
	case <-wake:
	}
	return true
}

func (c *Controller) write(p byte) {
	if err := c.sink.Write(p); err != nil {
		c.sinkErrs.Add(1)
	}
}

func (c *Controller) render(ctx context.Context, m types.Mode) {
	switch m {
	case types.ModeOff:
		c.write(PatternOff)
	case types.ModeOn:
		c.write(PatternOn)
	case types.ModeActivated:
		c.write(PatternTopGreen)
	case types.ModeInput:
		c.write(PatternTopRed)
	case types.ModeError:
		c.renderError(ctx)
	case types.ModeAlarm:
		c.renderAlarm(ctx)
	case types.ModeDemo:
		c.renderDemo(ctx)
	default:
		println("[indicator] unknown mode", uint8(m))
	}
}

// renderError blinks the bank and then hands the mode back to OFF. A mode
// set while blinking is kept; the board firmware forced OFF unconditionally.
func (c *Controller) renderError(ctx context.Context) {
	for i := 0; i < c.cfg.ErrorBlinks; i++ {
		c.write(PatternOff)
		if !c.sleep(ctx, c.cfg.Dwell, false) {
			return
		}
		c.write(PatternOn)
		if !c.sleep(ctx, c.cfg.Dwell, false) {
			return
		}
	}
	c.swapIf(types.ModeError, types.ModeOff)
}

// renderAlarm flashes until the mode is no longer ALARM, checking after each
// half period.
func (c *Controller) renderAlarm(ctx context.Context) {
	for {
		for _, p := range [...]byte{PatternOff, PatternOn} {
			c.write(p)
			if !c.hold(ctx, types.ModeAlarm, c.cfg.Dwell) {
				return
			}
		}
	}
}

// hold keeps the current pattern for d while the mode stays m. A wake that
// leaves the mode at m does not shorten the hold. It reports false once ctx
// is done or the mode has moved on.
func (c *Controller) hold(ctx context.Context, m types.Mode, d time.Duration) bool {
	end := time.Now().Add(d)
	for {
		if !c.sleep(ctx, time.Until(end), true) {
			return false
		}
		if c.Mode() != m {
			return false
		}
		if !time.Now().Before(end) {
			return true
		}
	}
}

// renderDemo runs the whole sequence regardless of mode changes.
func (c *Controller) renderDemo(ctx context.Context) {
	for _, p := range demoSequence {
		c.write(p)
		if !c.sleep(ctx, c.cfg.Dwell, false) {
			return
		}
	}
	c.write(PatternOff)
}
