// Package sensor turns the echo pulses of an ultrasonic ranging module into a
// distance reading.
//
// Two goroutines run once Init succeeds. The emit loop sends one trigger
// pulse per period and waits for it to complete. The capture loop waits for
// batches of echo pulses and decodes every pulse in arrival order into the
// shared distance, so the reading is always the most recently decoded pulse.
// A missing echo leaves the previous reading in place; before the first
// echo the reading is 0.
package sensor

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"alarmcode-go/drivers/hcsr04"
	"alarmcode-go/errcode"
	"alarmcode-go/internal/halcore"
	"alarmcode-go/types"
	"alarmcode-go/x/mathx"
	"alarmcode-go/x/timex"
)

const (
	DefaultTriggerPeriod = 1 * time.Second
	DefaultTriggerLow    = hcsr04.TriggerLow
	DefaultTriggerHigh   = hcsr04.TriggerHigh
	DefaultCaptureWait   = 1 * time.Second
)

// Config holds the timing profile. Zero fields take their defaults.
type Config struct {
	TriggerPeriod time.Duration
	TriggerLow    time.Duration
	TriggerHigh   time.Duration
	CaptureWait   time.Duration
	EchoTimeout   time.Duration
	Divisor       float64 // echo µs per cm
	Debug         bool
}

// ConfigFrom maps the device configuration onto a sensor Config.
func ConfigFrom(c types.SensorConfig, debug bool) Config {
	return Config{
		TriggerPeriod: timex.Ms(c.TriggerPeriodMs),
		TriggerLow:    timex.Us(c.TriggerLowUs),
		TriggerHigh:   timex.Us(c.TriggerHighUs),
		CaptureWait:   timex.Ms(c.CaptureWaitMs),
		EchoTimeout:   timex.Ms(c.EchoTimeoutMs),
		Divisor:       c.Divisor,
		Debug:         debug,
	}
}

func (c Config) withDefaults() Config {
	c.TriggerPeriod = mathx.Or(c.TriggerPeriod, DefaultTriggerPeriod)
	c.TriggerLow = mathx.Or(c.TriggerLow, DefaultTriggerLow)
	c.TriggerHigh = mathx.Or(c.TriggerHigh, DefaultTriggerHigh)
	c.CaptureWait = mathx.Or(c.CaptureWait, DefaultCaptureWait)
	c.EchoTimeout = mathx.Clamp(mathx.Or(c.EchoTimeout, hcsr04.MaxEchoTimeout), time.Millisecond, hcsr04.MaxEchoTimeout)
	if c.Divisor <= 0 {
		c.Divisor = hcsr04.DefaultDivisor
	}
	return c
}

// Sensor owns the trigger/echo duty cycle and the latest distance.
type Sensor struct {
	cfg Config
	tx  halcore.PulseEmitter
	rx  halcore.PulseCapturer

	started atomic.Bool

	mu      sync.Mutex
	cm      float64
	updated time.Time

	hookMu sync.Mutex
	hook   func(cm float64)
}

func New(cfg Config, tx halcore.PulseEmitter, rx halcore.PulseCapturer) *Sensor {
	return &Sensor{cfg: cfg.withDefaults(), tx: tx, rx: rx}
}

// Init configures both peripherals and starts the loops. It returns once the
// loops are running; only configuration failures are reported.
func (s *Sensor) Init(ctx context.Context) error {
	const op = "sensor.Init"
	if !s.started.CompareAndSwap(false, true) {
		return errcode.AlreadyStarted
	}
	if err := s.tx.ConfigureEmitter(); err != nil {
		s.started.Store(false)
		return errcode.Wrap(errcode.Unavailable, op, err)
	}
	if err := s.rx.StartCapture(ctx, s.cfg.EchoTimeout); err != nil {
		s.started.Store(false)
		return errcode.Wrap(errcode.Unavailable, op, err)
	}
	go s.emitLoop(ctx)
	go s.captureLoop(ctx)
	println("[sensor] started, period", s.cfg.TriggerPeriod.String())
	return nil
}

// GetDistance returns the most recently decoded distance in centimetres, or
// 0 if no echo has been decoded yet.
func (s *Sensor) GetDistance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cm
}

// LastUpdate returns when the reading was last written (zero before any).
func (s *Sensor) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updated
}

// OnSample registers fn to run after each stored sample. fn runs on the
// capture goroutine and must not block.
func (s *Sensor) OnSample(fn func(cm float64)) {
	s.hookMu.Lock()
	s.hook = fn
	s.hookMu.Unlock()
}

func (s *Sensor) emitLoop(ctx context.Context) {
	trig := halcore.Pulse{Low: s.cfg.TriggerLow, High: s.cfg.TriggerHigh}
	tick := time.NewTicker(s.cfg.TriggerPeriod)
	defer tick.Stop()
	for {
		if err := s.tx.Emit(trig); err != nil {
			println("[sensor] emit failed:", err.Error())
		} else if err := s.tx.WaitDone(ctx); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

func (s *Sensor) captureLoop(ctx context.Context) {
	for {
		batch, err := s.rx.Receive(ctx, s.cfg.CaptureWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			println("[sensor] receive failed:", err.Error())
			if !timex.Sleep(ctx.Done(), s.cfg.CaptureWait) {
				return
			}
			continue
		}
		for _, p := range batch {
			s.store(hcsr04.Centimeters(p.High, s.cfg.Divisor))
		}
	}
}

func (s *Sensor) store(cm float64) {
	s.mu.Lock()
	s.cm = cm
	s.updated = time.Now()
	s.mu.Unlock()

	if s.cfg.Debug {
		println("[sensor] distance", strconv.FormatFloat(cm, 'f', 1, 64), "cm")
	}
	s.hookMu.Lock()
	fn := s.hook
	s.hookMu.Unlock()
	if fn != nil {
		fn(cm)
	}
}
