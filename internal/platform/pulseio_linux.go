// internal/platform/pulseio_linux.go
//go:build linux && !baremetal

package platform

import (
	"github.com/warthog618/go-gpiocdev"

	"alarmcode-go/errcode"
	"alarmcode-go/internal/halcore"
	"alarmcode-go/internal/pulsecap"
	"alarmcode-go/internal/util"
)

// CdevPulseIO drives an HC-SR04 from a Linux GPIO character device. The
// trigger is bit-banged on an output line; echo edges arrive as kernel line
// events and carry kernel timestamps, so no interrupt handler runs in Go.
//
// It implements both halcore.PulseEmitter and halcore.PulseCapturer.
type CdevPulseIO struct {
	*pulsecap.Emitter
	*pulsecap.Capturer

	trig *gpiocdev.Line
	echo *gpiocdev.Line
}

// OpenCdevPulseIO requests the trigger and echo offsets on chip
// (e.g. "gpiochip0").
func OpenCdevPulseIO(chip string, trig, echo int) (*CdevPulseIO, error) {
	const op = "platform.OpenCdevPulseIO"
	c := &CdevPulseIO{Capturer: pulsecap.New(64, 16)}

	tl, err := gpiocdev.RequestLine(chip, trig,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("alarm-trigger"))
	if err != nil {
		return nil, errcode.Wrap(errcode.Unavailable, op, err)
	}
	el, err := gpiocdev.RequestLine(chip, echo,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(c.onEvent),
		gpiocdev.WithConsumer("alarm-echo"))
	if err != nil {
		_ = tl.Close()
		return nil, errcode.Wrap(errcode.Unavailable, op, err)
	}
	c.trig, c.echo = tl, el
	c.Emitter = pulsecap.NewEmitter(&cdevPin{l: tl, n: trig})
	return c, nil
}

func (c *CdevPulseIO) onEvent(evt gpiocdev.LineEvent) {
	c.Push(evt.Type == gpiocdev.LineEventRisingEdge, evt.Timestamp)
}

// Close releases both lines.
func (c *CdevPulseIO) Close() error {
	err := c.echo.Close()
	if e := c.trig.Close(); err == nil {
		err = e
	}
	return err
}

// cdevPin adapts a requested output line to halcore.GPIOPin.
type cdevPin struct {
	l *gpiocdev.Line
	n int
}

func (p *cdevPin) ConfigureInput(halcore.Pull) error {
	return errcode.New(errcode.Unsupported, "cdevPin", "line requested as output")
}

func (p *cdevPin) ConfigureOutput(initial bool) error {
	return p.l.SetValue(util.BoolToInt(initial))
}

func (p *cdevPin) Set(level bool) { _ = p.l.SetValue(util.BoolToInt(level)) }

func (p *cdevPin) Get() bool {
	v, err := p.l.Value()
	return err == nil && v == 1
}

func (p *cdevPin) Number() int { return p.n }

// OpenChipPulseIO opens trigger and echo lines on a GPIO character device.
func OpenChipPulseIO(chip string, trig, echo int) (PulseIO, error) {
	c, err := OpenCdevPulseIO(chip, trig, echo)
	if err != nil {
		return nil, err
	}
	return c, nil
}
