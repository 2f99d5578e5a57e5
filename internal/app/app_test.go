package app

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"alarmcode-go/errcode"
	"alarmcode-go/internal/platform"
	"alarmcode-go/services/config"
	"alarmcode-go/services/indicator"
	"alarmcode-go/types"
)

// The whole stack on simulated hardware: trigger pin, simulated module,
// echo IRQ, capture, decode, and the indicator expander on a host bus.
func TestSimulatedDevice(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Defaults()
	cfg.Sensor.TriggerPeriodMs = 60
	cfg.Sensor.CaptureWaitMs = 50
	cfg.Indicator.PollIntervalMs = 10

	pf := &platform.HostPinFactory{}
	tx, rx, err := platform.GPIOPulseIO(pf, cfg.Pins.Trigger, cfg.Pins.Echo)
	c.Assert(err, qt.IsNil)
	trig, _ := pf.Get(cfg.Pins.Trigger)
	echo, _ := pf.Get(cfg.Pins.Echo)
	sim := platform.NewSimEcho(trig, echo, 100*time.Microsecond, cfg.Sensor.Divisor)
	defer sim.Close()
	sim.SetDistance(50)

	i2c := &platform.HostI2C{}
	a, err := Start(ctx, "host", cfg, Peripherals{Trigger: tx, Echo: rx, I2C: i2c})
	c.Assert(err, qt.IsNil)

	deadline := time.Now().Add(3 * time.Second)
	for a.Sensor.GetDistance() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cm := a.Sensor.GetDistance()
	// Host sleeps only ever stretch the echo, never shorten it.
	c.Assert(cm >= 49 && cm < 200, qt.IsTrue, qt.Commentf("distance %v", cm))
	c.Assert(sim.Answered() > 0, qt.IsTrue)

	ui := a.Bus.NewConnection("ui")
	rctx, rcancel := context.WithTimeout(ctx, time.Second)
	defer rcancel()
	reply, err := ui.RequestWait(rctx, ui.NewMessage(indicator.TopicSet, types.ModeSet{Mode: "activated"}, false))
	c.Assert(err, qt.IsNil)
	c.Assert(reply.Payload, qt.Equals, any(types.OKReply{OK: true}))

	for time.Now().Before(deadline) && a.Expander.Last() != indicator.PatternTopGreen {
		time.Sleep(5 * time.Millisecond)
	}
	c.Assert(a.Expander.Last(), qt.Equals, indicator.PatternTopGreen)
	c.Assert(i2c.LastTx.Addr, qt.Equals, uint16(0x3F))
}

func TestStartFailsWhenSensorCannotStart(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pf := &platform.HostPinFactory{}
	tx, rx, err := platform.GPIOPulseIO(pf, 2, 3)
	c.Assert(err, qt.IsNil)
	c.Assert(rx.StartCapture(ctx, 0), qt.IsNil) // already armed elsewhere

	_, err = Start(ctx, "host", config.Defaults(), Peripherals{Trigger: tx, Echo: rx})
	c.Assert(errcode.Of(err), qt.Equals, errcode.Unavailable)
}
