// cmd/boardtest/main.go
package main

import (
	"context"
	"strconv"
	"time"

	"alarmcode-go/bus"
	"alarmcode-go/internal/app"
	"alarmcode-go/internal/platform"
	"alarmcode-go/services/config"
	"alarmcode-go/services/indicator"
	"alarmcode-go/services/sensor"
	"alarmcode-go/types"
)

// ---------- Configuration ----------

const (
	device = "pico"

	// Sequencing timing
	stepDelay = 300 * time.Millisecond
	dwell     = 2 * time.Second

	// Freshness
	freshMaxAge = 2 * time.Second

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

// Modes in the order they are shown. ERROR returns to OFF by itself.
var modeSeq = []types.Mode{
	types.ModeOn,
	types.ModeActivated,
	types.ModeInput,
	types.ModeError,
	types.ModeAlarm,
	types.ModeDemo,
	types.ModeOff,
}

// ---------- Helpers ----------

func setMode(ui *bus.Connection, m types.Mode) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := ui.RequestWait(ctx, ui.NewMessage(indicator.TopicSet, types.ModeSet{Mode: m.String()}, false))
	if err != nil {
		return false
	}
	_, ok := reply.Payload.(types.OKReply)
	return ok
}

// checkDistance reports the latest reading and whether it is fresh.
func checkDistance(sub *bus.Subscription, last *types.DistanceValue) bool {
	for {
		select {
		case m := <-sub.Channel():
			if v, ok := m.Payload.(types.DistanceValue); ok {
				*last = v
			}
		default:
			if last.TSms == 0 {
				return false
			}
			age := time.Since(time.UnixMilli(last.TSms))
			return age <= freshMaxAge
		}
	}
}

func main() {
	time.Sleep(2 * time.Second)
	println("[boardtest] boot")

	cfg, err := config.Load(device)
	if err != nil {
		println("[boardtest] config:", err.Error())
	}
	tx, rx, err := platform.GPIOPulseIO(platform.DefaultPinFactory(), cfg.Pins.Trigger, cfg.Pins.Echo)
	if err != nil {
		println("[boardtest] FAIL: pulse io:", err.Error())
		return
	}
	p := app.Peripherals{Trigger: tx, Echo: rx}
	p.I2C, _ = platform.DefaultI2CFactory().ByID(cfg.Pins.I2C)

	a, err := app.Start(context.Background(), device, cfg, p)
	if err != nil {
		println("[boardtest] FAIL: start:", err.Error())
		return
	}
	ui := a.Bus.NewConnection("boardtest")
	dist := ui.Subscribe(sensor.TopicValue)
	var last types.DistanceValue

	for cycle := 1; cyclesToRun == 0 || cycle <= cyclesToRun; cycle++ {
		println("[boardtest] cycle", cycle)
		for _, m := range modeSeq {
			if !setMode(ui, m) {
				println("[boardtest] FAIL: mode", m.String(), "not accepted")
				continue
			}
			println("[boardtest] mode", m.String())
			time.Sleep(dwell)
			if m == types.ModeError && a.Indicator.Mode() != types.ModeOff {
				println("[boardtest] FAIL: ERROR did not return to off")
			}
			time.Sleep(stepDelay)
		}
		if checkDistance(dist, &last) {
			println("[boardtest] distance", strconv.FormatFloat(last.CM, 'f', 1, 64), "cm OK")
		} else {
			println("[boardtest] FAIL: no fresh distance")
		}
		println("[boardtest] expander writes", a.Expander.Writes(), "sink errors", a.Indicator.SinkErrors())
	}
}
