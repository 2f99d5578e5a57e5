package main

import (
	"context"
	"time"

	"alarmcode-go/internal/app"
	"alarmcode-go/internal/platform"
	"alarmcode-go/services/config"
	"alarmcode-go/services/console"
)

// deviceID selects the embedded config; override with -ldflags "-X main.deviceID=...".
var deviceID = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	ctx := context.Background()

	cfg, err := config.Load(deviceID)
	if err != nil {
		println("[main] config:", err.Error(), "(using defaults)")
	}

	tx, rx, err := platform.GPIOPulseIO(platform.DefaultPinFactory(), cfg.Pins.Trigger, cfg.Pins.Echo)
	if err != nil {
		halt("pulse io: " + err.Error())
	}
	p := app.Peripherals{Trigger: tx, Echo: rx}
	if b, ok := platform.DefaultI2CFactory().ByID(cfg.Pins.I2C); ok {
		p.I2C = b
	} else {
		println("[main] no i2c bus", cfg.Pins.I2C, "- indicator disabled")
	}

	a, err := app.Start(ctx, deviceID, cfg, p)
	if err != nil {
		halt("start: " + err.Error())
	}

	// The console never ends on firmware; restart it after port errors.
	cons := console.New(platform.ConsolePort(), a.Bus.NewConnection("console"))
	for {
		if err := cons.Run(ctx); err != nil && err != console.ErrQuit {
			println("[main] console:", err.Error())
		}
		time.Sleep(time.Second)
	}
}

func halt(msg string) {
	for {
		println("[main] FATAL:", msg)
		time.Sleep(5 * time.Second)
	}
}
