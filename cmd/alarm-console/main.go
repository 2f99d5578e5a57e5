//go:build !rp2040 && !rp2350

// Command alarm-console runs the alarm services on a host and drives them
// from stdin. Without -chip the ultrasonic module is simulated and the echo
// command moves the obstacle.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"time"

	"alarmcode-go/drivers/hcsr04"
	"alarmcode-go/internal/app"
	"alarmcode-go/internal/platform"
	"alarmcode-go/services/config"
	"alarmcode-go/services/console"
)

func main() {
	device := flag.String("device", "host", "embedded config to load")
	chip := flag.String("chip", "", "GPIO character device for real hardware (e.g. gpiochip0)")
	cm := flag.Float64("cm", 100, "initial simulated obstacle distance")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(*device)
	if err != nil {
		println("[main] config:", err.Error(), "(using defaults)")
	}

	var p app.Peripherals
	var sim *platform.SimEcho
	if *chip != "" {
		pio, err := platform.OpenChipPulseIO(*chip, cfg.Pins.Trigger, cfg.Pins.Echo)
		if err != nil {
			println("[main]", err.Error())
			os.Exit(1)
		}
		defer pio.Close()
		p.Trigger, p.Echo = pio, pio
	} else {
		pf := &platform.HostPinFactory{}
		tx, rx, err := platform.GPIOPulseIO(pf, cfg.Pins.Trigger, cfg.Pins.Echo)
		if err != nil {
			println("[main]", err.Error())
			os.Exit(1)
		}
		trig, _ := pf.Get(cfg.Pins.Trigger)
		echo, _ := pf.Get(cfg.Pins.Echo)
		sim = platform.NewSimEcho(trig, echo, 500*time.Microsecond, hcsr04.DefaultDivisor)
		defer sim.Close()
		sim.SetDistance(*cm)
		p.Trigger, p.Echo = tx, rx
	}
	if b, ok := platform.DefaultI2CFactory().ByID(cfg.Pins.I2C); ok {
		p.I2C = b
	}

	a, err := app.Start(ctx, *device, cfg, p)
	if err != nil {
		println("[main] start:", err.Error())
		os.Exit(1)
	}

	cons := console.New(platform.ConsolePort(), a.Bus.NewConnection("console"))
	if sim != nil {
		cons.Obstacle = sim.SetDistance
	}
	err = cons.Run(ctx)
	switch {
	case err == nil, errors.Is(err, console.ErrQuit), errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
	default:
		println("[main] console:", err.Error())
		os.Exit(1)
	}
}
