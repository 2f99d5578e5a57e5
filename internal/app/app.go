// Package app wires the alarm services onto a bus. Firmware and the host
// console share it; they differ only in the peripherals they pass in.
package app

import (
	"context"

	"tinygo.org/x/drivers"

	"alarmcode-go/bus"
	"alarmcode-go/drivers/pcf8574"
	"alarmcode-go/internal/halcore"
	"alarmcode-go/services/config"
	"alarmcode-go/services/heartbeat"
	"alarmcode-go/services/indicator"
	"alarmcode-go/services/sensor"
	"alarmcode-go/types"
)

// Peripherals are the hardware handles the services run on. A nil I2C bus
// leaves the indicator writing to nowhere; its failures are only counted.
type Peripherals struct {
	Trigger halcore.PulseEmitter
	Echo    halcore.PulseCapturer
	I2C     drivers.I2C
}

type App struct {
	Bus       *bus.Bus
	Sensor    *sensor.Sensor
	Indicator *indicator.Controller
	Expander  *pcf8574.Device
}

// Start brings up config, sensor, indicator and heartbeat services. Only a
// sensor that cannot be configured is fatal.
func Start(ctx context.Context, device string, cfg types.Config, p Peripherals) (*App, error) {
	ctx = context.WithValue(ctx, config.CtxDeviceKey, device)
	a := &App{Bus: bus.NewBus(8)}

	config.NewConfigService().Start(ctx, a.Bus.NewConnection("config"))

	a.Sensor = sensor.New(sensor.ConfigFrom(cfg.Sensor, cfg.Debug), p.Trigger, p.Echo)
	sensor.NewService(a.Sensor).Start(ctx, a.Bus.NewConnection("sensor"))
	if err := a.Sensor.Init(ctx); err != nil {
		return nil, err
	}

	a.Expander = pcf8574.New(p.I2C)
	a.Expander.Configure(pcf8574.Config{Address: cfg.Indicator.Addr})
	a.Indicator = indicator.New(indicator.ConfigFrom(cfg.Indicator), a.Expander)
	indicator.NewService(a.Indicator).Start(ctx, a.Bus.NewConnection("indicator"))
	if err := a.Indicator.Init(ctx); err != nil {
		return nil, err
	}

	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, a.Bus.NewConnection("heartbeat"))

	println("[main] services up for device", device)
	return a, nil
}
