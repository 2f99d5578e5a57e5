package config

import (
	"context"
	"encoding/json"
	"errors"

	"alarmcode-go/bus"
	"alarmcode-go/drivers/hcsr04"
	"alarmcode-go/drivers/pcf8574"
	"alarmcode-go/types"
	"alarmcode-go/x/mathx"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
)

type ctxKey string

// CtxDeviceKey is the context key carrying the device ID.
const CtxDeviceKey ctxKey = "device"

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Typed configuration
// -----------------------------------------------------------------------------

// Defaults returns the configuration used for any field a device leaves out.
func Defaults() types.Config {
	return types.Config{
		Pins: types.PinsConfig{Trigger: 2, Echo: 3, I2C: "i2c0"},
		Sensor: types.SensorConfig{
			TriggerPeriodMs: 1000,
			TriggerLowUs:    int(hcsr04.TriggerLow.Microseconds()),
			TriggerHighUs:   int(hcsr04.TriggerHigh.Microseconds()),
			CaptureWaitMs:   1000,
			EchoTimeoutMs:   int(hcsr04.MaxEchoTimeout.Milliseconds()),
			Divisor:         hcsr04.DefaultDivisor,
		},
		Indicator: types.IndicatorConfig{
			Addr:           pcf8574.DefaultAddress,
			PollIntervalMs: 100,
			DwellMs:        200,
			ErrorBlinks:    2,
		},
		Heartbeat: types.HeartbeatConfig{Interval: 2},
	}
}

// Load decodes the embedded config for device over Defaults and clamps every
// timing to a range the hardware can honour.
func Load(device string) (types.Config, error) {
	cfg := Defaults()
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return cfg, errors.New("no embedded config for device: " + device)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Defaults(), err
	}
	return clamp(cfg), nil
}

func clamp(c types.Config) types.Config {
	s := &c.Sensor
	s.TriggerPeriodMs = mathx.Clamp(s.TriggerPeriodMs, 60, 60000) // module needs >= 60 ms between cycles
	s.TriggerLowUs = mathx.Clamp(s.TriggerLowUs, 2, 1000)
	s.TriggerHighUs = mathx.Clamp(s.TriggerHighUs, 10, 1000)
	s.CaptureWaitMs = mathx.Clamp(s.CaptureWaitMs, 10, 60000)
	s.EchoTimeoutMs = mathx.Clamp(s.EchoTimeoutMs, 1, int(hcsr04.MaxEchoTimeout.Milliseconds()))
	s.Divisor = mathx.Clamp(s.Divisor, 1, 1000)

	i := &c.Indicator
	if i.Addr == 0 || i.Addr > 0x7F {
		i.Addr = pcf8574.DefaultAddress
	}
	i.PollIntervalMs = mathx.Clamp(i.PollIntervalMs, 10, 1000)
	i.DwellMs = mathx.Clamp(i.DwellMs, 10, 5000)
	i.ErrorBlinks = mathx.Clamp(i.ErrorBlinks, 1, 10)

	c.Heartbeat.Interval = mathx.Clamp(c.Heartbeat.Interval, 1, 3600)
	return c
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the device config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("embedded config is not a JSON object")
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config]", err.Error())
		}
	}()
}
