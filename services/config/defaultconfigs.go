package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "pins": {
      "trigger": 2,
      "echo": 3,
      "i2c": "i2c0"
  },
  "sensor": {
      "trigger_period_ms": 1000,
      "capture_wait_ms": 1000
  },
  "indicator": {
      "addr": 63
  },
  "heartbeat": {
      "interval": 2
  }
}`

// cfgHost drives the simulated sensor; debug prints every sample.
const cfgHost = `{
  "debug": true,
  "pins": {
      "trigger": 17,
      "echo": 27,
      "chip": "gpiochip0",
      "i2c": "i2c1"
  },
  "sensor": {
      "trigger_period_ms": 500
  },
  "heartbeat": {
      "interval": 5
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"host": []byte(cfgHost),
}
