package types

// Config is the per-device configuration. Durations are integer
// milliseconds or microseconds as named; zero selects the default.
type Config struct {
	Debug     bool            `json:"debug,omitempty"`
	Pins      PinsConfig      `json:"pins"`
	Sensor    SensorConfig    `json:"sensor"`
	Indicator IndicatorConfig `json:"indicator"`
	Heartbeat HeartbeatConfig `json:"heartbeat"`
}

type PinsConfig struct {
	Trigger int    `json:"trigger"`
	Echo    int    `json:"echo"`
	Chip    string `json:"chip,omitempty"` // Linux gpiochip name, host only
	I2C     string `json:"i2c,omitempty"`  // e.g. "i2c0"
}

type SensorConfig struct {
	TriggerPeriodMs int     `json:"trigger_period_ms,omitempty"`
	TriggerLowUs    int     `json:"trigger_low_us,omitempty"`
	TriggerHighUs   int     `json:"trigger_high_us,omitempty"`
	CaptureWaitMs   int     `json:"capture_wait_ms,omitempty"`
	EchoTimeoutMs   int     `json:"echo_timeout_ms,omitempty"`
	Divisor         float64 `json:"divisor,omitempty"` // µs per cm
}

type IndicatorConfig struct {
	Addr           uint16 `json:"addr,omitempty"` // I²C expander address
	PollIntervalMs int    `json:"poll_interval_ms,omitempty"`
	DwellMs        int    `json:"dwell_ms,omitempty"`
	ErrorBlinks    int    `json:"error_blinks,omitempty"`
}

type HeartbeatConfig struct {
	Interval int `json:"interval,omitempty"` // seconds
}
