// Package hcsr04 holds the timing profile and echo conversion for the
// HC-SR04 ultrasonic ranging module.
//
// The module is triggered by a short high pulse and answers with an echo
// pulse whose high time is the round-trip time of flight. At sea level
// and ~20 °C sound needs ~58 µs per centimetre of range (there and back).
//
// Capture and emission are handled elsewhere; this package is pure maths.
package hcsr04

import (
	"time"

	"alarmcode-go/x/mathx"
	"alarmcode-go/x/timex"
)

// Calibration and timing defaults.
const (
	// DefaultDivisor converts echo microseconds to centimetres.
	DefaultDivisor = 58.2

	// TriggerLow and TriggerHigh are the emitted trigger profile.
	TriggerLow  = 20 * time.Microsecond
	TriggerHigh = 180 * time.Microsecond

	// MaxEchoTimeout bounds how long an echo may stay high before the
	// capture side reports idle and drops it (~4 m of range).
	MaxEchoTimeout = 25 * time.Millisecond
)

// Centimeters converts an echo high time to centimetres. A non-positive
// divisor selects DefaultDivisor. Negative inputs yield 0.
func Centimeters(high time.Duration, divisor float64) float64 {
	if divisor <= 0 {
		divisor = DefaultDivisor
	}
	return mathx.Max(timex.Micros(high)/divisor, 0)
}

// EchoFor is the inverse of Centimeters: the echo high time that encodes cm.
// Used by simulators.
func EchoFor(cm, divisor float64) time.Duration {
	if divisor <= 0 {
		divisor = DefaultDivisor
	}
	return time.Duration(mathx.Max(cm, 0) * divisor * float64(time.Microsecond))
}
