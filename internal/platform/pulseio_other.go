// internal/platform/pulseio_other.go
//go:build !linux || baremetal

package platform

import "alarmcode-go/errcode"

// OpenChipPulseIO needs the Linux GPIO character device.
func OpenChipPulseIO(chip string, trig, echo int) (PulseIO, error) {
	return nil, errcode.New(errcode.Unsupported, "platform.OpenChipPulseIO", "no gpio character device on this target")
}
