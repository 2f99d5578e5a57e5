// internal/util/util.go
package util

import (
	"encoding/json"
	"time"
)

// ResetTimer rearms t for d, discarding any expiry not yet received.
// Negative durations fire at once.
func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

// DrainTimer empties t.C without blocking.
func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

// DecodeJSON decodes raw JSON bytes, a JSON string, or an already
// unmarshalled value (e.g. map[string]any from a bus payload) into dst.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// BoolToInt maps a pin level onto the 0/1 line value gpiocdev expects.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
