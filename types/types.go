package types

// ---- Distance (sensor/distance/...) ----

// DistanceValue is the retained payload on sensor/distance/value.
type DistanceValue struct {
	CM   float64 `json:"cm"`    // 0 means no echo decoded yet
	TSms int64   `json:"ts_ms"` // 0 before the first sample
}

// ---- Indicator (indicator/mode/...) ----

// ModeSet is the control payload on indicator/mode/set.
type ModeSet struct {
	Mode string `json:"mode"`
}

// ModeValue is the retained payload on indicator/mode/value.
type ModeValue struct {
	Mode string `json:"mode"`
	TSms int64  `json:"ts_ms"`
}

// ---- Replies ----

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
