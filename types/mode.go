package types

// Mode is the operating mode rendered by the indicator bank.
type Mode uint8

const (
	ModeOff Mode = iota
	ModeOn
	ModeError
	ModeActivated
	ModeInput
	ModeAlarm
	ModeDemo

	// ModeUnset is never a real mode; the indicator driver starts from it
	// so its first iteration always renders.
	ModeUnset Mode = 0xFF
)

var modeNames = [...]string{
	ModeOff:       "off",
	ModeOn:        "on",
	ModeError:     "error",
	ModeActivated: "activated",
	ModeInput:     "input",
	ModeAlarm:     "alarm",
	ModeDemo:      "demo",
}

// Valid reports whether m is one of the real modes.
func (m Mode) Valid() bool { return int(m) < len(modeNames) }

func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	if m == ModeUnset {
		return "unset"
	}
	return "unknown"
}

// ParseMode maps a mode name to its Mode.
func ParseMode(s string) (Mode, bool) {
	for i, n := range modeNames {
		if n == s {
			return Mode(i), true
		}
	}
	return ModeUnset, false
}

// Modes lists the real modes in declaration order.
func Modes() []Mode {
	out := make([]Mode, len(modeNames))
	for i := range modeNames {
		out[i] = Mode(i)
	}
	return out
}
