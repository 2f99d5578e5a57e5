package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":              OK,
		"busy":            Busy,
		"unsupported":     Unsupported,
		"invalid_params":  InvalidParams,
		"invalid_payload": InvalidPayload,
		"invalid_mode":    InvalidMode,
		"unavailable":     Unavailable,
		"already_started": AlreadyStarted,
		"timeout":         Timeout,
		"unknown_pin":     UnknownPin,
		"error":           Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q, want ok", got)
	}
	if got := Of(Busy); got != Busy {
		t.Fatalf("Of(Busy) = %q", got)
	}
	cause := errors.New("no such line")
	wrapped := Wrap(Unavailable, "sensor.init", cause)
	if got := Of(wrapped); got != Unavailable {
		t.Fatalf("Of(wrapped) = %q, want unavailable", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("wrapped error does not unwrap to its cause")
	}
	outer := fmt.Errorf("boot: %w", wrapped)
	if got := Of(outer); got != Unavailable {
		t.Fatalf("Of(outer) = %q, want unavailable", got)
	}
	if got := Of(errors.New("plain")); got != Error {
		t.Fatalf("Of(plain) = %q, want error", got)
	}
}

func TestEString(t *testing.T) {
	e := &E{C: InvalidMode, Op: "indicator.set", Msg: "mode 42"}
	if got, want := e.Error(), "indicator.set: invalid_mode: mode 42"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestOfPrefersOutermostCode(t *testing.T) {
	err := Wrap(Unavailable, "sensor.init", AlreadyStarted)
	if got := Of(err); got != Unavailable {
		t.Fatalf("Of = %q, want unavailable", got)
	}
	if got := Of(New(UnknownPin, "platform", "echo pin")); got != UnknownPin {
		t.Fatalf("Of(New) = %q", got)
	}
}
