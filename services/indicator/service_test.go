package indicator

import (
	"context"
	"testing"
	"time"

	"alarmcode-go/bus"
	"alarmcode-go/errcode"
	"alarmcode-go/types"
)

func TestParsePayload(t *testing.T) {
	cases := []struct {
		in   any
		want types.Mode
		code errcode.Code
	}{
		{types.ModeAlarm, types.ModeAlarm, errcode.OK},
		{types.ModeSet{Mode: "demo"}, types.ModeDemo, errcode.OK},
		{&types.ModeSet{Mode: "input"}, types.ModeInput, errcode.OK},
		{"activated", types.ModeActivated, errcode.OK},
		{map[string]any{"mode": "on"}, types.ModeOn, errcode.OK},
		{`{"mode":"error"}`, types.ModeError, errcode.InvalidMode}, // strings are names, not JSON
		{"siren", types.ModeUnset, errcode.InvalidMode},
		{types.Mode(9), types.ModeUnset, errcode.InvalidMode},
		{nil, types.ModeUnset, errcode.InvalidPayload},
		{42, types.ModeUnset, errcode.InvalidPayload},
	}
	for _, tc := range cases {
		got, err := ParsePayload(tc.in)
		if errcode.Of(err) != tc.code {
			t.Fatalf("ParsePayload(%#v) err=%v, want %s", tc.in, err, tc.code)
		}
		if err == nil && got != tc.want {
			t.Fatalf("ParsePayload(%#v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestServiceSetAndPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recSink{}
	c := New(fastConfig(), sink)
	b := bus.NewBus(8)
	NewService(c).Start(ctx, b.NewConnection("indicator"))
	if err := c.Init(ctx); err != nil {
		t.Fatal(err)
	}

	ui := b.NewConnection("ui")
	values := ui.Subscribe(TopicValue)
	expectMode(t, values, "off") // retained initial value

	rctx, rcancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer rcancel()
	reply, err := ui.RequestWait(rctx, ui.NewMessage(TopicSet, types.ModeSet{Mode: "activated"}, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if r, ok := reply.Payload.(types.OKReply); !ok || !r.OK {
		t.Fatalf("reply %#v", reply.Payload)
	}
	expectMode(t, values, "activated")
	waitFor(t, "render", func() bool { p, _, _ := sink.last(); return p == PatternTopGreen })

	reply, err = ui.RequestWait(rctx, ui.NewMessage(TopicSet, "siren", false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if r, ok := reply.Payload.(types.ErrorReply); !ok || r.Error != string(errcode.InvalidMode) {
		t.Fatalf("reply %#v", reply.Payload)
	}
	if c.Mode() != types.ModeActivated {
		t.Fatalf("invalid set changed mode to %v", c.Mode())
	}
}

func expectMode(t *testing.T, sub *bus.Subscription, want string) {
	t.Helper()
	select {
	case m := <-sub.Channel():
		v, ok := m.Payload.(types.ModeValue)
		if !ok || v.Mode != want {
			t.Fatalf("mode value %#v, want %q", m.Payload, want)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("no mode value %q", want)
	}
}
