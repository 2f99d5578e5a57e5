// bus/bus_test.go
package bus

import (
	"context"
	"sort"
	"testing"
	"time"

	"alarmcode-go/errcode"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("indicator", "mode", "set"))
	conn.Publish(conn.NewMessage(T("indicator", "mode", "set"), "alarm", false))

	expectOneOf(t, sub, "alarm")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("sensor", "distance", "value"), "12.5", true))

	sub := conn.Subscribe(T("sensor", "distance", "value"))
	expectOneOf(t, sub, "12.5")
}

func TestRetainedOverwrite(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	conn.Publish(b.NewMessage(T("indicator", "mode", "value"), "off", true))
	conn.Publish(b.NewMessage(T("indicator", "mode", "value"), "alarm", true))

	sub := conn.Subscribe(T("indicator", "mode", "value"))
	expectOneOf(t, sub, "alarm")
	expectNoMessage(t, sub)
}

// -----------------------------------------------------------------------------
// Wildcards
// -----------------------------------------------------------------------------

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sValue := c.Subscribe(T("+", "distance", "value"))
	sAny := c.Subscribe(T("sensor", "+", "+"))
	sNo := c.Subscribe(T("sensor", "+", "get"))

	c.Publish(b.NewMessage(T("sensor", "distance", "value"), "m1", false))

	expectOneOf(t, sValue, "m1")
	expectOneOf(t, sAny, "m1")
	expectNoMessage(t, sNo)

	c.Publish(b.NewMessage(T("sensor", "distance"), "m2", false))
	expectNoMessage(t, sValue)
	expectNoMessage(t, sAny)
	expectNoMessage(t, sNo)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sSensor := c.Subscribe(T("sensor", "#"))
	sAll := c.Subscribe(T("#"))
	sExact := c.Subscribe(T("sensor"))

	c.Publish(b.NewMessage(T("sensor"), "p1", false))
	expectOneOf(t, sSensor, "p1")
	expectOneOf(t, sAll, "p1")
	expectOneOf(t, sExact, "p1")

	c.Publish(b.NewMessage(T("sensor", "distance", "value"), "p2", false))
	expectOneOf(t, sSensor, "p2")
	expectOneOf(t, sAll, "p2")
	expectNoMessage(t, sExact)

	c.Publish(b.NewMessage(T("indicator", "mode"), "p3", false))
	expectOneOf(t, sAll, "p3")
	expectNoMessage(t, sSensor)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("config", "sensor"), "r0", true))
	c.Publish(b.NewMessage(T("config", "indicator"), "r1", true))
	c.Publish(b.NewMessage(T("config", "heartbeat", "extra"), "r2", true))

	got := drainPayloads(t, c.Subscribe(T("config", "#")), 3)
	assertUnorderedEqual(t, got, []string{"r0", "r1", "r2"})

	got = drainPayloads(t, c.Subscribe(T("config", "+")), 2)
	assertUnorderedEqual(t, got, []string{"r0", "r1"})
}

func TestWildcard_RetainedClear(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("config", "sensor"), "keep", true))
	c.Publish(b.NewMessage(T("config", "indicator"), "other", true))
	c.Publish(b.NewMessage(T("config", "sensor"), nil, true))

	got := drainPayloads(t, c.Subscribe(T("config", "#")), 1)
	if got[0] != "other" {
		t.Fatalf("expected only 'other' after clear, got %v", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	sub := c.Subscribe(T("sensor", "distance", "value"))
	sub.Unsubscribe()

	if _, ok := <-sub.Channel(); ok {
		t.Fatal("channel still open after Unsubscribe")
	}
	// Publishing after unsubscribe must not panic on the closed channel.
	c.Publish(b.NewMessage(T("sensor", "distance", "value"), "late", false))
	// Second unsubscribe is a no-op.
	sub.Unsubscribe()
}

// -----------------------------------------------------------------------------
// Request–Reply
// -----------------------------------------------------------------------------

func TestRequestReply_RequestWait(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")
	respConn := b.NewConnection("responder")

	respSub := respConn.Subscribe(T("sensor", "distance", "get"))
	defer respConn.Unsubscribe(respSub)

	go func() {
		if msg, ok := <-respSub.Channel(); ok {
			respConn.Reply(msg, "42.0", false)
		}
	}()

	req := b.NewMessage(T("sensor", "distance", "get"), nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := reqConn.RequestWait(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error waiting for reply: %v", err)
	}
	if got, ok := reply.Payload.(string); !ok || got != "42.0" {
		t.Fatalf("unexpected reply payload: %#v", reply.Payload)
	}
	if !topicsEqual(reply.Topic, req.ReplyTo) {
		t.Fatalf("reply topic %v != request ReplyTo %v", reply.Topic, req.ReplyTo)
	}
}

func TestRequestReply_Timeout(t *testing.T) {
	b := NewBus(8)
	reqConn := b.NewConnection("requester")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := reqConn.RequestWait(ctx, b.NewMessage(T("service", "noop"), nil, false))
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestTopic_InvalidTokenPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-comparable token, got none")
		}
	}()
	_ = T([]byte{1, 2, 3})
}

func TestTopic_String(t *testing.T) {
	if got := T("a", 1, "b").String(); got != "a/1/b" {
		t.Fatalf("String() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func topicsEqual(a, b Topic) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				t.Fatalf("non-string payload in drain: %#v", m.Payload)
			}
			out = append(out, s)
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("drainPayloads: expected %d messages, got %d (%v)", n, len(out), out)
	}
	return out
}

func assertUnorderedEqual(t *testing.T, got, want []string) {
	t.Helper()
	sort.Strings(got)
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}
