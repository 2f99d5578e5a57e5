package heartbeat

import (
	"context"
	"strings"
	"testing"
	"time"

	"alarmcode-go/bus"
	"alarmcode-go/types"
)

func TestHeartbeatReportsBusState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)
	pub := b.NewConnection("pub")
	pub.Publish(pub.NewMessage(topicConfigHeartbeat, map[string]any{"interval": float64(1)}, true))
	pub.Publish(pub.NewMessage(topicDistance, types.DistanceValue{CM: 42.5}, true))
	pub.Publish(pub.NewMessage(topicMode, types.ModeValue{Mode: "alarm"}, true))

	lines := make(chan string, 4)
	svc := &Service{Out: func(l string) { lines <- l }}
	if err := svc.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		t.Fatal(err)
	}

	select {
	case l := <-lines:
		if !strings.Contains(l, "distance=42.5cm") || !strings.Contains(l, "mode=alarm") {
			t.Fatalf("status line %q", l)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat")
	}
}

func TestStatusLine(t *testing.T) {
	if got := (Status{CM: 0, Mode: "unset"}).Line(); got != "distance=0.0cm mode=unset" {
		t.Fatalf("Line() = %q", got)
	}
}
