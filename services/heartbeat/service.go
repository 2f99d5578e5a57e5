package heartbeat

import (
	"context"
	"strconv"
	"time"

	"alarmcode-go/bus"
	"alarmcode-go/internal/util"
	"alarmcode-go/types"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicDistance        = bus.T("sensor", "distance", "value")
	topicMode            = bus.T("indicator", "mode", "value")
)

// Status is the last state seen on the bus.
type Status struct {
	CM   float64
	Mode string
}

// Line renders s as one status line.
func (s Status) Line() string {
	return "distance=" + strconv.FormatFloat(s.CM, 'f', 1, 64) + "cm mode=" + s.Mode
}

type Service struct {
	// Out receives each status line; println when nil.
	Out func(line string)
}

func (s *Service) emit(line string) {
	if s.Out != nil {
		s.Out(line)
		return
	}
	println("[heartbeat]", line)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	distSub := conn.Subscribe(topicDistance)
	defer conn.Unsubscribe(distSub)
	modeSub := conn.Subscribe(topicMode)
	defer conn.Unsubscribe(modeSub)

	st := Status{Mode: types.ModeUnset.String()}
	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick, config and state changes
	for {
		select {
		case <-ctx.Done():
			println("[heartbeat] stopping")
			return
		case <-tick.C:
			s.emit(st.Line())
		case msg := <-cfgSub.Channel():
			var hc types.HeartbeatConfig
			if err := util.DecodeJSON(msg.Payload, &hc); err != nil || hc.Interval <= 0 {
				println("[heartbeat] ignoring config")
				continue
			}
			tick.Reset(time.Duration(hc.Interval) * time.Second)
			println("[heartbeat] interval set to", hc.Interval, "seconds")
		case msg := <-distSub.Channel():
			if v, ok := msg.Payload.(types.DistanceValue); ok {
				st.CM = v.CM
			}
		case msg := <-modeSub.Channel():
			if v, ok := msg.Payload.(types.ModeValue); ok {
				st.Mode = v.Mode
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
