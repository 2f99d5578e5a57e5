package sensor

import (
	"context"

	"alarmcode-go/bus"
	"alarmcode-go/types"
	"alarmcode-go/x/timex"
)

var (
	TopicValue = bus.T("sensor", "distance", "value")
	TopicGet   = bus.T("sensor", "distance", "get")
)

// Service exposes a Sensor on the bus: every stored sample is published
// retained on sensor/distance/value, and requests on sensor/distance/get
// are answered with the current reading.
type Service struct {
	s *Sensor
}

func NewService(s *Sensor) *Service { return &Service{s: s} }

func (svc *Service) value() types.DistanceValue {
	v := types.DistanceValue{CM: svc.s.GetDistance()}
	if t := svc.s.LastUpdate(); !t.IsZero() {
		v.TSms = t.UnixMilli()
	}
	return v
}

// Start registers the sample hook and serves requests until ctx ends.
func (svc *Service) Start(ctx context.Context, conn *bus.Connection) {
	svc.s.OnSample(func(cm float64) {
		conn.Publish(conn.NewMessage(TopicValue, types.DistanceValue{CM: cm, TSms: timex.NowMs()}, true))
	})
	sub := conn.Subscribe(TopicGet)
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-sub.Channel():
				if !ok {
					return
				}
				conn.Reply(m, svc.value(), false)
			}
		}
	}()
}
