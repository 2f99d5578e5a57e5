package indicator

import (
	"context"

	"alarmcode-go/bus"
	"alarmcode-go/errcode"
	"alarmcode-go/internal/util"
	"alarmcode-go/types"
	"alarmcode-go/x/timex"
)

var (
	TopicSet   = bus.T("indicator", "mode", "set")
	TopicValue = bus.T("indicator", "mode", "value")
)

// Service puts a Controller on the bus. Mode changes arrive on
// indicator/mode/set; every change of the shared mode is published retained
// on indicator/mode/value.
type Service struct {
	c *Controller
}

func NewService(c *Controller) *Service { return &Service{c: c} }

// ParsePayload accepts a types.ModeSet, a types.Mode, a mode name, or a
// decoded JSON object of the ModeSet shape.
func ParsePayload(p any) (types.Mode, error) {
	const op = "indicator.ParsePayload"
	var name string
	switch v := p.(type) {
	case types.Mode:
		if !v.Valid() {
			return types.ModeUnset, errcode.New(errcode.InvalidMode, op, v.String())
		}
		return v, nil
	case types.ModeSet:
		name = v.Mode
	case *types.ModeSet:
		if v == nil {
			return types.ModeUnset, errcode.InvalidPayload
		}
		name = v.Mode
	case string:
		name = v
	case nil:
		return types.ModeUnset, errcode.InvalidPayload
	default:
		var ms types.ModeSet
		if err := util.DecodeJSON(v, &ms); err != nil {
			return types.ModeUnset, errcode.Wrap(errcode.InvalidPayload, op, err)
		}
		name = ms.Mode
	}
	m, ok := types.ParseMode(name)
	if !ok {
		return types.ModeUnset, errcode.New(errcode.InvalidMode, op, name)
	}
	return m, nil
}

func (s *Service) publish(conn *bus.Connection, m types.Mode) {
	conn.Publish(conn.NewMessage(TopicValue, types.ModeValue{Mode: m.String(), TSms: timex.NowMs()}, true))
}

// Start publishes the current mode and serves set requests until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	s.c.OnChange(func(m types.Mode) { s.publish(conn, m) })
	s.publish(conn, s.c.Mode())

	sub := conn.Subscribe(TopicSet)
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				m, err := ParsePayload(msg.Payload)
				if err != nil {
					println("[indicator] rejected set:", err.Error())
					conn.Reply(msg, types.ErrorReply{OK: false, Error: string(errcode.Of(err))}, false)
					continue
				}
				s.c.SetMode(m)
				conn.Reply(msg, types.OKReply{OK: true}, false)
			}
		}
	}()
}
