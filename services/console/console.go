// Package console is a line-oriented operator console. Commands are split
// shell-style and turned into bus requests against the sensor and indicator
// services.
//
//	mode <name>   set the indicator mode
//	distance      print the last distance reading
//	echo <cm>     move the simulated obstacle (host only)
//	help
//	quit
package console

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"alarmcode-go/bus"
	"alarmcode-go/errcode"
	"alarmcode-go/internal/halcore"
	"alarmcode-go/services/indicator"
	"alarmcode-go/services/sensor"
	"alarmcode-go/types"
)

const (
	requestTimeout = 500 * time.Millisecond
	maxLine        = 128
)

// ErrQuit is returned by Run after a quit command.
var ErrQuit = errors.New("console: quit")

type Console struct {
	port halcore.SerialPort
	conn *bus.Connection

	// Obstacle moves a simulated obstacle; nil disables the echo command.
	Obstacle func(cm float64)
}

func New(port halcore.SerialPort, conn *bus.Connection) *Console {
	return &Console{port: port, conn: conn}
}

func (c *Console) say(s string) { _, _ = c.port.Write([]byte(s + "\r\n")) }

// Run reads and executes lines until ctx ends, the port fails or a quit
// command arrives.
func (c *Console) Run(ctx context.Context) error {
	c.say("alarm console ready, type help")
	buf := make([]byte, 64)
	line := make([]byte, 0, maxLine)
	for {
		n, err := c.port.RecvSomeContext(ctx, buf)
		if err != nil {
			return err
		}
		for _, b := range buf[:n] {
			switch {
			case b == '\r' || b == '\n':
				if len(line) == 0 {
					continue
				}
				out, quit := c.Exec(ctx, string(line))
				line = line[:0]
				if out != "" {
					c.say(out)
				}
				if quit {
					return ErrQuit
				}
			case len(line) < maxLine:
				line = append(line, b)
			}
		}
	}
}

// Exec runs one command line and returns the response text. quit reports a
// quit command.
func (c *Console) Exec(ctx context.Context, line string) (out string, quit bool) {
	args, err := shlex.Split(line)
	if err != nil {
		return "error: " + err.Error(), false
	}
	if len(args) == 0 {
		return "", false
	}
	switch strings.ToLower(args[0]) {
	case "quit", "exit":
		return "bye", true
	case "help":
		return "commands: mode <" + modeNames() + ">, distance, echo <cm>, quit", false
	case "mode":
		if len(args) != 2 {
			return "usage: mode <name>", false
		}
		return c.setMode(ctx, args[1]), false
	case "distance":
		return c.distance(ctx), false
	case "echo":
		if c.Obstacle == nil {
			return "error: " + string(errcode.Unsupported), false
		}
		if len(args) != 2 {
			return "usage: echo <cm>", false
		}
		cm, err := strconv.ParseFloat(args[1], 64)
		if err != nil || cm < 0 {
			return "error: " + string(errcode.InvalidParams), false
		}
		c.Obstacle(cm)
		return "ok", false
	default:
		return "unknown command " + strconv.Quote(args[0]), false
	}
}

func (c *Console) request(ctx context.Context, topic bus.Topic, payload any) (*bus.Message, error) {
	rctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	return c.conn.RequestWait(rctx, c.conn.NewMessage(topic, payload, false))
}

func (c *Console) setMode(ctx context.Context, name string) string {
	reply, err := c.request(ctx, indicator.TopicSet, types.ModeSet{Mode: strings.ToLower(name)})
	if err != nil {
		return "error: " + string(errcode.Of(err))
	}
	switch r := reply.Payload.(type) {
	case types.OKReply:
		return "ok"
	case types.ErrorReply:
		return "error: " + r.Error
	default:
		return "error: " + string(errcode.InvalidPayload)
	}
}

func (c *Console) distance(ctx context.Context) string {
	reply, err := c.request(ctx, sensor.TopicGet, nil)
	if err != nil {
		return "error: " + string(errcode.Of(err))
	}
	v, ok := reply.Payload.(types.DistanceValue)
	if !ok {
		return "error: " + string(errcode.InvalidPayload)
	}
	if v.TSms == 0 {
		return "no echo yet"
	}
	return strconv.FormatFloat(v.CM, 'f', 1, 64) + " cm"
}

func modeNames() string {
	var b strings.Builder
	for i, m := range types.Modes() {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(m.String())
	}
	return b.String()
}
