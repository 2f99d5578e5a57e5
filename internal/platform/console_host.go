// internal/platform/console_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"io"
	"os"

	"alarmcode-go/internal/halcore"
)

// StreamPort adapts a reader/writer pair to halcore.SerialPort. Reads run on
// a background goroutine so RecvSomeContext can honour ctx.
type StreamPort struct {
	w   io.Writer
	rxQ chan []byte
	err chan error

	pending []byte // unread tail of the last chunk; single reader
}

// NewStreamPort starts reading r immediately.
func NewStreamPort(r io.Reader, w io.Writer) *StreamPort {
	p := &StreamPort{w: w, rxQ: make(chan []byte, 4), err: make(chan error, 1)}
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				p.rxQ <- append([]byte(nil), buf[:n]...)
			}
			if err != nil {
				p.err <- err
				close(p.rxQ)
				return
			}
		}
	}()
	return p
}

// ConsolePort is the process's stdin/stdout.
func ConsolePort() halcore.SerialPort { return NewStreamPort(os.Stdin, os.Stdout) }

func (p *StreamPort) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *StreamPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	if len(p.pending) > 0 {
		n := copy(buf, p.pending)
		p.pending = p.pending[n:]
		return n, nil
	}
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case chunk, ok := <-p.rxQ:
		if !ok {
			select {
			case err := <-p.err:
				p.err <- err
				return 0, err
			default:
				return 0, io.EOF
			}
		}
		n := copy(buf, chunk)
		p.pending = chunk[n:]
		return n, nil
	}
}
