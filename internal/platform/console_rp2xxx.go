// internal/platform/console_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"alarmcode-go/internal/halcore"
)

// Console UART defaults: UART0 on GP0/GP1.
const (
	ConsoleBaud = 115200
	ConsoleTX   = 0
	ConsoleRX   = 1
)

// rp2SerialPort adapts uartx to halcore.SerialPort.
type rp2SerialPort struct{ u *uartx.UART }

func (p *rp2SerialPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2SerialPort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

// ConsolePort configures UART0 for the operator console.
func ConsolePort() halcore.SerialPort {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: ConsoleBaud,
		TX:       machine.Pin(ConsoleTX),
		RX:       machine.Pin(ConsoleRX),
	})
	return &rp2SerialPort{u: hw}
}
