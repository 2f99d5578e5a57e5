package pcf8574

import (
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
)

type fakeI2C struct {
	addr uint16
	w    [][]byte
	err  error
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.err != nil {
		return f.err
	}
	f.addr = addr
	f.w = append(f.w, append([]byte(nil), w...))
	return nil
}

func TestWriteSingleByte(t *testing.T) {
	c := qt.New(t)
	bus := &fakeI2C{}
	d := New(bus)

	c.Assert(d.Last(), qt.Equals, byte(0xFF))
	c.Assert(d.Write(0xF9), qt.IsNil)
	c.Assert(bus.addr, qt.Equals, uint16(DefaultAddress))
	c.Assert(bus.w, qt.DeepEquals, [][]byte{{0xF9}})
	c.Assert(d.Last(), qt.Equals, byte(0xF9))
	c.Assert(d.Writes(), qt.Equals, uint32(1))
}

func TestConfigureAddressAndInversion(t *testing.T) {
	c := qt.New(t)
	bus := &fakeI2C{}
	d := New(bus)
	d.Configure(Config{Address: 0x20, ActiveHigh: true})

	c.Assert(d.Write(0xF6), qt.IsNil)
	c.Assert(bus.addr, qt.Equals, uint16(0x20))
	c.Assert(bus.w[0], qt.DeepEquals, []byte{0x09})
	// Last reports the logical pattern, not the inverted wire byte.
	c.Assert(d.Last(), qt.Equals, byte(0xF6))
}

func TestWriteErrorKeepsLast(t *testing.T) {
	c := qt.New(t)
	boom := errors.New("nack")
	bus := &fakeI2C{err: boom}
	d := New(bus)

	c.Assert(d.Write(0x00), qt.ErrorIs, boom)
	c.Assert(d.Last(), qt.Equals, byte(0xFF))
	c.Assert(d.Writes(), qt.Equals, uint32(0))

	c.Assert(New(nil).Write(0x00), qt.ErrorIs, ErrNoBus)
}

func TestConfigureWhileWriting(t *testing.T) {
	c := qt.New(t)
	bus := &fakeI2C{}
	d := New(bus)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = d.Write(byte(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			d.Configure(Config{Address: 0x20})
		}
	}()
	wg.Wait()

	c.Assert(d.Write(0x00), qt.IsNil)
	c.Assert(bus.addr, qt.Equals, uint16(0x20))
	c.Assert(d.Writes(), qt.Equals, uint32(101))
}
