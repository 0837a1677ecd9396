package ds3231

import (
	"fmt"

	"github.com/ajanata/drivers"
)

// Bus is a two-wire transport that reports how many bytes each transfer actually moved.
//
// A Write with hold set must not release the bus afterwards: the next Read continues the same transaction, which is
// how a register pointer is set before a burst read.
type Bus interface {
	Write(addr uint16, w []byte, hold bool) (int, error)
	Read(addr uint16, r []byte) (int, error)
}

// BusError is returned when a transfer moved fewer bytes than requested, or the transport failed outright.
type BusError struct {
	Op   string // "write" or "read"
	Reg  uint8  // register the transaction targeted
	Want int
	Got  int
	Err  error // transport error, if any
}

func (e *BusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ds3231: %s at register 0x%02x: %v", e.Op, e.Reg, e.Err)
	}
	return fmt.Sprintf("ds3231: short %s at register 0x%02x: got %d of %d bytes", e.Op, e.Reg, e.Got, e.Want)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// i2cBus turns a drivers.I2C into a Bus. A held write is kept back and sent as the write half of the next Tx, so the
// pointer-then-read idiom becomes a single repeated-start transaction.
type i2cBus struct {
	bus     drivers.I2C
	pending []byte
}

func (b *i2cBus) Write(addr uint16, w []byte, hold bool) (int, error) {
	if hold {
		b.pending = append(b.pending[:0], w...)
		return len(w), nil
	}
	b.pending = b.pending[:0]
	if err := b.bus.Tx(addr, w, nil); err != nil {
		return 0, err
	}
	return len(w), nil
}

func (b *i2cBus) Read(addr uint16, r []byte) (int, error) {
	w := b.pending
	b.pending = b.pending[:0]
	if err := b.bus.Tx(addr, w, r); err != nil {
		return 0, err
	}
	return len(r), nil
}

// write sends reg followed by data in one transaction.
func (d *Device) write(reg uint8, data ...byte) error {
	var buf [8]byte
	w := append(buf[:0], reg)
	w = append(w, data...)
	n, err := d.bus.Write(d.addr, w, false)
	if err != nil || n != len(w) {
		return &BusError{Op: "write", Reg: reg, Want: len(w), Got: n, Err: err}
	}
	return nil
}

// read sets the register pointer to reg and reads len(buf) bytes from there.
func (d *Device) read(reg uint8, buf []byte) error {
	w := [1]byte{reg}
	n, err := d.bus.Write(d.addr, w[:], true)
	if err != nil || n != len(w) {
		return &BusError{Op: "write", Reg: reg, Want: len(w), Got: n, Err: err}
	}
	n, err = d.bus.Read(d.addr, buf)
	if err != nil || n != len(buf) {
		return &BusError{Op: "read", Reg: reg, Want: len(buf), Got: n, Err: err}
	}
	return nil
}

func (d *Device) read8(reg uint8) (uint8, error) {
	buf := [1]byte{}
	err := d.read(reg, buf[:])
	return buf[0], err
}

// update is a read-modify-write of reg: the bits in clear are cleared, then the bits in set are set. Every other bit
// is written back as it was read.
func (d *Device) update(reg, clear, set uint8) error {
	v, err := d.read8(reg)
	if err != nil {
		return err
	}
	return d.write(reg, (v&^clear)|set)
}
