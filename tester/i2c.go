// Package tester provides fakes for testing drivers without hardware.
package tester

import (
	"errors"
	"fmt"
)

// ErrNoDevice is returned for transfers to an address nothing answers on.
var ErrNoDevice = errors.New("tester: no device at address")

// Transfer is one recorded bus transfer.
type Transfer struct {
	Addr uint16
	Read bool
	Hold bool   // write only: bus kept for the following read
	Data []byte // bytes actually moved
}

// I2CDevice is a fake register-mapped I2C peripheral. A write sets the register pointer from its first byte and
// stores the remaining bytes from there; a read returns bytes from the pointer on. The pointer increments after every
// byte and wraps at 256.
//
// It implements both drivers.I2C and the counting transport used by the ds3231 package. It is not safe for concurrent
// use; drivers are expected to serialize their own access.
type I2CDevice struct {
	Addr      uint16
	Registers [256]byte
	// Transfers records every transfer in order, including short ones.
	Transfers []Transfer
	// TxCalls counts calls to Tx, ReadRegister and WriteRegister.
	TxCalls int

	pointer uint8
	faults  map[int]fault
}

type fault struct {
	moved int
	err   error
}

func NewI2CDevice(addr uint16) *I2CDevice {
	return &I2CDevice{Addr: addr}
}

// ShortAt makes the transfer with index i in Transfers move only moved bytes.
func (d *I2CDevice) ShortAt(i, moved int) {
	d.setFault(i, fault{moved: moved})
}

// FailAt makes the transfer with index i in Transfers fail with err without moving anything.
func (d *I2CDevice) FailAt(i int, err error) {
	d.setFault(i, fault{err: err})
}

func (d *I2CDevice) setFault(i int, f fault) {
	if d.faults == nil {
		d.faults = make(map[int]fault)
	}
	d.faults[i] = f
}

// Reset forgets recorded transfers and pending faults, keeping the register contents.
func (d *I2CDevice) Reset() {
	d.Transfers = nil
	d.TxCalls = 0
	d.faults = nil
}

func (d *I2CDevice) limit(addr uint16, want int) (int, error) {
	if addr != d.Addr {
		return 0, ErrNoDevice
	}
	f, ok := d.faults[len(d.Transfers)]
	if !ok {
		return want, nil
	}
	if f.err != nil {
		return 0, f.err
	}
	if f.moved < want {
		return f.moved, nil
	}
	return want, nil
}

// Write implements the counting transport.
func (d *I2CDevice) Write(addr uint16, w []byte, hold bool) (int, error) {
	n, err := d.limit(addr, len(w))
	w = w[:n]
	d.Transfers = append(d.Transfers, Transfer{Addr: addr, Hold: hold, Data: append([]byte(nil), w...)})
	if len(w) > 0 {
		d.pointer = w[0]
		for _, b := range w[1:] {
			d.Registers[d.pointer] = b
			d.pointer++
		}
	}
	return n, err
}

// Read implements the counting transport.
func (d *I2CDevice) Read(addr uint16, r []byte) (int, error) {
	n, err := d.limit(addr, len(r))
	for i := 0; i < n; i++ {
		r[i] = d.Registers[d.pointer]
		d.pointer++
	}
	d.Transfers = append(d.Transfers, Transfer{Addr: addr, Read: true, Data: append([]byte(nil), r[:n]...)})
	return n, err
}

// Tx implements drivers.I2C.
func (d *I2CDevice) Tx(addr uint16, w, r []byte) error {
	d.TxCalls++
	if len(w) > 0 {
		n, err := d.Write(addr, w, len(r) > 0)
		if err != nil {
			return err
		}
		if n != len(w) {
			return fmt.Errorf("tester: short write: %d of %d bytes", n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := d.Read(addr, r)
		if err != nil {
			return err
		}
		if n != len(r) {
			return fmt.Errorf("tester: short read: %d of %d bytes", n, len(r))
		}
	}
	return nil
}

// ReadRegister implements drivers.I2C.
func (d *I2CDevice) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return d.Tx(uint16(addr), []byte{r}, buf)
}

// WriteRegister implements drivers.I2C.
func (d *I2CDevice) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return d.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}
