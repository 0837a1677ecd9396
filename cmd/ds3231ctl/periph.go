package main

import (
	"periph.io/x/conn/v3/i2c"
)

// periphBus exposes a periph.io I2C bus as a drivers.I2C.
type periphBus struct {
	bus i2c.Bus
}

func (p periphBus) Tx(addr uint16, w, r []byte) error {
	return p.bus.Tx(addr, w, r)
}

func (p periphBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return p.bus.Tx(uint16(addr), []byte{reg}, buf)
}

func (p periphBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return p.bus.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}
