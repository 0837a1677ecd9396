// Package ds3231 implements a driver for the DS3231 Real-Time Clock (RTC): reading and writing the current time, both
// alarms with every match mode the chip supports, and control of the INT/SQW and 32kHz outputs.
//
// The control and status registers each hold several independent settings, so every method touching them reads the
// register, changes only its own bits and writes it back. A Device holds its lock for all the bus transactions of a
// method, which keeps those read-modify-write sequences from interleaving when a Device is shared between goroutines.
// Two Device values talking to the same chip are not coordinated.
//
// No calendar validation is done: values are written to the chip as given.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/DS3231.pdf
package ds3231

import (
	"errors"
	"sync"
	"time"

	"github.com/ajanata/drivers"
)

var (
	ErrInvalidAlarm     = errors.New("ds3231: invalid alarm")
	ErrInvalidMode      = errors.New("ds3231: invalid alarm mode")
	ErrInvalidFrequency = errors.New("ds3231: invalid square wave frequency")
	ErrYearOutOfRange   = errors.New("ds3231: year out of range 2000-2099")
)

type Device struct {
	mu   sync.Mutex
	bus  Bus
	addr uint16
}

type Config struct {
	Address uint8
}

// DateTime is the content of the time registers in decimal.
type DateTime struct {
	Year    uint8 // 0-99, years since 2000
	Month   uint8 // 1-12
	Day     uint8 // 1-31
	Weekday uint8 // 1-7
	Hour    uint8 // 0-23
	Minute  uint8 // 0-59
	Second  uint8 // 0-59
}

// FromTime returns the DateTime for the wall clock fields of t. Weekday counts from Sunday = 1.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Year:    uint8(t.Year() - 2000),
		Month:   uint8(t.Month()),
		Day:     uint8(t.Day()),
		Weekday: uint8(t.Weekday()) + 1,
		Hour:    uint8(t.Hour()),
		Minute:  uint8(t.Minute()),
		Second:  uint8(t.Second()),
	}
}

// Time returns dt as a UTC time. The weekday is not used.
func (dt DateTime) Time() time.Time {
	return time.Date(2000+int(dt.Year), time.Month(dt.Month), int(dt.Day),
		int(dt.Hour), int(dt.Minute), int(dt.Second), 0, time.UTC)
}

// New creates a new driver on the specified preconfigured I2C bus, at the default address.
//
// This function only creates the Device object, it does not touch the device.
func New(i2c drivers.I2C) *Device {
	return NewBus(&i2cBus{bus: i2c})
}

// NewBus creates a new driver on a transport that reports transfer lengths.
func NewBus(bus Bus) *Device {
	return &Device{
		bus:  bus,
		addr: Address,
	}
}

func (d *Device) Configure(c Config) {
	if c.Address == 0 {
		c.Address = Address
	}

	d.mu.Lock()
	d.addr = uint16(c.Address)
	d.mu.Unlock()
}

// SetTime writes all seven time registers in a single transaction.
func (d *Device) SetTime(dt DateTime) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setTime(dt)
}

func (d *Device) setTime(dt DateTime) error {
	return d.write(Time,
		decToBcd(dt.Second),
		decToBcd(dt.Minute),
		decToBcd(dt.Hour),
		decToBcd(dt.Weekday),
		decToBcd(dt.Day),
		decToBcd(dt.Month),
		decToBcd(dt.Year),
	)
}

// ReadTime reads all seven time registers in a single burst.
func (d *Device) ReadTime() (DateTime, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := [7]byte{}
	err := d.read(Time, buf[:])
	if err != nil {
		return DateTime{}, err
	}

	return DateTime{
		Second:  bcdToDec(buf[0]),
		Minute:  bcdToDec(buf[1]),
		Hour:    bcdToDec(buf[2]),
		Weekday: bcdToDec(buf[3]),
		Day:     bcdToDec(buf[4]),
		Month:   bcdToDec(buf[5] &^ monthCentury),
		Year:    bcdToDec(buf[6]),
	}, nil
}

// Set writes the wall clock fields of t to the device, then clears the oscillator stop flag so LostPower reports false
// until the clock stops again.
func (d *Device) Set(t time.Time) error {
	if t.Year() < 2000 || t.Year() > 2099 {
		return ErrYearOutOfRange
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.setTime(FromTime(t))
	if err != nil {
		return err
	}
	return d.update(Status, statusOSF, 0)
}

// Now returns the current time of the device in UTC.
func (d *Device) Now() (time.Time, error) {
	dt, err := d.ReadTime()
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time(), nil
}

// LostPower reports whether the oscillator has stopped at some point since the flag was last cleared, which means the
// time can not be trusted.
func (d *Device) LostPower() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.read8(Status)
	if err != nil {
		return false, err
	}
	return v&statusOSF != 0, nil
}

// ClearLostPower clears the oscillator stop flag without touching the time.
func (d *Device) ClearLostPower() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(Status, statusOSF, 0)
}

// ReadTemperature returns the temperature in millicelsius (mC), with a resolution of 0.25°C. The chip refreshes it
// every 64 seconds.
func (d *Device) ReadTemperature() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := [2]byte{}
	err := d.read(Temperature, buf[:])
	if err != nil {
		return 0, err
	}
	// 10-bit two's complement: integer part in the MSB, quarters in the top two bits of the LSB
	return int32(int8(buf[0]))*1000 + int32(buf[1]>>6)*250, nil
}

// decToBcd converts 0-99 to BCD
func decToBcd(dec uint8) uint8 {
	return dec + 6*(dec/10)
}

// bcdToDec converts BCD to 0-99. Bits that are not part of the value must already be masked off.
func bcdToDec(bcd uint8) uint8 {
	return bcd - 6*(bcd>>4)
}
