package ds3231

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"

	"github.com/ajanata/drivers/tester"
)

func newDevice() (*Device, *tester.I2CDevice) {
	fake := tester.NewI2CDevice(Address)
	return NewBus(fake), fake
}

func TestBCDRoundTrip(t *testing.T) {
	c := qt.New(t)
	for v := uint8(0); v <= 99; v++ {
		c.Assert(bcdToDec(decToBcd(v)), qt.Equals, v)
	}
	c.Assert(decToBcd(59), qt.Equals, uint8(0x59))
	c.Assert(decToBcd(7), qt.Equals, uint8(0x07))
	c.Assert(bcdToDec(0x31), qt.Equals, uint8(31))
}

func TestSetTime(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()

	err := dev.SetTime(DateTime{Year: 24, Month: 12, Day: 31, Weekday: 3, Hour: 23, Minute: 59, Second: 58})
	c.Assert(err, qt.IsNil)

	c.Assert(fake.Transfers, qt.HasLen, 1)
	c.Assert(fake.Transfers[0].Hold, qt.IsFalse)
	c.Assert(fake.Transfers[0].Data, qt.DeepEquals, []byte{Time, 0x58, 0x59, 0x23, 0x03, 0x31, 0x12, 0x24})
}

func TestReadTime(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()
	copy(fake.Registers[Time:], []byte{0x05, 0x04, 0x15, 0x02, 0x02, 0x01, 0x06})

	dt, err := dev.ReadTime()
	c.Assert(err, qt.IsNil)
	c.Assert(dt, qt.Equals, DateTime{Year: 6, Month: 1, Day: 2, Weekday: 2, Hour: 15, Minute: 4, Second: 5})

	// pointer write holding the bus, then one burst
	c.Assert(fake.Transfers, qt.HasLen, 2)
	c.Assert(fake.Transfers[0], qt.DeepEquals, tester.Transfer{Addr: Address, Hold: true, Data: []byte{Time}})
	c.Assert(fake.Transfers[1].Read, qt.IsTrue)
	c.Assert(fake.Transfers[1].Data, qt.HasLen, 7)
}

func TestReadTimeIgnoresCenturyBit(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()
	fake.Registers[Time+5] = monthCentury | 0x12

	dt, err := dev.ReadTime()
	c.Assert(err, qt.IsNil)
	c.Assert(dt.Month, qt.Equals, uint8(12))
}

func TestTimeRoundTrip(t *testing.T) {
	c := qt.New(t)
	for _, dt := range []DateTime{
		{},
		{Year: 0, Month: 1, Day: 1, Weekday: 1},
		{Year: 99, Month: 12, Day: 31, Weekday: 7, Hour: 23, Minute: 59, Second: 59},
		{Year: 42, Month: 6, Day: 15, Weekday: 4, Hour: 9, Minute: 30, Second: 10},
		// no calendar validation
		{Year: 23, Month: 2, Day: 31, Weekday: 5, Hour: 12},
	} {
		dev, _ := newDevice()
		c.Assert(dev.SetTime(dt), qt.IsNil)
		got, err := dev.ReadTime()
		c.Assert(err, qt.IsNil)
		if diff := cmp.Diff(dt, got); diff != "" {
			c.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSetTimeShortWrite(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()
	fake.ShortAt(0, 3)

	err := dev.SetTime(DateTime{Month: 1, Day: 1, Weekday: 1})
	var busErr *BusError
	c.Assert(err, qt.ErrorAs, &busErr)
	c.Assert(busErr.Op, qt.Equals, "write")
	c.Assert(busErr.Reg, qt.Equals, uint8(Time))
	c.Assert(busErr.Want, qt.Equals, 8)
	c.Assert(busErr.Got, qt.Equals, 3)
	c.Assert(err, qt.ErrorMatches, `ds3231: short write at register 0x00: got 3 of 8 bytes`)
}

func TestReadTimeShortTransfers(t *testing.T) {
	c := qt.New(t)

	c.Run("pointer", func(c *qt.C) {
		dev, fake := newDevice()
		fake.ShortAt(0, 0)

		_, err := dev.ReadTime()
		var busErr *BusError
		c.Assert(err, qt.ErrorAs, &busErr)
		c.Assert(busErr.Op, qt.Equals, "write")
		// the read is never attempted
		c.Assert(fake.Transfers, qt.HasLen, 1)
	})

	c.Run("burst", func(c *qt.C) {
		dev, fake := newDevice()
		fake.ShortAt(1, 6)

		dt, err := dev.ReadTime()
		var busErr *BusError
		c.Assert(err, qt.ErrorAs, &busErr)
		c.Assert(busErr.Op, qt.Equals, "read")
		c.Assert(busErr.Got, qt.Equals, 6)
		c.Assert(dt, qt.Equals, DateTime{})
	})

	c.Run("transport error", func(c *qt.C) {
		dev, fake := newDevice()
		nack := errors.New("nack")
		fake.FailAt(1, nack)

		_, err := dev.ReadTime()
		c.Assert(err, qt.ErrorIs, nack)
		c.Assert(err, qt.ErrorMatches, `ds3231: read at register 0x00: nack`)
	})
}

func TestSetAndNow(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()
	fake.Registers[Status] = statusOSF | statusEN32kHz

	lost, err := dev.LostPower()
	c.Assert(err, qt.IsNil)
	c.Assert(lost, qt.IsTrue)

	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	c.Assert(dev.Set(want), qt.IsNil)
	// Monday is weekday 2
	c.Assert(fake.Registers[Time+3], qt.Equals, uint8(0x02))
	c.Assert(fake.Registers[Status], qt.Equals, uint8(statusEN32kHz))

	lost, err = dev.LostPower()
	c.Assert(err, qt.IsNil)
	c.Assert(lost, qt.IsFalse)

	got, err := dev.Now()
	c.Assert(err, qt.IsNil)
	c.Assert(got.Equal(want), qt.IsTrue, qt.Commentf("got %v", got))
}

func TestSetYearOutOfRange(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()

	err := dev.Set(time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC))
	c.Assert(err, qt.Equals, ErrYearOutOfRange)
	err = dev.Set(time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(err, qt.Equals, ErrYearOutOfRange)
	c.Assert(fake.Transfers, qt.HasLen, 0)
}

func TestClearLostPower(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()
	fake.Registers[Status] = statusOSF | statusA1F | statusA2F

	c.Assert(dev.ClearLostPower(), qt.IsNil)
	c.Assert(fake.Registers[Status], qt.Equals, uint8(statusA1F|statusA2F))
}

func TestReadTemperature(t *testing.T) {
	c := qt.New(t)
	for _, tt := range []struct {
		name     string
		msb, lsb byte
		want     int32
	}{
		{name: "room", msb: 0x19, lsb: 0x40, want: 25250},
		{name: "zero", msb: 0x00, lsb: 0x00, want: 0},
		{name: "quarter below zero", msb: 0xFF, lsb: 0xC0, want: -250},
		{name: "freezing", msb: 0xE6, lsb: 0x00, want: -26000},
	} {
		c.Run(tt.name, func(c *qt.C) {
			dev, fake := newDevice()
			fake.Registers[Temperature] = tt.msb
			fake.Registers[Temperature+1] = tt.lsb

			got, err := dev.ReadTemperature()
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tt.want)
		})
	}
}

func TestConfigureAddress(t *testing.T) {
	c := qt.New(t)
	dev, fake := newDevice()

	dev.Configure(Config{Address: 0x57})
	_, err := dev.ReadTime()
	c.Assert(err, qt.ErrorIs, tester.ErrNoDevice)

	dev.Configure(Config{})
	fake.Reset()
	_, err = dev.ReadTime()
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Transfers[0].Addr, qt.Equals, uint16(Address))
}

func TestFromTime(t *testing.T) {
	c := qt.New(t)
	dt := FromTime(time.Date(2024, 3, 10, 8, 7, 6, 0, time.UTC))
	c.Assert(dt, qt.Equals, DateTime{Year: 24, Month: 3, Day: 10, Weekday: 1, Hour: 8, Minute: 7, Second: 6})
	c.Assert(dt.Time(), qt.Equals, time.Date(2024, 3, 10, 8, 7, 6, 0, time.UTC))
}
