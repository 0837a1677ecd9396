package ds3231

// Alarm is one of the two alarm comparators of the chip.
type Alarm uint8

const (
	Alarm1 Alarm = 1 // has seconds resolution
	Alarm2 Alarm = 2 // matches at second 00
)

// AlarmTime holds the values an alarm is compared against. Which fields take part depends on the mode.
type AlarmTime struct {
	Day    uint8 // day of month (1-31) or day of week (1-7)
	Hour   uint8 // 0-23
	Minute uint8 // 0-59
	Second uint8 // 0-59, alarm 1 only
}

// Alarm1Mode selects when alarm 1 triggers. Each mode compares one more field than the one before it.
type Alarm1Mode uint8

const (
	Alarm1EverySecond              Alarm1Mode = iota // every second
	Alarm1MatchSeconds                               // every minute, when seconds match
	Alarm1MatchMinutesSeconds                        // every hour, when minutes and seconds match
	Alarm1MatchHoursMinutesSeconds                   // every day, when hours, minutes and seconds match
	Alarm1MatchDate                                  // when date, hours, minutes and seconds match
	Alarm1MatchWeekday                               // when day of week, hours, minutes and seconds match
)

// Alarm2Mode selects when alarm 2 triggers. Alarm 2 has no seconds register and always fires at second 00.
type Alarm2Mode uint8

const (
	Alarm2EveryMinute       Alarm2Mode = iota // every minute
	Alarm2MatchMinutes                        // every hour, when minutes match
	Alarm2MatchHoursMinutes                   // every day, when hours and minutes match
	Alarm2MatchDate                           // when date, hours and minutes match
	Alarm2MatchWeekday                        // when day of week, hours and minutes match
)

// SetAlarm1 writes the alarm 1 registers and enables its interrupt.
//
// Enabling an alarm also switches the INT/SQW pin to interrupt mode, stopping any square wave output.
func (d *Device) SetAlarm1(at AlarmTime, mode Alarm1Mode) error {
	buf, err := encodeAlarm1(at, mode)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.write(Alarm1Seconds, buf[:]...)
	if err != nil {
		return err
	}
	return d.update(Control, 0, controlA1IE|controlINTCN)
}

// SetAlarm2 writes the alarm 2 registers and enables its interrupt.
//
// Enabling an alarm also switches the INT/SQW pin to interrupt mode, stopping any square wave output.
func (d *Device) SetAlarm2(at AlarmTime, mode Alarm2Mode) error {
	buf, err := encodeAlarm2(at, mode)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.write(Alarm2Minutes, buf[:]...)
	if err != nil {
		return err
	}
	return d.update(Control, 0, controlA2IE|controlINTCN)
}

// AlarmFired reports whether the alarm's flag is set. A failed read is returned as an error, never as false.
func (d *Device) AlarmFired(a Alarm) (bool, error) {
	flag, err := a.flag()
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.read8(Status)
	if err != nil {
		return false, err
	}
	return v&flag != 0, nil
}

// ClearAlarm clears the alarm's flag, releasing the INT pin once no enabled alarm has its flag set. The flag of the
// other alarm is left as it is.
func (d *Device) ClearAlarm(a Alarm) error {
	flag, err := a.flag()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(Status, flag, 0)
}

// DisableAlarm clears the alarm's interrupt enable bit. The alarm registers are left alone.
func (d *Device) DisableAlarm(a Alarm) error {
	enable, err := a.enable()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(Control, enable, 0)
}

// AlarmEnabled reports whether the alarm's interrupt enable bit is set.
func (d *Device) AlarmEnabled(a Alarm) (bool, error) {
	enable, err := a.enable()
	if err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.read8(Control)
	if err != nil {
		return false, err
	}
	return v&enable != 0, nil
}

func (a Alarm) flag() (uint8, error) {
	switch a {
	case Alarm1:
		return statusA1F, nil
	case Alarm2:
		return statusA2F, nil
	}
	return 0, ErrInvalidAlarm
}

func (a Alarm) enable() (uint8, error) {
	switch a {
	case Alarm1:
		return controlA1IE, nil
	case Alarm2:
		return controlA2IE, nil
	}
	return 0, ErrInvalidAlarm
}

// encodeAlarm1 returns the seconds, minutes, hours and day/date registers for alarm 1.
func encodeAlarm1(at AlarmTime, mode Alarm1Mode) ([4]byte, error) {
	buf := [4]byte{
		decToBcd(at.Second),
		decToBcd(at.Minute),
		decToBcd(at.Hour),
		decToBcd(at.Day),
	}
	if mode > Alarm1MatchWeekday {
		return buf, ErrInvalidMode
	}
	// the first modes ignore every field from the mode number on, the day modes compare all of them
	maskFrom(buf[:], int(mode))
	setDayMode(&buf[3], mode == Alarm1MatchWeekday)
	return buf, nil
}

// encodeAlarm2 returns the minutes, hours and day/date registers for alarm 2.
func encodeAlarm2(at AlarmTime, mode Alarm2Mode) ([3]byte, error) {
	buf := [3]byte{
		decToBcd(at.Minute),
		decToBcd(at.Hour),
		decToBcd(at.Day),
	}
	if mode > Alarm2MatchWeekday {
		return buf, ErrInvalidMode
	}
	maskFrom(buf[:], int(mode))
	setDayMode(&buf[2], mode == Alarm2MatchWeekday)
	return buf, nil
}

// maskFrom sets the mask bit of buf[from:], so those fields are ignored by the comparator.
func maskFrom(buf []byte, from int) {
	for i := from; i < len(buf); i++ {
		buf[i] |= alarmMask
	}
}

func setDayMode(day *byte, weekday bool) {
	if weekday {
		*day |= alarmDYDT
	} else {
		*day &^= alarmDYDT
	}
}
