package ds3231

// SquareWaveFrequency is the rate select code of the control register.
type SquareWaveFrequency uint8

const (
	SQW1Hz    SquareWaveFrequency = 0b00
	SQW1024Hz SquareWaveFrequency = 0b01
	SQW4096Hz SquareWaveFrequency = 0b10
	SQW8192Hz SquareWaveFrequency = 0b11
)

func (f SquareWaveFrequency) String() string {
	switch f {
	case SQW1Hz:
		return "1Hz"
	case SQW1024Hz:
		return "1024Hz"
	case SQW4096Hz:
		return "4096Hz"
	case SQW8192Hz:
		return "8192Hz"
	}
	return "invalid"
}

// ControlRegister is a snapshot of the control register.
type ControlRegister uint8

// AlarmEnabled reports whether the alarm's interrupt is enabled.
func (r ControlRegister) AlarmEnabled(a Alarm) bool {
	enable, err := a.enable()
	return err == nil && uint8(r)&enable != 0
}

// InterruptMode reports whether the INT/SQW pin is routed to the alarms rather than the square wave.
func (r ControlRegister) InterruptMode() bool {
	return r&controlINTCN != 0
}

func (r ControlRegister) Frequency() SquareWaveFrequency {
	return SquareWaveFrequency((r & (controlRS1 | controlRS2)) >> rateShift)
}

// StatusRegister is a snapshot of the status register.
type StatusRegister uint8

func (r StatusRegister) AlarmFired(a Alarm) bool {
	flag, err := a.flag()
	return err == nil && uint8(r)&flag != 0
}

func (r StatusRegister) Enabled32kHz() bool {
	return r&statusEN32kHz != 0
}

func (r StatusRegister) OscillatorStopped() bool {
	return r&statusOSF != 0
}

// EnableInterruptMode routes alarm matches to the INT/SQW pin. Square wave output stops.
func (d *Device) EnableInterruptMode() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(Control, 0, controlINTCN)
}

// EnableSquareWave outputs a square wave of the given frequency on the INT/SQW pin. Alarms stay enabled and keep
// setting their flags, but no longer drive the pin.
func (d *Device) EnableSquareWave(f SquareWaveFrequency) error {
	if f > SQW8192Hz {
		return ErrInvalidFrequency
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(Control, controlINTCN|controlRS1|controlRS2, uint8(f)<<rateShift)
}

// Enable32kHz turns the 32kHz output pin on or off. The alarm flags are left as they are.
func (d *Device) Enable32kHz(enabled bool) error {
	var set uint8
	if enabled {
		set = statusEN32kHz
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.update(Status, statusEN32kHz, set)
}

func (d *Device) ReadControl() (ControlRegister, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.read8(Control)
	return ControlRegister(v), err
}

func (d *Device) ReadStatus() (StatusRegister, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.read8(Status)
	return StatusRegister(v), err
}
