package ds3231

const (
	Address       = 0x68 // I2C address for DS3231
	Time          = 0x00 // Time registers starting with seconds
	Alarm1Seconds = 0x07 // Alarm 1 registers starting with seconds
	Alarm2Minutes = 0x0B // Alarm 2 registers starting with minutes
	Control       = 0x0E // Control register
	Status        = 0x0F // Control/status register, holds the alarm flags
	AgingOffset   = 0x10 // Aging offset register
	Temperature   = 0x11 // Temperature registers, MSB then LSB
)

// control register bits
const (
	controlA1IE  = 1 << 0 // alarm 1 interrupt enable
	controlA2IE  = 1 << 1 // alarm 2 interrupt enable
	controlINTCN = 1 << 2 // interrupt control: 1 routes alarms to INT, 0 outputs the square wave
	controlRS1   = 1 << 3 // rate select 1
	controlRS2   = 1 << 4 // rate select 2

	rateShift = 3
)

// status register bits
const (
	statusA1F     = 1 << 0 // alarm 1 flag
	statusA2F     = 1 << 1 // alarm 2 flag
	statusEN32kHz = 1 << 3 // enable 32kHz output
	statusOSF     = 1 << 7 // oscillator stop flag
)

// alarm register bits
const (
	alarmMask = 0x80 // AxMy: field is ignored when matching
	alarmDYDT = 0x40 // day/date register only: 1 matches day of week, 0 matches date
)

const monthCentury = 0x80 // century bit of the month register, never read back
