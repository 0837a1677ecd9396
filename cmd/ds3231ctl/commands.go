package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/ajanata/drivers/ds3231"
)

var errUsage = errors.New("usage")

type ctl struct {
	dev      *ds3231.Device
	in       io.Reader
	out      io.Writer
	log      *log.Logger
	pub      publisher
	interval time.Duration
	now      func() time.Time
}

type command struct {
	args string
	run  func(c *ctl, ctx context.Context, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"read":    {"", (*ctl).read},
		"set":     {"now|RFC3339", (*ctl).set},
		"alarm1":  {"MODE DAY HH:MM:SS", (*ctl).alarm1},
		"alarm2":  {"MODE DAY HH:MM", (*ctl).alarm2},
		"disable": {"1|2", (*ctl).disable},
		"clear":   {"1|2", (*ctl).clear},
		"status":  {"", (*ctl).status},
		"sqw":     {"1|1024|4096|8192", (*ctl).sqw},
		"int":     {"", (*ctl).interrupt},
		"32k":     {"on|off", (*ctl).out32k},
		"temp":    {"", (*ctl).temp},
		"watch":   {"", (*ctl).watch},
		"shell":   {"", (*ctl).shell},
	}
}

func (c *ctl) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}
	err := cmd.run(c, ctx, args[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("usage: %s %s", args[0], cmd.args)
	}
	return err
}

func (c *ctl) read(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	dt, err := c.dev.ReadTime()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s weekday %d\n", dt.Time().Format(time.RFC3339), dt.Weekday)
	return nil
}

func (c *ctl) set(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	var t time.Time
	if args[0] == "now" {
		t = c.now().UTC()
	} else {
		var err error
		t, err = time.Parse(time.RFC3339, args[0])
		if err != nil {
			return err
		}
	}
	return c.dev.Set(t)
}

var alarm1Modes = map[string]ds3231.Alarm1Mode{
	"every-second": ds3231.Alarm1EverySecond,
	"seconds":      ds3231.Alarm1MatchSeconds,
	"minutes":      ds3231.Alarm1MatchMinutesSeconds,
	"hours":        ds3231.Alarm1MatchHoursMinutesSeconds,
	"date":         ds3231.Alarm1MatchDate,
	"weekday":      ds3231.Alarm1MatchWeekday,
}

var alarm2Modes = map[string]ds3231.Alarm2Mode{
	"every-minute": ds3231.Alarm2EveryMinute,
	"minutes":      ds3231.Alarm2MatchMinutes,
	"hours":        ds3231.Alarm2MatchHoursMinutes,
	"date":         ds3231.Alarm2MatchDate,
	"weekday":      ds3231.Alarm2MatchWeekday,
}

func (c *ctl) alarm1(_ context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	mode, ok := alarm1Modes[args[0]]
	if !ok {
		return fmt.Errorf("unknown alarm 1 mode %q, want one of %s", args[0], modeNames(alarm1Modes))
	}
	at, err := parseAlarmTime(args[1], args[2], true)
	if err != nil {
		return err
	}
	return c.dev.SetAlarm1(at, mode)
}

func (c *ctl) alarm2(_ context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	mode, ok := alarm2Modes[args[0]]
	if !ok {
		return fmt.Errorf("unknown alarm 2 mode %q, want one of %s", args[0], modeNames(alarm2Modes))
	}
	at, err := parseAlarmTime(args[1], args[2], false)
	if err != nil {
		return err
	}
	return c.dev.SetAlarm2(at, mode)
}

func modeNames[M ds3231.Alarm1Mode | ds3231.Alarm2Mode](modes map[string]M) string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// parseAlarmTime parses a day number and a clock: HH:MM:SS when seconds is set (alarm 1), HH:MM otherwise.
func parseAlarmTime(day, clock string, seconds bool) (ds3231.AlarmTime, error) {
	var at ds3231.AlarmTime
	d, err := parseField(day, "day", 0, 31)
	if err != nil {
		return at, err
	}
	at.Day = d

	parts := strings.Split(clock, ":")
	if seconds && len(parts) != 3 {
		return at, fmt.Errorf("bad time %q, want HH:MM:SS", clock)
	}
	if !seconds && len(parts) != 2 {
		return at, fmt.Errorf("bad time %q, want HH:MM", clock)
	}
	if at.Hour, err = parseField(parts[0], "hour", 0, 23); err != nil {
		return at, err
	}
	if at.Minute, err = parseField(parts[1], "minute", 0, 59); err != nil {
		return at, err
	}
	if len(parts) == 3 {
		if at.Second, err = parseField(parts[2], "second", 0, 59); err != nil {
			return at, err
		}
	}
	return at, nil
}

func parseField(s, name string, min, max uint64) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v < min || v > max {
		return 0, fmt.Errorf("bad %s %q, want %d-%d", name, s, min, max)
	}
	return uint8(v), nil
}

func parseAlarm(args []string) (ds3231.Alarm, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	switch args[0] {
	case "1":
		return ds3231.Alarm1, nil
	case "2":
		return ds3231.Alarm2, nil
	}
	return 0, fmt.Errorf("unknown alarm %q", args[0])
}

func (c *ctl) disable(_ context.Context, args []string) error {
	a, err := parseAlarm(args)
	if err != nil {
		return err
	}
	return c.dev.DisableAlarm(a)
}

func (c *ctl) clear(_ context.Context, args []string) error {
	a, err := parseAlarm(args)
	if err != nil {
		return err
	}
	return c.dev.ClearAlarm(a)
}

func (c *ctl) status(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	ctrl, err := c.dev.ReadControl()
	if err != nil {
		return err
	}
	st, err := c.dev.ReadStatus()
	if err != nil {
		return err
	}
	output := "square wave " + ctrl.Frequency().String()
	if ctrl.InterruptMode() {
		output = "interrupt"
	}
	fmt.Fprintf(c.out, "control 0x%02x: output %s\n", uint8(ctrl), output)
	for _, a := range []ds3231.Alarm{ds3231.Alarm1, ds3231.Alarm2} {
		fmt.Fprintf(c.out, "alarm %d: enabled %t, fired %t\n", a, ctrl.AlarmEnabled(a), st.AlarmFired(a))
	}
	fmt.Fprintf(c.out, "status 0x%02x: 32kHz %t, oscillator stopped %t\n", uint8(st), st.Enabled32kHz(), st.OscillatorStopped())
	return nil
}

var frequencies = map[string]ds3231.SquareWaveFrequency{
	"1":    ds3231.SQW1Hz,
	"1024": ds3231.SQW1024Hz,
	"4096": ds3231.SQW4096Hz,
	"8192": ds3231.SQW8192Hz,
}

func (c *ctl) sqw(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	f, ok := frequencies[strings.TrimSuffix(strings.ToLower(args[0]), "hz")]
	if !ok {
		return fmt.Errorf("unsupported frequency %q", args[0])
	}
	return c.dev.EnableSquareWave(f)
}

func (c *ctl) interrupt(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	return c.dev.EnableInterruptMode()
}

func (c *ctl) out32k(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch args[0] {
	case "on":
		return c.dev.Enable32kHz(true)
	case "off":
		return c.dev.Enable32kHz(false)
	}
	return errUsage
}

func (c *ctl) temp(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	mc, err := c.dev.ReadTemperature()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%.2f°C\n", float64(mc)/1000)
	return nil
}

// shell runs one command per input line until EOF, "exit" or "quit". Failed commands are reported and the shell goes
// on.
func (c *ctl) shell(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	s := bufio.NewScanner(c.in)
	for s.Scan() {
		words, err := shlex.Split(s.Text())
		if err != nil {
			c.log.Print(err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "exit", "quit":
			return nil
		case "shell":
			c.log.Print("already in a shell")
			continue
		}
		if err := c.run(ctx, words); err != nil {
			c.log.Printf("%s: %v", words[0], err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return s.Err()
}
