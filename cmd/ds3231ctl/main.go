// ds3231ctl talks to a DS3231 real-time clock on a Linux I2C bus.
//
// Synopsis:
//
//	ds3231ctl [--bus NAME] [--addr N] COMMAND [ARGS...]
//
// Commands:
//
//	read                          print the time
//	set now|RFC3339               set the time
//	alarm1 MODE DAY HH:MM:SS      arm alarm 1 (every-second, seconds, minutes, hours, date, weekday)
//	alarm2 MODE DAY HH:MM         arm alarm 2 (every-minute, minutes, hours, date, weekday)
//	disable 1|2                   disable an alarm
//	clear 1|2                     clear an alarm flag
//	status                        print control and status registers
//	sqw 1|1024|4096|8192          output a square wave on INT/SQW
//	int                           route alarms to INT/SQW
//	32k on|off                    switch the 32kHz output
//	temp                          print the temperature
//	watch                         poll the alarm flags, clear and report them
//	shell                         read commands from stdin
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/ajanata/drivers/ds3231"
)

var (
	busName    = flag.StringP("bus", "b", "", "I2C bus name or number, first one found if empty")
	addr       = flag.Uint8P("addr", "a", ds3231.Address, "device address")
	speed      = flag.Uint("khz", 0, "bus speed in kHz, left alone if 0")
	interval   = flag.DurationP("interval", "i", time.Second, "watch: polling interval")
	mqttBroker = flag.String("mqtt-broker", "", "watch: MQTT broker URL to publish fired alarms to, e.g. tcp://localhost:1883")
	mqttTopic  = flag.String("mqtt-topic", "ds3231/alarm", "watch: MQTT topic")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ds3231ctl: ")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()
	if *speed != 0 {
		if err := bus.SetSpeed(physic.Frequency(*speed) * physic.KiloHertz); err != nil {
			log.Fatal(err)
		}
	}

	dev := ds3231.New(periphBus{bus: bus})
	dev.Configure(ds3231.Config{Address: *addr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &ctl{
		dev:      dev,
		in:       os.Stdin,
		out:      os.Stdout,
		log:      log.Default(),
		interval: *interval,
		now:      time.Now,
	}
	if *mqttBroker != "" {
		pub, err := dialMQTT(*mqttBroker, *mqttTopic)
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
		c.pub = pub
	}

	if err := c.run(ctx, flag.Args()); err != nil {
		log.Fatal(fmt.Errorf("%s: %w", flag.Arg(0), err))
	}
}
