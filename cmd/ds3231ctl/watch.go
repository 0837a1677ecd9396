package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ajanata/drivers/ds3231"
)

// publisher reports fired alarms somewhere outside the process.
type publisher interface {
	Publish(a ds3231.Alarm, at time.Time) error
	Close()
}

// watch polls the alarm flags every interval until ctx is done. Fired alarms are cleared so they can fire again, then
// logged and published.
func (c *ctl) watch(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if c.interval <= 0 {
		return fmt.Errorf("bad interval %v", c.interval)
	}
	t := time.NewTicker(c.interval)
	defer t.Stop()

	for {
		if err := c.poll(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (c *ctl) poll() error {
	st, err := c.dev.ReadStatus()
	if err != nil {
		return err
	}
	for _, a := range []ds3231.Alarm{ds3231.Alarm1, ds3231.Alarm2} {
		if !st.AlarmFired(a) {
			continue
		}
		if err := c.dev.ClearAlarm(a); err != nil {
			return err
		}
		now, err := c.dev.Now()
		if err != nil {
			return err
		}
		c.log.Printf("alarm %d fired at %s", a, now.Format(time.RFC3339))
		if c.pub == nil {
			continue
		}
		// a broker outage should not stop the watch
		if err := c.pub.Publish(a, now); err != nil {
			c.log.Printf("publish alarm %d: %v", a, err)
		}
	}
	return nil
}

type alarmEvent struct {
	Alarm int    `json:"alarm"`
	Time  string `json:"time"`
}

type mqttPublisher struct {
	client mqtt.Client
	topic  string
}

func dialMQTT(broker, topic string) (*mqttPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("ds3231ctl").
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, token.Error())
	}
	return &mqttPublisher{client: client, topic: topic}, nil
}

func (p *mqttPublisher) Publish(a ds3231.Alarm, at time.Time) error {
	payload, err := json.Marshal(alarmEvent{Alarm: int(a), Time: at.Format(time.RFC3339)})
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

func (p *mqttPublisher) Close() {
	p.client.Disconnect(250)
}
