// Package radio carries breath telemetry records between a sensor and its
// receivers over MQTT. Records are published fire-and-forget: a slow link
// drops records instead of slowing down the sampling loop.
package radio

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config configures the telemetry link.
type Config struct {
	Broker string `yaml:"broker"` // tcp://host:port
	Prefix string `yaml:"prefix"`
	Group  int    `yaml:"group"` // 0..255, senders and receivers pair by group
	QoS    byte   `yaml:"qos"`
}

// DefaultConfig publishes on breath/0 through a local broker.
var DefaultConfig = Config{
	Broker: "tcp://localhost:1883",
	Prefix: "breath",
	Group:  0,
}

// Topic returns the topic of the configured group.
func (c Config) Topic() string {
	return fmt.Sprintf("%s/%d", c.Prefix, c.Group&0xff)
}

func connect(c Config, role string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(fmt.Sprintf("breath-%s-%s", role, uuid.NewString())).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("radio: could not connect to %s: %w", c.Broker, token.Error())
	}
	return client, nil
}
