// Package publish sends run reports to an MQTT broker.
package publish

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// DefaultTopic is used when MQTT.Topic is empty.
const DefaultTopic = "madgwhat/runs"

// DefaultTimeout bounds connect, publish and disconnect.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when the broker does not answer in time.
var ErrTimeout = errors.New("mqtt: timed out")

// MQTT publishes one payload per call over a short-lived connection.
type MQTT struct {
	Broker   string // e.g. tcp://localhost:1883
	Topic    string
	ClientID string // defaults to madgwhat-<uuid>
	Timeout  time.Duration

	// NewClient is replaceable for tests. Defaults to mqtt.NewClient.
	NewClient func(*mqtt.ClientOptions) mqtt.Client
}

// Publish connects, publishes payload at QoS 1 and disconnects.
func (p MQTT) Publish(payload []byte) error {
	if p.Broker == "" {
		return fmt.Errorf("mqtt: no broker configured")
	}
	topic := p.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	clientID := p.ClientID
	if clientID == "" {
		clientID = "madgwhat-" + uuid.NewString()
	}
	newClient := p.NewClient
	if newClient == nil {
		newClient = mqtt.NewClient
	}

	opts := mqtt.NewClientOptions().
		AddBroker(p.Broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(false).
		SetConnectRetry(false)

	client := newClient(opts)
	if err := wait(client.Connect(), timeout); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.Broker, err)
	}
	defer client.Disconnect(250)

	if err := wait(client.Publish(topic, 1, false, payload), timeout); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func wait(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}
