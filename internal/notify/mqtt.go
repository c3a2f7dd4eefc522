package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Karshmistry/CrimAII/internal/database"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttConnectTimeout = 30 * time.Second
	mqttPublishTimeout = 10 * time.Second
)

// MQTT publishes detections as JSON to a broker topic.
type MQTT struct {
	mu     sync.Mutex
	client mqtt.Client
	topic  string
}

// NewMQTT connects to broker and returns a publisher for topic.
func NewMQTT(broker, clientID, topic string) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, errors.New("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection error: %w", err)
	}
	return newMQTTWithClient(client, topic), nil
}

func newMQTTWithClient(client mqtt.Client, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

// Name returns "mqtt".
func (m *MQTT) Name() string { return "mqtt" }

// Notify publishes the detection JSON with QoS 0.
func (m *MQTT) Notify(ctx context.Context, d *database.Detection) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding detection: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.client.IsConnected() {
		return errors.New("not connected to MQTT broker")
	}

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	token := m.client.Publish(m.topic, 0, false, payload)
	if !token.WaitTimeout(timeout) {
		return errors.New("mqtt publish timeout")
	}
	return token.Error()
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
}
