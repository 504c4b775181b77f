// Package mqtt publishes finished trip plans to an MQTT broker so downstream
// consumers (fleet dashboards, notification services) can react to them.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/evroute/core/logger"
	"github.com/kilianp07/evroute/core/metrics"
)

const connectTimeout = 5 * time.Second

// Publisher sends plan events to the configured topic as JSON payloads.
type Publisher struct {
	cfg    Config
	client pahomqtt.Client
	log    logger.Logger
}

// planMessage is the wire envelope for a published plan event.
type planMessage struct {
	MessageID string `json:"message_id"`
	Timestamp string `json:"timestamp"`
	metrics.PlanEvent
}

// NewPublisher connects to the broker and returns a ready publisher.
func NewPublisher(cfg Config, log logger.Logger) (*Publisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to broker %s: %w", cfg.Broker, err)
	}
	return &Publisher{cfg: cfg, client: client, log: log}, nil
}

// PublishPlan serializes the plan event and publishes it to the plan topic.
func (p *Publisher) PublishPlan(event metrics.PlanEvent) error {
	msg := planMessage{
		MessageID: uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PlanEvent: event,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal plan event: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish plan event: %w", err)
	}
	if p.log != nil {
		p.log.Debugf("published plan event %s to %s", msg.MessageID, p.cfg.Topic)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
