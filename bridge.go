package main

import (
	"context"
	"fmt"
	"log/slog"

	"i4.energy/across/atmqtt/modem"
	"i4.energy/across/atmqtt/urc"
)

// Forwarder copies received messages elsewhere.
type Forwarder interface {
	Forward(topic, payload string) error
}

// relayQueueSize bounds the messages waiting for the relay. Messages
// arriving while the queue is full are dropped.
const relayQueueSize = 64

type message struct {
	topic, payload string
}

// bridge ties the modem to the message handlers, the relay and the
// operator surfaces (HTTP API and console).
type bridge struct {
	modem  *modem.Modem
	logger *slog.Logger
	queue  chan message
}

// Subscribe registers the logging/relaying handler for topic and asks the
// modem to subscribe. Arguments are checked first; the handler then goes in
// before the command so nothing arriving during the subscribe pause is lost.
func (b *bridge) Subscribe(ctx context.Context, topic string, qos int) error {
	if err := modem.ValidateSubscription(topic, qos); err != nil {
		return err
	}
	b.modem.OnMessage(topic, b.handler(topic))
	return b.modem.Subscribe(ctx, topic, qos)
}

func (b *bridge) Publish(ctx context.Context, topic, data string) error {
	return b.modem.Publish(ctx, topic, data)
}

func (b *bridge) Status() modem.Status {
	return b.modem.Status()
}

func (b *bridge) Topics() []string {
	return b.modem.Topics()
}

// startRelay copies received messages to fwd from a separate goroutine
// until ctx is done, so a slow upstream never holds up the modem loop.
// It must be called before the modem loop starts.
func (b *bridge) startRelay(ctx context.Context, fwd Forwarder) {
	b.queue = make(chan message, relayQueueSize)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-b.queue:
				if err := fwd.Forward(msg.topic, msg.payload); err != nil {
					b.logger.Warn("Failed to relay message", "topic", msg.topic, "error", err)
				}
			}
		}
	}()
}

func (b *bridge) handler(topic string) urc.Handler {
	return func(payload string) {
		b.logger.Info("Received message", "topic", topic, "payload", payload)
		if b.queue == nil {
			return
		}
		select {
		case b.queue <- message{topic, payload}:
		default:
			b.logger.Warn("Relay queue full, dropping message", "topic", topic)
		}
	}
}

// start runs the initialisation stages in order. A stage that does not
// answer OK is only logged and the next stage still runs. I/O errors stop
// the sequence.
func (b *bridge) start(ctx context.Context, config *Config) error {
	if _, err := b.modem.InitSerial(ctx); err != nil {
		return fmt.Errorf("serial stage: %w", err)
	}

	if config.WiFi.SSID != "" {
		if _, err := b.modem.InitWiFi(ctx, config.WiFi.SSID, config.WiFi.Password); err != nil {
			return fmt.Errorf("wifi stage: %w", err)
		}
	}

	if config.MQTT.Server != "" {
		settings := modem.MQTTSettings{
			Server:   config.MQTT.Server,
			Port:     config.MQTT.Port,
			ClientID: config.MQTT.ClientID,
			Username: config.MQTT.Username,
			Password: config.MQTT.Password,
		}
		if _, err := b.modem.InitMQTT(ctx, settings); err != nil {
			return fmt.Errorf("mqtt stage: %w", err)
		}
	}

	for _, sub := range config.Subscriptions {
		if err := b.Subscribe(ctx, sub.Topic, sub.QoS); err != nil {
			return fmt.Errorf("subscribe %q: %w", sub.Topic, err)
		}
	}

	b.logger.Info("Bridge started", "status", b.modem.Status(), "topics", b.modem.Topics())
	return nil
}
