package relay

import (
	"fmt"
	"log/slog"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher is the subset of pahomqtt.Client used by Relay.
type Publisher interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Relay forwards messages to an upstream broker.
type Relay struct {
	client Publisher
	prefix string
	log    *slog.Logger
}

// Connect dials the broker described by cfg and waits for the first
// connection. The client reconnects on its own afterwards.
func Connect(cfg Config) (*Relay, error) {
	if cfg.Broker == "" {
		return nil, ErrNoBroker
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "relay")

	opts := buildClientOptions(cfg)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		logger.Info("Connected to upstream broker", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("Lost upstream broker connection", "error", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return New(client, cfg.TopicPrefix, logger), nil
}

// New wraps an already connected client.
func New(client Publisher, prefix string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client: client,
		prefix: strings.TrimSuffix(prefix, "/"),
		log:    logger,
	}
}

// Topic returns the upstream topic for topic.
func (r *Relay) Topic(topic string) string {
	if r.prefix == "" {
		return topic
	}
	return r.prefix + "/" + topic
}

// Forward publishes payload to the upstream copy of topic with QoS 0, not
// retained.
func (r *Relay) Forward(topic, payload string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !r.client.IsConnected() {
		return ErrNotConnected
	}

	upstream := r.Topic(topic)
	token := r.client.Publish(upstream, 0, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	r.log.Debug("Forwarded message", "topic", topic, "upstream", upstream)
	return nil
}

// Close disconnects from the broker.
func (r *Relay) Close() {
	r.client.Disconnect(disconnectQuiesce)
}
