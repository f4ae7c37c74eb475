package relay

import "errors"

var (
	// ErrNoBroker is returned by Connect when no broker URL is configured.
	ErrNoBroker = errors.New("relay: broker URL is required")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("relay: connection failed")

	// ErrNotConnected is returned when forwarding while the client is offline.
	ErrNotConnected = errors.New("relay: client not connected")

	// ErrPublishFailed is returned when the broker does not accept a message.
	ErrPublishFailed = errors.New("relay: publish failed")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("relay: topic cannot be empty")
)
