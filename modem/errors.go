package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has no transport.
	//
	// This can occur if the Dialer returned neither a transport nor an error,
	// or if the Modem was not created via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and by every command issued after Close.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrLoopRunning is returned when Loop is called while another Loop is
	// still reading the transport.
	ErrLoopRunning = errors.New("modem loop already running")

	// ErrInvalidTopic is returned when a subscribe or publish names no topic.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidQoS is returned when a subscription asks for a QoS other than
	// 0, 1 or 2.
	ErrInvalidQoS = errors.New("invalid QoS")
)
