package modem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"i4.energy/across/atmqtt/at"
	"i4.energy/across/atmqtt/decode"
	"i4.energy/across/atmqtt/urc"
)

// Modem drives an ESP-AT WiFi/MQTT modem. It writes AT commands, reads the
// modem's output through Loop and delivers +MQTTSUBRECV messages to the
// handlers registered with OnMessage.
//
// Each Modem owns its receive buffer, stage flags and handlers, so several
// modems can be driven from one process.
type Modem struct {
	// transport provides the physical connection to the modem (serial, TCP, etc.)
	transport Transport
	// config contains the modem configuration settings
	config Config
	log    *slog.Logger

	// mu guards the receive pipeline: buf, state and decoder.
	mu sync.Mutex
	// buf holds decoded modem output that has not been consumed yet.
	buf     string
	state   State
	decoder *decode.Decoder
	framer  urc.Framer

	handlers *urc.Registry

	// cmdMu serialises command sequences so their pauses never overlap.
	cmdMu sync.Mutex

	serialReady atomic.Bool
	wifiReady   atomic.Bool
	mqttReady   atomic.Bool

	closed      atomic.Bool
	loopRunning atomic.Bool
	loopMu      sync.Mutex
	loopCancel  context.CancelFunc
}

// Status is a snapshot of the initialisation stages.
type Status struct {
	Serial bool  `json:"serial"`
	WiFi   bool  `json:"wifi"`
	MQTT   bool  `json:"mqtt"`
	State  State `json:"state"`
}

// New creates a new Modem instance with the given configuration and opens
// its transport. No command is sent; start Loop before issuing any, since
// command outcomes are read from what Loop receives.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial modem: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport: transport,
		config:    config,
		log:       config.logger.With("component", "modem"),
		decoder:   decode.NewDecoder(!config.chunkLocalUTF8),
		framer:    urc.Framer{HoldPartial: config.holdPartial},
		handlers:  urc.NewRegistry(),
	}

	return m, nil
}

// Process runs one pass of the receive pipeline over a chunk of raw bytes:
// decode, append to the receive buffer, extract every complete notification
// keeping the latest payload per topic, call each topic's handler once, and
// finally clear the buffer unless a command is waiting for its answer.
// While a command waits, only the notifications themselves leave the buffer.
//
// Loop calls Process for every chunk it reads. It returns the number of
// handlers called.
func (m *Modem) Process(chunk []byte) int {
	m.mu.Lock()
	text := m.decoder.Write(chunk)
	m.appendLocked(text)
	batch := urc.NewBatch()
	if m.state.mayClear() {
		m.buf = m.framer.Drain(m.buf, batch)
	} else {
		// A pending check still needs whatever the modem answered.
		m.buf = m.framer.Splice(m.buf, batch)
	}
	m.mu.Unlock()

	m.logLines(text)

	called := urc.Dispatch(batch, m.handlers)
	if len(batch) > 0 {
		m.log.Debug("Dispatched messages", "topics", batch.Topics(), "handled", called)
	}

	m.mu.Lock()
	if m.state.mayClear() {
		m.buf = ""
	}
	m.mu.Unlock()

	return called
}

// appendLocked adds text to the receive buffer and keeps it within the
// configured bound by dropping the oldest bytes.
func (m *Modem) appendLocked(text string) {
	m.buf += text

	excess := len(m.buf) - m.config.maxBufferSize
	if excess <= 0 {
		return
	}
	for excess < len(m.buf) && !utf8.RuneStart(m.buf[excess]) {
		excess++
	}
	m.buf = m.buf[excess:]
	m.log.Warn("Receive buffer full, dropped oldest bytes", "dropped", excess, "limit", m.config.maxBufferSize)
}

// logLines reports modem output line by line at debug level, and connection
// changes announced by the modem at info level.
func (m *Modem) logLines(text string) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Split(at.Splitter)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		kind := at.Classify(line)
		m.log.Debug("Modem output", "line", line, "kind", kind)

		if kind == at.TypeURC && !strings.HasPrefix(line, at.URCSubRecv) {
			m.log.Info("Modem event", "event", line)
		}
	}
}

// Buffered returns the receive buffer contents.
func (m *Modem) Buffered() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf
}

// State returns whether a command is currently waiting for its answer.
func (m *Modem) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the outcome of each initialisation stage.
func (m *Modem) Status() Status {
	return Status{
		Serial: m.serialReady.Load(),
		WiFi:   m.wifiReady.Load(),
		MQTT:   m.mqttReady.Load(),
		State:  m.State(),
	}
}

// Loop is the event loop that reads the transport. It must be running for
// command checks to see the modem's answers and for messages to reach their
// handlers.
//
// The transport is read in newline-delimited chunks, each of which runs
// one Process pass. Loop is the ONLY reader of the transport.
//
// Loop runs until ctx is cancelled, Close is called, the transport reports
// EOF (io.EOF is returned) or a read fails.
//
// Usage:
//
//	m, err := modem.New(ctx, config)
//	if err != nil { return err }
//
//	go m.Loop(ctx)
//
//	ok, err := m.InitSerial(ctx)
func (m *Modem) Loop(ctx context.Context) error {
	if !m.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer m.loopRunning.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.loopMu.Lock()
	m.loopCancel = cancel
	m.loopMu.Unlock()

	scanner := bufio.NewScanner(m.transport)
	scanner.Split(at.ChunkSplitter)

	// Channels for chunks and errors from the scanner goroutine
	chunks := make(chan []byte, 10)
	scanErrs := make(chan error, 1)

	go func() {
		defer close(chunks)
		for scanner.Scan() {
			chunk := bytes.Clone(scanner.Bytes())
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
		// Scanner stopped - check if there was an error
		if err := scanner.Err(); err != nil {
			select {
			case scanErrs <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case chunk, ok := <-chunks:
			if !ok {
				// The scanner reports its error before closing the channel.
				select {
				case err := <-scanErrs:
					return fmt.Errorf("scanner error: %w", err)
				default:
				}
				m.flush()
				return io.EOF
			}
			m.Process(chunk)

		case err := <-scanErrs:
			return fmt.Errorf("scanner error: %w", err)
		}
	}
}

// flush pushes bytes the decoder is still holding through a final pass.
func (m *Modem) flush() {
	m.mu.Lock()
	tail := m.decoder.Flush()
	m.mu.Unlock()
	if tail != "" {
		m.Process([]byte(tail))
	}
}

// OnMessage registers the handler for messages arriving on topic, replacing
// any earlier handler for it. Handlers run on the Loop goroutine, once per
// pass with the latest payload of that pass.
//
// Loop reads nothing while a handler runs. A handler that calls Publish
// also waits for any command in progress, and that command's answer check
// cannot see output arriving in the meantime. Hand slow work to another
// goroutine.
func (m *Modem) OnMessage(topic string, h urc.Handler) {
	m.handlers.Register(topic, h)
}

// Topics lists the topics with a registered handler.
func (m *Modem) Topics() []string {
	return m.handlers.Topics()
}

// Close shuts down the modem and releases all resources.
// It stops the event loop, closes the transport connection, and marks
// the modem as closed. After calling Close(), the modem cannot be reused.
func (m *Modem) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrAlreadyClosed
	}

	// Stop the Loop if it's running
	m.loopMu.Lock()
	if m.loopCancel != nil {
		m.loopCancel()
	}
	m.loopMu.Unlock()

	if m.transport != nil {
		return m.transport.Close()
	}

	return nil
}
