package modem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/atmqtt/at"
)

// MQTTSettings describes the broker connection set up by InitMQTT.
type MQTTSettings struct {
	Server   string
	Port     int
	ClientID string
	Username string
	Password string
}

// InitSerial checks that the modem answers a plain "AT" with OK.
//
// The outcome is also kept for SerialInitialized. Every other command
// runs InitSerial first for as long as it has not succeeded.
func (m *Modem) InitSerial(ctx context.Context) (bool, error) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()
	return m.initSerial(ctx)
}

func (m *Modem) initSerial(ctx context.Context) (bool, error) {
	m.beginAwait()
	defer m.endAwait()

	m.resetBuffer()
	if err := m.run(ctx, at.CmdAt, m.config.timings.Probe); err != nil {
		return false, err
	}

	ok := m.bufferHasOK()
	if ok {
		m.serialReady.Store(true)
		m.resetBuffer()
	}
	m.logOutcome("serial", ok)
	return ok, nil
}

// ensureSerial runs the serial check unless it already succeeded. The
// caller holds cmdMu.
func (m *Modem) ensureSerial(ctx context.Context) error {
	if m.serialReady.Load() {
		return nil
	}
	_, err := m.initSerial(ctx)
	return err
}

// InitWiFi switches the modem to station mode, joins the access point and
// then asks the modem whether it is associated. It reports whether that
// query answered OK; the outcome is also kept for WiFiInitialized.
func (m *Modem) InitWiFi(ctx context.Context, ssid, password string) (bool, error) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if err := m.ensureSerial(ctx); err != nil {
		return false, err
	}

	if err := m.run(ctx, at.CmdStationMode, m.config.timings.StationMode); err != nil {
		return false, err
	}
	if err := m.run(ctx, at.JoinAP(ssid, password), m.config.timings.JoinAP); err != nil {
		return false, err
	}

	m.beginAwait()
	defer m.endAwait()

	m.resetBuffer()
	if err := m.run(ctx, at.CmdQueryAP, m.config.timings.QueryAP); err != nil {
		return false, err
	}

	ok := m.bufferHasOK()
	m.wifiReady.Store(ok)
	m.logOutcome("wifi", ok, "ssid", ssid)
	return ok, nil
}

// InitMQTT configures the MQTT client identity and connects to the broker.
// Both commands must answer OK for the stage to succeed; the outcome is
// also kept for MQTTInitialized.
func (m *Modem) InitMQTT(ctx context.Context, s MQTTSettings) (bool, error) {
	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if err := m.ensureSerial(ctx); err != nil {
		return false, err
	}

	m.beginAwait()
	defer m.endAwait()

	m.resetBuffer()
	if err := m.run(ctx, at.MQTTUserConfig(s.ClientID, s.Username, s.Password), m.config.timings.MQTTUserConfig); err != nil {
		return false, err
	}
	configured := m.bufferHasOK()

	m.resetBuffer()
	if err := m.run(ctx, at.MQTTConnect(s.Server, s.Port), m.config.timings.MQTTConnect); err != nil {
		return false, err
	}
	connected := m.bufferHasOK()

	ok := configured && connected
	m.mqttReady.Store(ok)
	m.logOutcome("mqtt", ok, "server", s.Server, "port", s.Port, "user_config", configured, "connect", connected)
	return ok, nil
}

// Subscribe asks the modem to subscribe to topic. The modem's answer is not
// checked; messages arrive through the handler registered with OnMessage.
func (m *Modem) Subscribe(ctx context.Context, topic string, qos int) error {
	if err := ValidateSubscription(topic, qos); err != nil {
		return err
	}

	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if err := m.ensureSerial(ctx); err != nil {
		return err
	}
	return m.run(ctx, at.MQTTSubscribe(topic, qos), m.config.timings.Subscribe)
}

// ValidateSubscription reports whether Subscribe would accept topic and qos.
func ValidateSubscription(topic string, qos int) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos < 0 || qos > 2 {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}
	return nil
}

// Publish sends data to topic with QoS 1, not retained. The modem's answer
// is not checked.
func (m *Modem) Publish(ctx context.Context, topic, data string) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	m.cmdMu.Lock()
	defer m.cmdMu.Unlock()

	if err := m.ensureSerial(ctx); err != nil {
		return err
	}
	return m.run(ctx, at.MQTTPublish(topic, data), m.config.timings.Publish)
}

// SerialInitialized reports whether the last serial check saw OK.
func (m *Modem) SerialInitialized() bool {
	return m.serialReady.Load()
}

// WiFiInitialized reports whether the last Wi-Fi check saw OK.
func (m *Modem) WiFiInitialized() bool {
	return m.wifiReady.Load()
}

// MQTTInitialized reports whether both MQTT setup commands saw OK.
func (m *Modem) MQTTInitialized() bool {
	return m.mqttReady.Load()
}

// run writes cmd and waits for d.
func (m *Modem) run(ctx context.Context, cmd string, d time.Duration) error {
	if err := m.send(cmd); err != nil {
		return err
	}
	if err := m.config.sleeper.Sleep(ctx, d); err != nil {
		return fmt.Errorf("waiting after %s: %w", commandName(cmd), err)
	}
	return nil
}

// send writes a single command line terminated by CRLF.
func (m *Modem) send(cmd string) error {
	if m.closed.Load() {
		return ErrAlreadyClosed
	}
	if m.transport == nil {
		return ErrNotInitialized
	}

	wire := cmd + at.CRLF
	if _, err := m.transport.Write([]byte(wire)); err != nil {
		return fmt.Errorf("write command %s: %w", commandName(cmd), err)
	}
	m.log.Debug("Sent command", "command", commandName(cmd))
	return nil
}

func (m *Modem) beginAwait() {
	m.mu.Lock()
	m.state = StateAwaitingResponse
	m.mu.Unlock()
}

func (m *Modem) endAwait() {
	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
}

func (m *Modem) resetBuffer() {
	m.mu.Lock()
	m.buf = ""
	m.mu.Unlock()
}

func (m *Modem) bufferHasOK() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Contains(m.buf, at.OK)
}

func (m *Modem) logOutcome(stage string, ok bool, args ...any) {
	args = append([]any{"stage", stage, "ok", ok}, args...)
	if ok {
		m.log.Info("Modem stage initialized", args...)
		return
	}
	m.log.Warn("Modem stage did not answer OK", args...)
}

// commandName strips the arguments from cmd so credentials never reach the
// logs or error messages.
func commandName(cmd string) string {
	name, _, _ := strings.Cut(cmd, "=")
	return name
}
