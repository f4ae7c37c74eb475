package modem

import (
	"log/slog"
	"time"
)

// DefaultMaxBufferSize bounds the receive buffer when no size is configured.
const DefaultMaxBufferSize = 4096

// Timings holds the fixed pause after each command before its outcome is
// read. Zero fields take the values of DefaultTimings.
type Timings struct {
	// Probe follows the plain "AT" check.
	Probe time.Duration
	// StationMode follows AT+CWMODE=1.
	StationMode time.Duration
	// JoinAP follows AT+CWJAP=... while the station associates.
	JoinAP time.Duration
	// QueryAP follows the AT+CWJAP? check.
	QueryAP time.Duration
	// MQTTUserConfig follows AT+MQTTUSERCFG.
	MQTTUserConfig time.Duration
	// MQTTConnect follows AT+MQTTCONN.
	MQTTConnect time.Duration
	// Subscribe follows AT+MQTTSUB.
	Subscribe time.Duration
	// Publish follows AT+MQTTPUB.
	Publish time.Duration
}

// DefaultTimings returns the pauses the ESP-AT firmware needs in practice.
func DefaultTimings() Timings {
	return Timings{
		Probe:          500 * time.Millisecond,
		StationMode:    500 * time.Millisecond,
		JoinAP:         6 * time.Second,
		QueryAP:        time.Second,
		MQTTUserConfig: 2 * time.Second,
		MQTTConnect:    2 * time.Second,
		Subscribe:      time.Second,
		Publish:        200 * time.Millisecond,
	}
}

func (t *Timings) setDefaults() {
	d := DefaultTimings()
	fill := func(v *time.Duration, def time.Duration) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&t.Probe, d.Probe)
	fill(&t.StationMode, d.StationMode)
	fill(&t.JoinAP, d.JoinAP)
	fill(&t.QueryAP, d.QueryAP)
	fill(&t.MQTTUserConfig, d.MQTTUserConfig)
	fill(&t.MQTTConnect, d.MQTTConnect)
	fill(&t.Subscribe, d.Subscribe)
	fill(&t.Publish, d.Publish)
}

// Config holds the settings of a Modem. Build one with NewConfigBuilder.
type Config struct {
	dialer  Dialer
	sleeper Sleeper
	logger  *slog.Logger
	timings Timings

	// maxBufferSize bounds the receive buffer in bytes.
	maxBufferSize int
	// chunkLocalUTF8 decodes every transport chunk on its own instead of
	// carrying split multi-byte sequences into the next chunk.
	chunkLocalUTF8 bool
	// holdPartial keeps an unterminated notification in the buffer instead
	// of extracting it up to the end of the buffer.
	holdPartial bool
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.sleeper == nil {
		c.sleeper = ClockSleeper{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.maxBufferSize <= 0 {
		c.maxBufferSize = DefaultMaxBufferSize
	}
	c.timings.setDefaults()
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder with all defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets how the transport is opened. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithSleeper replaces the wall clock used for command pauses.
func (b *ConfigBuilder) WithSleeper(s Sleeper) *ConfigBuilder {
	b.config.sleeper = s
	return b
}

// WithLogger sets the logger. Defaults to slog.Default().
func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

// WithTimings overrides command pauses. Zero fields keep their default.
func (b *ConfigBuilder) WithTimings(t Timings) *ConfigBuilder {
	b.config.timings = t
	return b
}

// WithMaxBufferSize bounds the receive buffer in bytes.
func (b *ConfigBuilder) WithMaxBufferSize(n int) *ConfigBuilder {
	b.config.maxBufferSize = n
	return b
}

// WithChunkLocalUTF8 makes every chunk decode on its own, so a multi-byte
// sequence split between two reads turns into placeholders.
func (b *ConfigBuilder) WithChunkLocalUTF8(on bool) *ConfigBuilder {
	b.config.chunkLocalUTF8 = on
	return b
}

// WithHoldPartial keeps unterminated notifications buffered until their
// CRLF arrives.
func (b *ConfigBuilder) WithHoldPartial(on bool) *ConfigBuilder {
	b.config.holdPartial = on
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
