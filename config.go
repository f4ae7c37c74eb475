package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the HTTP API listens on (e.g. "0.0.0.0:8080").
	// An empty address disables the API.
	BindAddress string `yaml:"bind_address"`
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// MaxBufferSize bounds the modem receive buffer in bytes.
	MaxBufferSize int `yaml:"max_buffer_size"`

	WiFi          WiFiConfig     `yaml:"wifi"`
	MQTT          MQTTConfig     `yaml:"mqtt"`
	Subscriptions []Subscription `yaml:"subscriptions"`
	Relay         RelayConfig    `yaml:"relay"`

	// Console starts the interactive command line.
	Console bool `yaml:"console"`
}

// WiFiConfig is the access point the modem joins. Without an SSID the
// Wi-Fi stage is skipped.
type WiFiConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// MQTTConfig is the broker the modem connects to. Without a server the
// MQTT stage is skipped.
type MQTTConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Subscription is a topic subscribed at startup.
type Subscription struct {
	Topic string `yaml:"topic"`
	QoS   int    `yaml:"qos"`
}

// RelayConfig is the upstream broker received messages are copied to.
// Without a broker the relay is off.
type RelayConfig struct {
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order.
// A missing MQTT client id is generated afterwards.
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = "atmqtt-" + uuid.NewString()
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.MaxBufferSize = 4096
		c.MQTT.Port = 1883
		return nil
	}
}

// WithFile loads configuration from a YAML file. Keys absent from the file
// keep their current value. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}

		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		setString(&c.BindAddress, os.Getenv("BIND_ADDRESS"))
		setString(&c.SerialPort, os.Getenv("SERIAL_PORT"))
		setInt(&c.BaudRate, os.Getenv("BAUD_RATE"))
		setString(&c.LogLevel, os.Getenv("LOG_LEVEL"))
		setInt(&c.MaxBufferSize, os.Getenv("MAX_BUFFER_SIZE"))

		setString(&c.WiFi.SSID, os.Getenv("WIFI_SSID"))
		setString(&c.WiFi.Password, os.Getenv("WIFI_PASSWORD"))

		setString(&c.MQTT.Server, os.Getenv("MQTT_SERVER"))
		setInt(&c.MQTT.Port, os.Getenv("MQTT_PORT"))
		setString(&c.MQTT.ClientID, os.Getenv("MQTT_CLIENT_ID"))
		setString(&c.MQTT.Username, os.Getenv("MQTT_USERNAME"))
		setString(&c.MQTT.Password, os.Getenv("MQTT_PASSWORD"))

		if subs := os.Getenv("SUBSCRIPTIONS"); subs != "" {
			c.Subscriptions = parseSubscriptions(subs)
		}

		setString(&c.Relay.Broker, os.Getenv("RELAY_BROKER"))
		setString(&c.Relay.Username, os.Getenv("RELAY_USERNAME"))
		setString(&c.Relay.Password, os.Getenv("RELAY_PASSWORD"))
		setString(&c.Relay.TopicPrefix, os.Getenv("RELAY_TOPIC_PREFIX"))

		if console := os.Getenv("CONSOLE"); console != "" {
			if b, err := strconv.ParseBool(console); err == nil {
				c.Console = b
			}
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			v := f.Value.String()
			switch f.Name {
			case "bind-address":
				c.BindAddress = v
			case "serial-port":
				c.SerialPort = v
			case "baud-rate":
				setInt(&c.BaudRate, v)
			case "log-level":
				c.LogLevel = v
			case "max-buffer-size":
				setInt(&c.MaxBufferSize, v)
			case "wifi-ssid":
				c.WiFi.SSID = v
			case "wifi-password":
				c.WiFi.Password = v
			case "mqtt-server":
				c.MQTT.Server = v
			case "mqtt-port":
				setInt(&c.MQTT.Port, v)
			case "mqtt-client-id":
				c.MQTT.ClientID = v
			case "mqtt-username":
				c.MQTT.Username = v
			case "mqtt-password":
				c.MQTT.Password = v
			case "subscribe":
				c.Subscriptions = parseSubscriptions(v)
			case "relay-broker":
				c.Relay.Broker = v
			case "relay-topic-prefix":
				c.Relay.TopicPrefix = v
			case "console":
				if b, err := strconv.ParseBool(v); err == nil {
					c.Console = b
				}
			}
		})
		return nil
	}
}

// parseSubscriptions reads a comma separated list of "topic[:qos]".
// Entries whose QoS is not a number keep the whole entry as the topic.
func parseSubscriptions(s string) []Subscription {
	var subs []Subscription
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		sub := Subscription{Topic: entry}
		if i := strings.LastIndex(entry, ":"); i >= 0 {
			if qos, err := strconv.Atoi(entry[i+1:]); err == nil {
				sub = Subscription{Topic: entry[:i], QoS: qos}
			}
		}
		subs = append(subs, sub)
	}
	return subs
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v string) {
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
