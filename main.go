package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"i4.energy/across/atmqtt/console"
	"i4.energy/across/atmqtt/modem"
	"i4.energy/across/atmqtt/relay"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port to connect to the modem")
	flag.Int("baud-rate", 115200, "Baud rate for serial communication")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server (empty to disable)")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Int("max-buffer-size", 4096, "Modem receive buffer limit in bytes")
	flag.String("wifi-ssid", "", "Access point the modem joins")
	flag.String("wifi-password", "", "Access point password")
	flag.String("mqtt-server", "", "MQTT broker the modem connects to")
	flag.Int("mqtt-port", 1883, "MQTT broker port")
	flag.String("mqtt-client-id", "", "MQTT client id (generated when empty)")
	flag.String("mqtt-username", "", "MQTT username")
	flag.String("mqtt-password", "", "MQTT password")
	flag.String("subscribe", "", "Comma separated topic[:qos] list to subscribe at startup")
	flag.String("relay-broker", "", "Upstream broker URL received messages are copied to")
	flag.String("relay-topic-prefix", "", "Topic prefix for relayed messages")
	flag.Bool("console", false, "Start the interactive console")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b := &bridge{}

	// The console owns the terminal, so logs go through its writer.
	var logOut io.Writer = os.Stderr
	var con *console.Console
	if config.Console {
		con, err = console.New(b)
		if err != nil {
			slog.Error("Failed to start console", "error", err)
			os.Exit(1)
		}
		logOut = con.Stderr()
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	b.logger = logger

	modemConfig, err := modem.NewConfigBuilder().
		WithLogger(logger).
		WithMaxBufferSize(config.MaxBufferSize).
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		Build()
	if err != nil {
		logger.Error("Failed to create modem config", "error", err)
		os.Exit(1)
	}

	m, err := modem.New(ctx, modemConfig)
	if err != nil {
		logger.Error("Failed to create modem", "error", err)
		os.Exit(1)
	}
	b.modem = m

	if config.Relay.Broker != "" {
		r, err := relay.Connect(relay.Config{
			Broker:      config.Relay.Broker,
			ClientID:    config.MQTT.ClientID + "-relay",
			Username:    config.Relay.Username,
			Password:    config.Relay.Password,
			TopicPrefix: config.Relay.TopicPrefix,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Failed to connect relay", "error", err, "broker", config.Relay.Broker)
			os.Exit(1)
		}
		defer r.Close()
		b.startRelay(ctx, r)
	}

	logger.Info("Starting AT/MQTT bridge", "serial_port", config.SerialPort, "baud_rate", config.BaudRate)

	go func() {
		if err := m.Loop(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Modem loop stopped", "error", err)
			cancel()
		}
	}()

	if err := b.start(ctx, config); err != nil {
		logger.Error("Failed to start bridge", "error", err)
		m.Close()
		os.Exit(1)
	}

	var httpServer *http.Server
	if config.BindAddress != "" {
		httpServer = &http.Server{
			Addr: config.BindAddress,
			Handler: &Server{
				Logger: logger.With("component", "server"),
				Bridge: b,
			},
		}

		// Start HTTP server in a goroutine
		go func() {
			logger.Info("Starting HTTP server", "address", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server failed", "error", err)
				cancel()
			}
		}()
	}

	if con != nil {
		go con.Run(ctx, cancel)
	}

	<-ctx.Done()
	logger.Info("Shutting down")

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		logger.Info("Closing HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to gracefully shutdown server", "error", err)
		}
	}

	logger.Info("Closing modem connection")
	if err := m.Close(); err != nil {
		logger.Error("Failed to close modem", "error", err)
	}
}
