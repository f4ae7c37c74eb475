// Package console provides the interactive command line for the bridge.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"i4.energy/across/atmqtt/modem"
)

// Bridge is what the console operates on.
type Bridge interface {
	Publish(ctx context.Context, topic, data string) error
	Subscribe(ctx context.Context, topic string, qos int) error
	Status() modem.Status
	Topics() []string
}

// Console handles interactive mode.
type Console struct {
	bridge Bridge
	rl     *readline.Instance
	out    io.Writer
}

// New creates a console reading from the terminal.
func New(bridge Bridge) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "atmqtt> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{bridge: bridge, rl: rl, out: rl.Stdout()}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the command loop. It calls cancel when the user exits.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the user asked to
// leave.
func (c *Console) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		c.printHelp()

	case "publish", "pub", "p":
		c.cmdPublish(ctx, rest)

	case "subscribe", "sub", "s":
		c.cmdSubscribe(ctx, rest)

	case "status":
		c.cmdStatus()

	case "topics":
		c.cmdTopics()

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}

	return true
}

// cmdPublish sends everything after the topic as the payload, spaces
// included.
func (c *Console) cmdPublish(ctx context.Context, args string) {
	topic, data, _ := strings.Cut(args, " ")
	if topic == "" {
		fmt.Fprintln(c.out, "Usage: publish <topic> <data>")
		return
	}

	if err := c.bridge.Publish(ctx, topic, strings.TrimSpace(data)); err != nil {
		fmt.Fprintf(c.out, "Publish failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Published to %s\n", topic)
}

func (c *Console) cmdSubscribe(ctx context.Context, args string) {
	parts := strings.Fields(args)
	if len(parts) == 0 || len(parts) > 2 {
		fmt.Fprintln(c.out, "Usage: subscribe <topic> [qos]")
		return
	}

	qos := 0
	if len(parts) == 2 {
		v, err := strconv.Atoi(parts[1])
		if err != nil {
			fmt.Fprintf(c.out, "Invalid QoS %q\n", parts[1])
			return
		}
		qos = v
	}

	if err := c.bridge.Subscribe(ctx, parts[0], qos); err != nil {
		fmt.Fprintf(c.out, "Subscribe failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Subscribed to %s (QoS %d)\n", parts[0], qos)
}

func (c *Console) cmdStatus() {
	s := c.bridge.Status()
	fmt.Fprintf(c.out, "Serial: %s\n", mark(s.Serial))
	fmt.Fprintf(c.out, "Wi-Fi:  %s\n", mark(s.WiFi))
	fmt.Fprintf(c.out, "MQTT:   %s\n", mark(s.MQTT))
	fmt.Fprintf(c.out, "State:  %s\n", s.State)
}

func (c *Console) cmdTopics() {
	topics := c.bridge.Topics()
	if len(topics) == 0 {
		fmt.Fprintln(c.out, "No subscriptions")
		return
	}
	for _, t := range topics {
		fmt.Fprintf(c.out, "  %s\n", t)
	}
}

func mark(ok bool) string {
	if ok {
		return "ready"
	}
	return "not ready"
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Commands:
  publish <topic> <data>   - Publish data through the modem (QoS 1)
  subscribe <topic> [qos]  - Subscribe and log incoming messages
  topics                   - List topics with a handler
  status                   - Show modem initialisation state
  help                     - Show this help
  exit                     - Leave the console`)
}
