package console

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/atmqtt/modem"
)

type publishCall struct {
	topic, data string
}

type subscribeCall struct {
	topic string
	qos   int
}

type fakeBridge struct {
	published  []publishCall
	subscribed []subscribeCall
	status     modem.Status
	topics     []string
	err        error
}

func (b *fakeBridge) Publish(_ context.Context, topic, data string) error {
	b.published = append(b.published, publishCall{topic, data})
	return b.err
}

func (b *fakeBridge) Subscribe(_ context.Context, topic string, qos int) error {
	b.subscribed = append(b.subscribed, subscribeCall{topic, qos})
	return b.err
}

func (b *fakeBridge) Status() modem.Status { return b.status }

func (b *fakeBridge) Topics() []string { return b.topics }

func newTestConsole(b *fakeBridge) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return &Console{bridge: b, out: &out}, &out
}

func TestExecutePublish(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []publishCall
		output   string
	}{
		{
			name:     "payload keeps spaces",
			line:     "publish home/msg hello  world",
			expected: []publishCall{{"home/msg", "hello  world"}},
			output:   "Published to home/msg",
		},
		{
			name:     "alias and empty payload",
			line:     "pub home/ping",
			expected: []publishCall{{"home/ping", ""}},
			output:   "Published to home/ping",
		},
		{
			name:   "missing topic",
			line:   "publish",
			output: "Usage: publish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBridge{}
			c, out := newTestConsole(b)

			assert.True(t, c.Execute(context.Background(), tt.line))
			assert.Equal(t, tt.expected, b.published)
			assert.Contains(t, out.String(), tt.output)
		})
	}
}

func TestExecuteSubscribe(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []subscribeCall
		output   string
	}{
		{name: "default qos", line: "subscribe home/#", expected: []subscribeCall{{"home/#", 0}}, output: "Subscribed to home/# (QoS 0)"},
		{name: "explicit qos", line: "sub home/temp 1", expected: []subscribeCall{{"home/temp", 1}}, output: "(QoS 1)"},
		{name: "bad qos", line: "subscribe t x", output: "Invalid QoS"},
		{name: "no topic", line: "subscribe", output: "Usage: subscribe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBridge{}
			c, out := newTestConsole(b)

			assert.True(t, c.Execute(context.Background(), tt.line))
			assert.Equal(t, tt.expected, b.subscribed)
			assert.Contains(t, out.String(), tt.output)
		})
	}
}

func TestExecuteReportsErrors(t *testing.T) {
	b := &fakeBridge{err: errors.New("modem gone")}
	c, out := newTestConsole(b)

	c.Execute(context.Background(), "publish t x")
	c.Execute(context.Background(), "subscribe t")

	assert.Contains(t, out.String(), "Publish failed: modem gone")
	assert.Contains(t, out.String(), "Subscribe failed: modem gone")
}

func TestExecuteStatus(t *testing.T) {
	b := &fakeBridge{status: modem.Status{Serial: true, WiFi: true, State: modem.StateIdle}}
	c, out := newTestConsole(b)

	require.True(t, c.Execute(context.Background(), "status"))
	assert.Contains(t, out.String(), "Serial: ready")
	assert.Contains(t, out.String(), "MQTT:   not ready")
	assert.Contains(t, out.String(), "State:  idle")
}

func TestExecuteTopics(t *testing.T) {
	b := &fakeBridge{}
	c, out := newTestConsole(b)

	c.Execute(context.Background(), "topics")
	assert.Contains(t, out.String(), "No subscriptions")

	out.Reset()
	b.topics = []string{"a", "b"}
	c.Execute(context.Background(), "topics")
	assert.Equal(t, "  a\n  b\n", out.String())
}

func TestExecuteMisc(t *testing.T) {
	b := &fakeBridge{}
	c, out := newTestConsole(b)

	assert.True(t, c.Execute(context.Background(), "   "))
	assert.Empty(t, out.String())

	assert.True(t, c.Execute(context.Background(), "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	assert.True(t, c.Execute(context.Background(), "HELP"))
	assert.Contains(t, out.String(), "publish <topic> <data>")

	assert.False(t, c.Execute(context.Background(), "exit"))
	assert.False(t, c.Execute(context.Background(), "q"))
}
