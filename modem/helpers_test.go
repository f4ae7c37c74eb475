package modem_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"i4.energy/across/atmqtt/modem"
)

// MockSequenceBuilder collects the Write and Sleep expectations of a
// command sequence. A reply given for a command is fed to the modem
// while it waits, the way Loop would deliver it.
type MockSequenceBuilder struct {
	transport *modem.MockTransport
	sleeper   *modem.MockSleeper
	modem     *modem.Modem
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport, sleeper *modem.MockSleeper) *MockSequenceBuilder {
	return &MockSequenceBuilder{transport: transport, sleeper: sleeper}
}

// Attach sets the modem that receives replies. Call it before running the
// commands.
func (b *MockSequenceBuilder) Attach(m *modem.Modem) {
	b.modem = m
}

// Command expects cmd on the wire followed by a pause of d.
func (b *MockSequenceBuilder) Command(cmd string, d time.Duration, reply string) *MockSequenceBuilder {
	wire := []byte(cmd + "\r\n")
	b.calls = append(b.calls,
		b.transport.EXPECT().Write(wire).Return(len(wire), nil),
		b.sleeper.EXPECT().Sleep(gomock.Any(), d).DoAndReturn(func(ctx context.Context, _ time.Duration) error {
			if reply != "" {
				b.modem.Process([]byte(reply))
			}
			return nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT(ok bool) *MockSequenceBuilder {
	return b.Command("AT", 500*time.Millisecond, answer(ok))
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}

func answer(ok bool) string {
	if ok {
		return "\r\nOK\r\n"
	}
	return "\r\nERROR\r\n"
}

type mockModem struct {
	*modem.Modem
	transport *modem.MockTransport
	sleeper   *modem.MockSleeper
}

// newMockModem builds a modem over a mocked transport and sleeper. The
// transport is expected to be closed during cleanup, which runs before the
// controller's own Finish, so callers must not defer ctrl.Finish().
func newMockModem(t *testing.T, ctrl *gomock.Controller, opts ...func(*modem.ConfigBuilder)) *mockModem {
	t.Helper()

	mockTransport := modem.NewMockTransport(ctrl)
	mockDialer := modem.NewMockDialer(ctrl)
	mockSleeper := modem.NewMockSleeper(ctrl)

	mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil)

	builder := modem.NewConfigBuilder().
		WithDialer(mockDialer).
		WithSleeper(mockSleeper)
	for _, opt := range opts {
		opt(builder)
	}
	config, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := modem.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}

	mockTransport.EXPECT().Close().Return(nil)
	t.Cleanup(func() { _ = m.Close() })

	return &mockModem{Modem: m, transport: mockTransport, sleeper: mockSleeper}
}

// sequence starts a builder attached to mm.
func (mm *mockModem) sequence() *MockSequenceBuilder {
	b := NewMockSequence(mm.transport, mm.sleeper)
	b.Attach(mm.Modem)
	return b
}

// recorder collects handler invocations.
type recorder struct {
	calls []string
}

func (r *recorder) handle(payload string) {
	r.calls = append(r.calls, payload)
}
