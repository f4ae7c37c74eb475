package modem

//go:generate go tool mockgen -source=sleeper.go -destination=mock_sleeper.go -package=modem

import (
	"context"
	"time"
)

// Sleeper provides the fixed pauses between writing a command and checking
// what the modem answered.
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, whichever comes first. It
	// returns ctx.Err() when the wait was cut short.
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockSleeper sleeps on the wall clock.
type ClockSleeper struct{}

// Sleep implements Sleeper.
func (ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep implements Sleeper.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}
