package readiness

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff is a capped exponential delay.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

func (b Backoff) initial() time.Duration {
	if b.Initial <= 0 {
		return time.Second
	}
	return b.Initial
}

// Next returns the delay following d.
func (b Backoff) Next(d time.Duration) time.Duration {
	f := b.Factor
	if f < 1 {
		f = 2
	}
	next := time.Duration(float64(d) * f)
	if b.Max > 0 && next > b.Max {
		return b.Max
	}
	return next
}

// Probe is one readiness check against a running service.
type Probe interface {
	Name() string
	Check(ctx context.Context) error
}

// Poll retries probe with backoff until it passes or timeout elapses.
func Poll(ctx context.Context, probe Probe, b Backoff, timeout time.Duration, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := b.initial()
	attempt := 0
	for {
		attempt++
		err := probe.Check(ctx)
		if err == nil {
			log.Info("probe passed", "probe", probe.Name(), "attempts", attempt)
			return nil
		}
		log.Debug("probe not ready", "probe", probe.Name(), "attempt", attempt, "err", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("%w: probe %s: %v", ErrTimeout, probe.Name(), err)
			}
			return ctx.Err()
		case <-t.C:
		}
		delay = b.Next(delay)
	}
}
