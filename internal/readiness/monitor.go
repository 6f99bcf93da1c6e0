// Package readiness decides when the app container has finished its first
// start and when its dependencies answer health checks.
package readiness

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned when the deadline passes before readiness.
var ErrTimeout = errors.New("readiness deadline exceeded")

var errStreamEnded = errors.New("log stream ended")

type State int

const (
	Waiting State = iota
	Found
	TimedOut
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "WAITING"
	case Found:
		return "FOUND"
	case TimedOut:
		return "TIMED_OUT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Found || s == TimedOut }

// Result is the outcome of one Wait.
type Result struct {
	State   State
	Elapsed time.Duration
	Line    string
}

// Source opens a live log stream. Each call starts a fresh stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Monitor watches a log stream for a sentinel substring.
type Monitor struct {
	Source   Source
	Sentinel string
	Timeout  time.Duration
	// Reopen paces reconnects after the stream ends or fails to open.
	Reopen Backoff
	Log    *slog.Logger
}

// Wait blocks until the sentinel appears, the deadline passes or ctx is
// canceled. The reader goroutine has exited by the time Wait returns.
func (m *Monitor) Wait(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{State: Waiting}
	if m.Sentinel == "" {
		return res, errors.New("empty sentinel")
	}

	deadline, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	var line string
	g, gctx := errgroup.WithContext(deadline)
	g.Go(func() error {
		var err error
		line, err = m.follow(gctx)
		return err
	})
	err := g.Wait()
	res.Elapsed = time.Since(start)

	switch {
	case err == nil:
		res.State = Found
		res.Line = line
		m.Log.Debug("sentinel found", "line", line, "elapsed", res.Elapsed.Round(time.Millisecond))
		return res, nil
	case ctx.Err() != nil:
		return res, ctx.Err()
	case errors.Is(deadline.Err(), context.DeadlineExceeded):
		res.State = TimedOut
		return res, fmt.Errorf("%w: %q not seen within %s", ErrTimeout, m.Sentinel, m.Timeout)
	default:
		return res, err
	}
}

// follow reads streams until one yields the sentinel, reopening with
// backoff whenever a stream ends early.
func (m *Monitor) follow(ctx context.Context) (string, error) {
	delay := m.Reopen.initial()
	for {
		line, err := m.scan(ctx)
		if err == nil {
			return line, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		m.Log.Warn("log stream interrupted, reopening", "err", err, "retry_in", delay)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
		delay = m.Reopen.Next(delay)
	}
}

func (m *Monitor) scan(ctx context.Context) (string, error) {
	rc, err := m.Source.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("open log stream: %w", err)
	}

	var once sync.Once
	closeStream := func() { once.Do(func() { _ = rc.Close() }) }
	stop := context.AfterFunc(ctx, closeStream)
	defer func() {
		// AfterFunc may already be running closeStream; once guards it
		stop()
		closeStream()
	}()

	s := bufio.NewScanner(rc)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		if strings.Contains(s.Text(), m.Sentinel) {
			return s.Text(), nil
		}
	}
	if err := s.Err(); err != nil {
		return "", err
	}
	return "", errStreamEnded
}
