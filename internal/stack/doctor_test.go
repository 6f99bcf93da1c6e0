package stack

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, runner *fakeRunner, ping error, lookErr error) *Checker {
	t.Helper()
	return &Checker{
		Layout: testLayout(t.TempDir()),
		Runner: runner,
		API:    fakePing{err: ping},
		LookPath: func(name string) (string, error) {
			return "/usr/bin/" + name, lookErr
		},
		Log: testLogger(),
	}
}

func TestPreflight_OK(t *testing.T) {
	c := newTestChecker(t, &fakeRunner{}, nil, nil)
	assert.NoError(t, c.Preflight(context.Background()))
}

func TestPreflight_Failures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		ping   error
		look   error
	}{
		{name: "no docker binary", runner: &fakeRunner{}, look: errors.New("executable file not found")},
		{name: "no compose plugin", runner: &fakeRunner{fail: map[string]error{"compose version": errBoom}}},
		{name: "daemon down", runner: &fakeRunner{}, ping: errBoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestChecker(t, tt.runner, tt.ping, tt.look)
			assert.ErrorIs(t, c.Preflight(context.Background()), ErrPrecondition)
		})
	}
}

func TestPreflight_SkipsOptionalChecks(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"ss -ltn": errBoom}}
	c := newTestChecker(t, runner, nil, nil)
	require.NoError(t, c.Preflight(context.Background()))
	for _, call := range runner.calls {
		assert.NotContains(t, call, "ss -ltn")
	}
}

func TestDoctor_CountsFailuresWithoutError(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"ss -ltn": "LISTEN 0 4096 0.0.0.0:443 \n"}}
	c := newTestChecker(t, runner, errBoom, nil)
	log, buf := logBuffer()
	c.Log = log

	// daemon down, ports busy, no environment record
	assert.Equal(t, 3, c.Doctor(context.Background()))
	assert.Contains(t, buf.String(), "docker daemon")
}

func TestDoctor_LooseEnvFileMode(t *testing.T) {
	c := newTestChecker(t, &fakeRunner{}, nil, nil)
	require.NoError(t, os.WriteFile(c.Layout.EnvFile, []byte("DOMAIN=x\n"), 0o644))
	require.NoError(t, os.Chmod(c.Layout.EnvFile, 0o644))

	assert.Equal(t, 1, c.Doctor(context.Background()))
}
