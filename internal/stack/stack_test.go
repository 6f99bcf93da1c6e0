package stack

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/moby/moby/client"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLayout(dir string) Layout {
	return Layout{
		Dir:     dir,
		DataDir: dir + "/data",
		EnvFile: dir + "/.env",
		Project: "nextcloud",
	}
}

// fakeRunner records every invocation and answers from a table keyed by
// the joined command line.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	outputs map[string]string
	fail    map[string]error
	piped   string
}

func (r *fakeRunner) record(name string, args []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	r.calls = append(r.calls, line)
	for prefix, err := range r.fail {
		if strings.Contains(line, prefix) {
			return r.outputs[prefix], err
		}
	}
	for prefix, out := range r.outputs {
		if strings.Contains(line, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	_, err := r.record(name, args)
	return err
}

func (r *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	return r.record(name, args)
}

func (r *fakeRunner) Pipe(_ context.Context, w io.Writer, name string, args ...string) error {
	if _, err := r.record(name, args); err != nil {
		return err
	}
	_, err := io.WriteString(w, r.piped)
	return err
}

// fakeNetworks answers inspect from a queue of errors; a nil entry means
// the network exists.
type fakeNetworks struct {
	inspectErrs []error
	createErr   error
	inspects    int
	created     []client.NetworkCreateOptions
}

func (f *fakeNetworks) NetworkInspect(context.Context, string, client.NetworkInspectOptions) (client.NetworkInspectResult, error) {
	f.inspects++
	if len(f.inspectErrs) == 0 {
		return client.NetworkInspectResult{}, nil
	}
	err := f.inspectErrs[0]
	f.inspectErrs = f.inspectErrs[1:]
	return client.NetworkInspectResult{}, err
}

func (f *fakeNetworks) NetworkCreate(_ context.Context, _ string, opts client.NetworkCreateOptions) (client.NetworkCreateResult, error) {
	f.created = append(f.created, opts)
	if f.createErr != nil {
		return client.NetworkCreateResult{}, f.createErr
	}
	return client.NetworkCreateResult{ID: "net1"}, nil
}

type fakePing struct{ err error }

func (f fakePing) Ping(context.Context, client.PingOptions) (client.PingResult, error) {
	return client.PingResult{}, f.err
}

var errBoom = errors.New("boom")

func logBuffer() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

