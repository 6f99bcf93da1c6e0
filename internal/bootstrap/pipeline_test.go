package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomorrowflow/nextcloud-compose/internal/configure"
	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
	"github.com/tomorrowflow/nextcloud-compose/internal/readiness"
	"github.com/tomorrowflow/nextcloud-compose/internal/stack"
)

// stages implements every stage interface and records the call order.
type stages struct {
	order []string

	preflightErr error
	collectErr   error
	waitErr      error
	report       configure.Report
	rendered     envfile.Record
}

func (s *stages) Preflight(context.Context) error {
	s.order = append(s.order, "preflight")
	return s.preflightErr
}

func (s *stages) Collect(context.Context) (envfile.Record, error) {
	s.order = append(s.order, "collect")
	rec := envfile.New()
	rec.Set(envfile.Domain, "cloud.example.com")
	return rec, s.collectErr
}

func (s *stages) Provision(context.Context) error {
	s.order = append(s.order, "provision")
	return nil
}

func (s *stages) Render(rec envfile.Record) error {
	s.order = append(s.order, "render")
	s.rendered = rec
	return nil
}

func (s *stages) Launch(context.Context) error {
	s.order = append(s.order, "launch")
	return nil
}

func (s *stages) Wait(context.Context) (readiness.Result, error) {
	s.order = append(s.order, "wait")
	if s.waitErr != nil {
		return readiness.Result{State: readiness.TimedOut}, s.waitErr
	}
	return readiness.Result{State: readiness.Found, Line: "Initializing finished"}, nil
}

func (s *stages) Configure(context.Context, envfile.Record) (configure.Report, error) {
	s.order = append(s.order, "configure")
	return s.report, nil
}

type okProbe struct{ s *stages }

func (p okProbe) Name() string { return "ok" }

func (p okProbe) Check(context.Context) error {
	p.s.order = append(p.s.order, "probe")
	return nil
}

func newPipeline(s *stages, logs *bytes.Buffer) *Pipeline {
	return &Pipeline{
		Preflight:    s,
		Collect:      s,
		Provision:    s,
		Render:       s,
		Launch:       s,
		Monitor:      s,
		Configure:    s,
		Probes:       func() []readiness.Probe { return []readiness.Probe{okProbe{s}} },
		ProbeBackoff: readiness.Backoff{Initial: time.Millisecond},
		ProbeTimeout: time.Second,
		Log:          slog.New(slog.NewTextHandler(logs, nil)),
	}
}

func TestRun_StageOrder(t *testing.T) {
	s := &stages{}
	var logs bytes.Buffer
	p := newPipeline(s, &logs)

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"preflight", "collect", "provision", "render", "launch", "wait", "probe", "configure"}, s.order)
	assert.Equal(t, "cloud.example.com", s.rendered.Get(envfile.Domain))
	assert.NotEmpty(t, p.RunID)
	assert.Contains(t, logs.String(), "run="+p.RunID)
}

func TestRun_PreconditionIsFatal(t *testing.T) {
	s := &stages{preflightErr: fmt.Errorf("%w: docker binary", stack.ErrPrecondition)}
	var logs bytes.Buffer

	err := newPipeline(s, &logs).Run(context.Background())
	require.ErrorIs(t, err, stack.ErrPrecondition)
	assert.Equal(t, []string{"preflight"}, s.order)
}

func TestRun_TimeoutIsFatal(t *testing.T) {
	s := &stages{waitErr: fmt.Errorf("%w: not seen", readiness.ErrTimeout)}
	var logs bytes.Buffer

	err := newPipeline(s, &logs).Run(context.Background())
	require.ErrorIs(t, err, readiness.ErrTimeout)
	assert.NotContains(t, s.order, "configure")
	assert.NotContains(t, s.order, "probe")
	assert.Contains(t, logs.String(), "TIMED_OUT")
}

func TestRun_FailedConfigureCommandStillSucceeds(t *testing.T) {
	s := &stages{report: configure.Report{
		Succeeded: []string{"occ background:cron"},
		Failed:    []configure.Failure{{Step: "occ app:enable notify_push", Err: errors.New("exit status 1")}},
	}}
	var logs bytes.Buffer

	p := newPipeline(s, &logs)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "configure", s.order[len(s.order)-1])
	assert.Len(t, p.Report.Failed, 1)
}

func TestRun_CollectError(t *testing.T) {
	s := &stages{collectErr: errors.New("prompt aborted")}
	var logs bytes.Buffer

	err := newPipeline(s, &logs).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"preflight", "collect"}, s.order)
}

func TestRun_ProgressWrapsWait(t *testing.T) {
	s := &stages{}
	var logs bytes.Buffer
	p := newPipeline(s, &logs)
	var labels []string
	p.Progress = func(ctx context.Context, label string, work func(context.Context) error) error {
		labels = append(labels, label)
		return work(ctx)
	}

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, labels, 1)
}

func TestUp_RequiresRecord(t *testing.T) {
	s := &stages{}
	var logs bytes.Buffer
	p := newPipeline(s, &logs)
	p.EnvFile = filepath.Join(t.TempDir(), ".env")

	require.ErrorIs(t, p.Up(context.Background()), stack.ErrPrecondition)
	assert.Equal(t, []string{"preflight"}, s.order)
}

func TestUp_UsesStoredRecord(t *testing.T) {
	s := &stages{}
	var logs bytes.Buffer
	p := newPipeline(s, &logs)
	p.EnvFile = filepath.Join(t.TempDir(), ".env")
	rec := envfile.New()
	rec.Set(envfile.Domain, "files.example.org")
	require.NoError(t, envfile.Write(p.EnvFile, rec))

	require.NoError(t, p.Up(context.Background()))
	assert.Equal(t, []string{"preflight", "provision", "render", "launch"}, s.order)
	assert.Equal(t, "files.example.org", s.rendered.Get(envfile.Domain))
}

func TestSubcommands(t *testing.T) {
	dir := t.TempDir()
	rec := envfile.New()
	rec.Set(envfile.Domain, "cloud.example.com")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, envfile.Write(envPath, rec))

	s := &stages{}
	var logs bytes.Buffer
	p := newPipeline(s, &logs)
	p.EnvFile = envPath

	require.NoError(t, p.Env(context.Background()))
	require.NoError(t, p.Wait(context.Background()))
	require.NoError(t, p.Reconfigure(context.Background()))
	assert.Equal(t, []string{"collect", "wait", "probe", "configure"}, s.order)
}
