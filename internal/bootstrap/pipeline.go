// Package bootstrap runs the install stages in order, each gating the next.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tomorrowflow/nextcloud-compose/internal/configure"
	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
	"github.com/tomorrowflow/nextcloud-compose/internal/readiness"
	"github.com/tomorrowflow/nextcloud-compose/internal/stack"
	"github.com/tomorrowflow/nextcloud-compose/internal/telemetry"
)

type Preflighter interface {
	Preflight(ctx context.Context) error
}

type Collector interface {
	Collect(ctx context.Context) (envfile.Record, error)
}

type Provisioner interface {
	Provision(ctx context.Context) error
}

type Renderer interface {
	Render(rec envfile.Record) error
}

type Launcher interface {
	Launch(ctx context.Context) error
}

type Waiter interface {
	Wait(ctx context.Context) (readiness.Result, error)
}

type Configurer interface {
	Configure(ctx context.Context, rec envfile.Record) (configure.Report, error)
}

// ProgressFunc wraps a long blocking step, e.g. with a spinner.
type ProgressFunc func(ctx context.Context, label string, work func(context.Context) error) error

// Pipeline holds one value per stage. Subcommands run subsets of it.
type Pipeline struct {
	Preflight Preflighter
	Collect   Collector
	Provision Provisioner
	Render    Renderer
	Launch    Launcher
	Monitor   Waiter
	Configure Configurer

	// Probes is evaluated after the sentinel so it can read the record.
	Probes       func() []readiness.Probe
	ProbeBackoff readiness.Backoff
	ProbeTimeout time.Duration

	// EnvFile is read by the stages that run without the collector.
	EnvFile  string
	Progress ProgressFunc
	Log      *slog.Logger
	RunID    string

	// Report is the outcome of the last configure stage.
	Report configure.Report
}

// NewRunID returns the identifier attached to every log line of a run.
func NewRunID() string { return uuid.NewString() }

func (p *Pipeline) log() *slog.Logger {
	if p.RunID == "" {
		p.RunID = NewRunID()
	}
	return p.Log.With("run", p.RunID)
}

// Run performs a full install: preflight, collect, provision, launch,
// wait and configure.
func (p *Pipeline) Run(ctx context.Context) error {
	log := p.log()
	start := time.Now()

	if err := p.Preflight.Preflight(ctx); err != nil {
		return err
	}
	log.Info("preflight passed")

	rec, err := p.Collect.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collect configuration: %w", err)
	}
	if err := p.up(ctx, log, rec); err != nil {
		return err
	}
	if err := p.waitReady(ctx, log); err != nil {
		return err
	}
	if err := p.configure(ctx, log, rec); err != nil {
		return err
	}

	telemetry.Success(ctx, log, "nextcloud is ready",
		"url", "https://"+rec.Get(envfile.Domain), "took", time.Since(start).Round(time.Second))
	return nil
}

// Env runs the collector alone.
func (p *Pipeline) Env(ctx context.Context) error {
	_, err := p.Collect.Collect(ctx)
	return err
}

// Up provisions, renders and launches from the existing record.
func (p *Pipeline) Up(ctx context.Context) error {
	log := p.log()
	if err := p.Preflight.Preflight(ctx); err != nil {
		return err
	}
	rec, err := p.record()
	if err != nil {
		return err
	}
	return p.up(ctx, log, rec)
}

// Wait runs the sentinel monitor and the health probes.
func (p *Pipeline) Wait(ctx context.Context) error {
	return p.waitReady(ctx, p.log())
}

// Reconfigure runs the post-install stage against the existing record.
func (p *Pipeline) Reconfigure(ctx context.Context) error {
	rec, err := p.record()
	if err != nil {
		return err
	}
	return p.configure(ctx, p.log(), rec)
}

func (p *Pipeline) record() (envfile.Record, error) {
	rec, err := envfile.Read(p.EnvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return rec, fmt.Errorf("%w: %s not found, run ncctl env first", stack.ErrPrecondition, p.EnvFile)
	}
	return rec, err
}

func (p *Pipeline) up(ctx context.Context, log *slog.Logger, rec envfile.Record) error {
	if err := p.Provision.Provision(ctx); err != nil {
		return fmt.Errorf("provision: %w", err)
	}
	if err := p.Render.Render(rec); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := p.Launch.Launch(ctx); err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	log.Info("services started")
	return nil
}

func (p *Pipeline) waitReady(ctx context.Context, log *slog.Logger) error {
	var res readiness.Result
	err := p.progress(ctx, "waiting for first start to finish", func(ctx context.Context) error {
		var err error
		res, err = p.Monitor.Wait(ctx)
		return err
	})
	if err != nil {
		log.Error("app did not become ready", "state", res.State.String(), "elapsed", res.Elapsed.Round(time.Second))
		return err
	}
	log.Info("initialization finished", "state", res.State.String(), "elapsed", res.Elapsed.Round(time.Second))

	if p.Probes == nil {
		return nil
	}
	for _, probe := range p.Probes() {
		if err := readiness.Poll(ctx, probe, p.ProbeBackoff, p.ProbeTimeout, log); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) configure(ctx context.Context, log *slog.Logger, rec envfile.Record) error {
	report, err := p.Configure.Configure(ctx, rec)
	if err != nil {
		return err
	}
	p.Report = report
	log.Info("configuration report", "succeeded", len(report.Succeeded), "failed", len(report.Failed))
	return nil
}

func (p *Pipeline) progress(ctx context.Context, label string, work func(context.Context) error) error {
	if p.Progress == nil {
		return work(ctx)
	}
	return p.Progress(ctx, label, work)
}
