package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/moby/moby/client"

	"github.com/tomorrowflow/nextcloud-compose/internal/bootstrap"
	"github.com/tomorrowflow/nextcloud-compose/internal/collect"
	"github.com/tomorrowflow/nextcloud-compose/internal/config"
	"github.com/tomorrowflow/nextcloud-compose/internal/configure"
	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
	"github.com/tomorrowflow/nextcloud-compose/internal/readiness"
	"github.com/tomorrowflow/nextcloud-compose/internal/stack"
	"github.com/tomorrowflow/nextcloud-compose/internal/tui"
)

// AppContext holds the dependencies shared across subcommands.
type AppContext struct {
	cfg      *config.Config
	log      *slog.Logger
	docker   *client.Client
	layout   stack.Layout
	runner   *stack.ExecRunner
	checker  *stack.Checker
	launcher *stack.Launcher
	pipeline *bootstrap.Pipeline
}

// buildAppContext wires every stage from cfg. No connection to the daemon
// is made until a stage uses the client.
func buildAppContext(cfg *config.Config, log *slog.Logger) (*AppContext, error) {
	docker, err := client.New(client.FromEnv)
	if err != nil {
		return nil, err
	}

	runID := bootstrap.NewRunID()
	base := log
	log = log.With("run", runID)

	app := &AppContext{
		cfg:    cfg,
		log:    log,
		docker: docker,
		layout: stack.NewLayout(cfg.Stack),
		runner: stack.NewExecRunner(),
	}
	network := stack.Network{Name: cfg.Network.Name, Subnet: cfg.Network.Subnet}

	app.checker = &stack.Checker{
		Layout:     app.layout,
		Runner:     app.runner,
		API:        docker,
		Log:        log,
		MinFreeGiB: 5,
	}
	app.launcher = &stack.Launcher{Layout: app.layout, Runner: app.runner, Log: log}

	ini, err := configure.ParseINI(cfg.Configure.PHPIni)
	if err != nil {
		return nil, err
	}

	app.pipeline = &bootstrap.Pipeline{
		Preflight: app.checker,
		Collect: &collect.Collector{
			Prompter: newPrompter(),
			Path:     app.layout.EnvFile,
			Fields:   collect.DefaultFields(),
			Log:      log,
		},
		Provision: &stack.Provisioner{Layout: app.layout, Network: network, API: docker, Log: log},
		Render:    &stack.Renderer{Layout: app.layout, Network: network, Log: log},
		Launch:    app.launcher,
		Monitor: &readiness.Monitor{
			Source:   &readiness.DockerLogs{API: docker, Container: cfg.Readiness.Container, TTY: cfg.Readiness.TTY},
			Sentinel: cfg.Readiness.Sentinel,
			Timeout:  cfg.Readiness.Timeout,
			Reopen:   readiness.Backoff{Initial: cfg.Readiness.PollInitial, Max: cfg.Readiness.PollMax, Factor: 2},
			Log:      log,
		},
		Configure: &configure.Configurator{
			Exec: &configure.DockerExec{
				Runner:    app.runner,
				Container: cfg.Configure.Container,
				User:      cfg.Configure.User,
			},
			Options: configure.Options{
				MaintenanceWindowStart: cfg.Configure.MaintenanceWindowStart,
				TrustedProxy:           cfg.Network.Subnet,
				Apps:                   cfg.Configure.Apps,
			},
			INIPath: app.layout.PHPIniFile(),
			INI:     ini,
			Log:     log,
		},
		Probes:       app.probes,
		ProbeBackoff: readiness.Backoff{Initial: cfg.Readiness.PollInitial, Max: cfg.Readiness.PollMax, Factor: 2},
		ProbeTimeout: cfg.Readiness.PollTimeout,
		EnvFile:      app.layout.EnvFile,
		Log:          base,
		RunID:        runID,
	}
	if isatty.IsTerminal(os.Stderr.Fd()) && !strings.EqualFold(cfg.Log.Format, "json") {
		app.pipeline.Progress = func(ctx context.Context, label string, work func(context.Context) error) error {
			return tui.Spin(ctx, os.Stderr, label, work)
		}
	}
	return app, nil
}

// probes returns the dependency health checks run after the sentinel. It
// runs after the collector so the Redis password is on disk. The HTTP and
// Redis probes only run when an address is configured.
func (a *AppContext) probes() []readiness.Probe {
	var probes []readiness.Probe
	for _, name := range a.cfg.Readiness.HealthChecks {
		probes = append(probes, &readiness.ContainerHealth{API: a.docker, Container: name})
	}
	if a.cfg.Readiness.StatusURL != "" {
		probes = append(probes, &readiness.HTTPStatus{
			URL: a.cfg.Readiness.StatusURL,
			CB:  readiness.NewCircuitBreaker("status.php", a.cfg.Readiness.PollMax),
		})
	}
	if a.cfg.Readiness.RedisAddr != "" {
		rec, err := envfile.Read(a.layout.EnvFile)
		if err != nil {
			a.log.Warn("redis probe skipped", "err", err)
		} else {
			probes = append(probes, &readiness.RedisPing{
				Addr:     a.cfg.Readiness.RedisAddr,
				Password: rec.Get(envfile.RedisPassword),
				CB:       readiness.NewCircuitBreaker("redis", a.cfg.Readiness.PollMax),
			})
		}
	}
	return probes
}

// newPrompter uses the bubbletea prompts on a terminal and plain line
// prompts otherwise.
func newPrompter() collect.Prompter {
	if isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
		return tui.NewPrompter(os.Stdin, os.Stdout)
	}
	return tui.NewLinePrompter(os.Stdin, os.Stderr)
}

func (a *AppContext) Close() error {
	return a.docker.Close()
}
