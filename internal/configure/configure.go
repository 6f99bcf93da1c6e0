// Package configure applies post-install settings to a running Nextcloud
// through occ and patches the PHP override file.
package configure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
	"github.com/tomorrowflow/nextcloud-compose/internal/stack"
	"github.com/tomorrowflow/nextcloud-compose/internal/telemetry"
)

// Executor runs one occ invocation inside the app container.
type Executor interface {
	Occ(ctx context.Context, args ...string) (string, error)
}

// DockerExec runs occ through docker exec as the web server user.
type DockerExec struct {
	Runner    stack.Runner
	Container string
	User      string
}

func (d *DockerExec) Occ(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"exec", "-u", d.User, d.Container, "php", "occ", "--no-interaction"}, args...)
	return d.Runner.Output(ctx, "docker", full...)
}

// Command is one occ call.
type Command struct {
	Args []string
}

func (c Command) String() string { return "occ " + strings.Join(c.Args, " ") }

// Options select which settings the default command list carries.
type Options struct {
	MaintenanceWindowStart int
	TrustedProxy           string
	Apps                   []string
}

// Commands builds the ordered occ list for rec. Every command is safe to
// run again on an already configured instance.
func Commands(opts Options, rec envfile.Record) []Command {
	set := func(args ...string) Command {
		return Command{Args: append([]string{"config:system:set"}, args...)}
	}

	cmds := []Command{
		set("maintenance_window_start", "--type=integer", "--value="+strconv.Itoa(opts.MaintenanceWindowStart)),
	}
	if region := rec.Get(envfile.PhoneRegion); region != "" {
		cmds = append(cmds, set("default_phone_region", "--value="+region))
	}
	cmds = append(cmds, set("overwriteprotocol", "--value=https"))
	if domain := rec.Get(envfile.Domain); domain != "" {
		cmds = append(cmds, set("overwrite.cli.url", "--value=https://"+domain))
	}
	if opts.TrustedProxy != "" {
		cmds = append(cmds, set("trusted_proxies", "0", "--value="+opts.TrustedProxy))
	}
	cmds = append(cmds,
		Command{Args: []string{"background:cron"}},
		Command{Args: []string{"db:add-missing-indices"}},
		Command{Args: []string{"maintenance:repair", "--include-expensive"}},
	)
	for _, app := range opts.Apps {
		cmds = append(cmds, Command{Args: []string{"app:enable", app}})
	}
	return cmds
}

// Failure is a command that did not succeed.
type Failure struct {
	Step   string
	Err    error
	Output string
}

// Report lists what the configurator did. Failures never stop a run.
type Report struct {
	Succeeded []string
	Failed    []Failure
}

func (r Report) OK() bool { return len(r.Failed) == 0 }

// Configurator applies the command list and the PHP overrides.
type Configurator struct {
	Exec     Executor
	Options  Options
	Commands []Command
	INIPath  string
	INI      map[string]string
	Log      *slog.Logger
}

// Configure runs every command in order, logging and recording failures.
// The only error it returns is cancellation of ctx.
func (c *Configurator) Configure(ctx context.Context, rec envfile.Record) (Report, error) {
	var report Report
	cmds := c.Commands
	if cmds == nil {
		cmds = Commands(c.Options, rec)
	}

	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		out, err := c.Exec.Occ(ctx, cmd.Args...)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			c.Log.Warn("command failed, continuing", "cmd", cmd.String(), "err", err, "output", strings.TrimSpace(out))
			report.Failed = append(report.Failed, Failure{Step: cmd.String(), Err: err, Output: out})
			continue
		}
		c.Log.Info("applied", "cmd", cmd.String())
		report.Succeeded = append(report.Succeeded, cmd.String())
	}

	if c.INIPath != "" && len(c.INI) > 0 {
		step := "patch " + c.INIPath
		if err := PatchINI(c.INIPath, c.INI); err != nil {
			c.Log.Warn("php overrides not written", "file", c.INIPath, "err", err)
			report.Failed = append(report.Failed, Failure{Step: step, Err: err})
		} else {
			c.Log.Info("php overrides written, applied on next app restart", "file", c.INIPath)
			report.Succeeded = append(report.Succeeded, step)
		}
	}

	if report.OK() {
		telemetry.Success(ctx, c.Log, "post-install configuration complete", "steps", len(report.Succeeded))
	} else {
		c.Log.Warn(fmt.Sprintf("post-install configuration finished with %d failed step(s)", len(report.Failed)))
	}
	return report, nil
}

// ParseINI turns "key=value" entries into a map. Entries without "=" are
// rejected.
func ParseINI(entries []string) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("php ini entry %q is not key=value", e)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
