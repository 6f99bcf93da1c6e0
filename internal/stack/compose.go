package stack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ComposeBaseArgs are the arguments shared by every compose invocation.
// The override file is passed only when it exists.
func ComposeBaseArgs(l Layout) []string {
	args := []string{"compose", "-f", l.ComposeFile()}
	if FileExists(l.OverrideFile()) {
		args = append(args, "-f", l.OverrideFile())
	}
	return append(args, "--env-file", l.EnvFile, "-p", l.Project)
}

// Launcher starts the stack. Start order is left to compose health gates.
type Launcher struct {
	Layout Layout
	Runner Runner
	Log    *slog.Logger
}

func (l *Launcher) Launch(ctx context.Context) error {
	if !FileExists(l.Layout.ComposeFile()) {
		return fmt.Errorf("%w: %s not rendered", ErrPrecondition, l.Layout.ComposeFile())
	}
	args := append(ComposeBaseArgs(l.Layout), "up", "-d", "--remove-orphans")
	l.Log.Info("starting services", "project", l.Layout.Project)
	if err := l.Runner.Run(ctx, "docker", args...); err != nil {
		return fmt.Errorf("docker compose up: %w", err)
	}
	return nil
}

// Status returns the compose ps table.
func (l *Launcher) Status(ctx context.Context) (string, error) {
	args := append(ComposeBaseArgs(l.Layout), "ps")
	out, err := l.Runner.Output(ctx, "docker", args...)
	if err != nil {
		return "", fmt.Errorf("docker compose ps: %w: %s", err, strings.TrimSpace(out))
	}
	return out, nil
}

// Services lists the service names compose resolves from the rendered files.
func (l *Launcher) Services(ctx context.Context) ([]string, error) {
	args := append(ComposeBaseArgs(l.Layout), "config", "--services")
	out, err := l.Runner.Output(ctx, "docker", args...)
	if err != nil {
		return nil, fmt.Errorf("docker compose config: %w: %s", err, strings.TrimSpace(out))
	}
	var services []string
	for _, line := range strings.Split(out, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			services = append(services, s)
		}
	}
	return services, nil
}
