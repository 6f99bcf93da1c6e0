package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/moby/moby/client"

	"github.com/tomorrowflow/nextcloud-compose/internal/telemetry"
)

// ErrPrecondition marks a missing tool, daemon or file the run cannot
// proceed without.
var ErrPrecondition = errors.New("precondition failed")

// PingAPI is the daemon liveness call.
type PingAPI interface {
	Ping(ctx context.Context, options client.PingOptions) (client.PingResult, error)
}

// Check is one host check. Required checks fail preflight; the rest only
// warn.
type Check struct {
	Name     string
	Required bool
	Fn       func(ctx context.Context) error
}

// Checker runs host checks against a deployment layout.
type Checker struct {
	Layout   Layout
	Runner   Runner
	API      PingAPI
	LookPath func(string) (string, error)
	Log      *slog.Logger

	// MinFreeGiB is the free space the stack dir must have; zero disables
	// the threshold.
	MinFreeGiB uint64
}

func (c *Checker) lookPath(name string) (string, error) {
	if c.LookPath != nil {
		return c.LookPath(name)
	}
	return exec.LookPath(name)
}

func (c *Checker) Checks() []Check {
	return []Check{
		{Name: "docker binary", Required: true, Fn: func(context.Context) error {
			_, err := c.lookPath("docker")
			return err
		}},
		{Name: "docker compose", Required: true, Fn: func(ctx context.Context) error {
			out, err := c.Runner.Output(ctx, "docker", "compose", "version")
			if err != nil {
				return fmt.Errorf("%v: %s", err, strings.TrimSpace(out))
			}
			return nil
		}},
		{Name: "docker daemon", Required: true, Fn: func(ctx context.Context) error {
			_, err := c.API.Ping(ctx, client.PingOptions{})
			return err
		}},
		{Name: c.Layout.Dir + " writable", Required: true, Fn: func(context.Context) error {
			return writableCheck(c.Layout.Dir)
		}},
		{Name: fmt.Sprintf("disk space >= %dGiB", c.MinFreeGiB), Fn: func(context.Context) error {
			return diskCheck(c.Layout.Dir, c.MinFreeGiB)
		}},
		{Name: "ports 80/443 free", Fn: func(ctx context.Context) error {
			out, err := c.Runner.Output(ctx, "ss", "-ltn")
			if err != nil {
				return err
			}
			if strings.Contains(out, ":80 ") || strings.Contains(out, ":443 ") {
				return fmt.Errorf("ports 80/443 already in use")
			}
			return nil
		}},
		{Name: "environment record", Fn: func(context.Context) error {
			if !FileExists(c.Layout.EnvFile) {
				return fmt.Errorf("%s not found", c.Layout.EnvFile)
			}
			info, err := os.Stat(c.Layout.EnvFile)
			if err != nil {
				return err
			}
			if info.Mode().Perm()&0o077 != 0 {
				return fmt.Errorf("%s has mode %o, want 600", c.Layout.EnvFile, info.Mode().Perm())
			}
			return nil
		}},
	}
}

// Preflight runs the required checks and stops at the first failure.
func (c *Checker) Preflight(ctx context.Context) error {
	for _, check := range c.Checks() {
		if !check.Required {
			continue
		}
		if err := check.Fn(ctx); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrPrecondition, check.Name, err)
		}
		c.Log.Debug("check passed", "check", check.Name)
	}
	return nil
}

// Doctor runs every check and reports each result. It returns the number of
// failed checks; failures are never an error.
func (c *Checker) Doctor(ctx context.Context) int {
	c.Log.Info("ncctl doctor", "runtime", runtime.GOOS+"/"+runtime.GOARCH)
	failed := 0
	for _, check := range c.Checks() {
		if err := check.Fn(ctx); err != nil {
			failed++
			c.Log.Warn(check.Name, "err", err)
			continue
		}
		telemetry.Success(ctx, c.Log, check.Name)
	}
	return failed
}

func writableCheck(dir string) error {
	if err := ensureDir(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "ncctl-write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

func diskCheck(path string, minGiB uint64) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return err
	}
	free := (stat.Bavail * uint64(stat.Bsize)) / (1024 * 1024 * 1024)
	if free < minGiB {
		return fmt.Errorf("free space %dGiB < %dGiB", free, minGiB)
	}
	return nil
}
