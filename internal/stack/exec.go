package stack

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// Runner runs host commands. The docker CLI is the only thing the stack
// shells out to; tests substitute a recorder.
type Runner interface {
	// Run streams the command's output to the runner's writers.
	Run(ctx context.Context, name string, args ...string) error
	// Output returns combined stdout and stderr.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Pipe copies stdout to w; stderr goes to the runner's writer.
	Pipe(ctx context.Context, w io.Writer, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (r *ExecRunner) Pipe(ctx context.Context, w io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w
	cmd.Stderr = r.Stderr
	return cmd.Run()
}
