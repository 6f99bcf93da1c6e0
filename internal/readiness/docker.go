package readiness

import (
	"context"
	"fmt"
	"io"

	"github.com/moby/moby/api/pkg/stdcopy"
	"github.com/moby/moby/client"
)

// LogsAPI is the Engine API call behind DockerLogs.
type LogsAPI interface {
	ContainerLogs(ctx context.Context, container string, options client.ContainerLogsOptions) (client.ContainerLogsResult, error)
}

// DockerLogs follows a container's stdout and stderr.
type DockerLogs struct {
	API       LogsAPI
	Container string
	// TTY containers send a raw stream instead of the multiplexed one.
	TTY bool
}

func (d *DockerLogs) Open(ctx context.Context) (io.ReadCloser, error) {
	body, err := d.API.ContainerLogs(ctx, d.Container, client.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
		Tail:       "all",
	})
	if err != nil {
		return nil, fmt.Errorf("container logs %s: %w", d.Container, err)
	}
	if d.TTY {
		return body, nil
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, body)
		pw.CloseWithError(err)
	}()
	return &demuxed{PipeReader: pr, body: body}, nil
}

type demuxed struct {
	*io.PipeReader
	body io.Closer
}

// Close stops the copier by closing the response body first.
func (d *demuxed) Close() error {
	err := d.body.Close()
	_ = d.PipeReader.Close()
	return err
}

// InspectAPI is the Engine API call behind ContainerHealth.
type InspectAPI interface {
	ContainerInspect(ctx context.Context, container string, options client.ContainerInspectOptions) (client.ContainerInspectResult, error)
}

// ContainerHealth passes once the container's health check reports healthy.
type ContainerHealth struct {
	API       InspectAPI
	Container string
}

func (c *ContainerHealth) Name() string { return "health:" + c.Container }

func (c *ContainerHealth) Check(ctx context.Context) error {
	res, err := c.API.ContainerInspect(ctx, c.Container, client.ContainerInspectOptions{})
	if err != nil {
		return err
	}
	state := res.Container.State
	if state == nil {
		return fmt.Errorf("%s has no state", c.Container)
	}
	if !state.Running {
		return fmt.Errorf("%s is %s", c.Container, state.Status)
	}
	if state.Health == nil {
		return fmt.Errorf("%s has no health check", c.Container)
	}
	if status := string(state.Health.Status); status != "healthy" {
		return fmt.Errorf("%s is %s", c.Container, status)
	}
	return nil
}
