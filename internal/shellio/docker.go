package shellio

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// DockerExec is the backend for ConnTOSNative sectors: a TTY-attached exec
// session inside a running container. Grounded on
// agents/shared/docker.Client.ExecWithTTY, rewritten from a one-shot
// blocking io.Copy helper into a Backend that exposes Read/Write directly so
// a shellio.Session can drive it the same way it drives a local PTY.
type DockerExec struct {
	ctx    context.Context
	api    *client.Client
	execID string
	hijack types.HijackedResponse
}

// NewDockerExec creates and attaches an exec session for cmd inside
// containerID, TTY-enabled, sized rows x cols.
func NewDockerExec(ctx context.Context, api *client.Client, containerID string, cmd []string, rows, cols uint16) (*DockerExec, error) {
	execResp, err := api.ContainerExecCreate(ctx, containerID, types.ExecConfig{
		AttachStdout: true,
		AttachStderr: true,
		AttachStdin:  true,
		Cmd:          cmd,
		Tty:          true,
	})
	if err != nil {
		return nil, err
	}
	if rows > 0 && cols > 0 {
		_ = api.ContainerExecResize(ctx, execResp.ID, container.ResizeOptions{
			Height: uint(rows),
			Width:  uint(cols),
		})
	}
	hijack, err := api.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{Tty: true})
	if err != nil {
		return nil, err
	}
	return &DockerExec{ctx: ctx, api: api, execID: execResp.ID, hijack: hijack}, nil
}

func (d *DockerExec) Read(p []byte) (int, error)  { return d.hijack.Reader.Read(p) }
func (d *DockerExec) Write(p []byte) (int, error) { return d.hijack.Conn.Write(p) }

func (d *DockerExec) Resize(rows, cols uint16) error {
	return d.api.ContainerExecResize(d.ctx, d.execID, container.ResizeOptions{
		Height: uint(rows),
		Width:  uint(cols),
	})
}

// Wait inspects the exec once and reports a non-zero exit code as
// io.ErrUnexpectedEOF. It does not poll: Docker has no exec-exited
// notification channel, so this mirrors how callers of ExecWithTTY learn
// completion, via ContainerExecInspect after the hijacked connection's
// reader returns io.EOF.
func (d *DockerExec) Wait() error {
	insp, err := d.api.ContainerExecInspect(d.ctx, d.execID)
	if err != nil {
		return err
	}
	if insp.ExitCode != 0 {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (d *DockerExec) Close() error {
	d.hijack.Close()
	return nil
}
