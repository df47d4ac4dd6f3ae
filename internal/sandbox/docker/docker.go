// Package docker implements the sandbox.Executor interface with a Docker
// container per execution. The container is the isolation boundary: no
// network, read-only root filesystem, unprivileged user, memory and CPU caps.
// A script that loops forever, exhausts memory, or crashes the interpreter
// takes down its container and nothing else.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/kidslearn/api/internal/sandbox"
)

// Executor runs validated scripts in pre-warmed Docker containers.
type Executor struct {
	cli     *client.Client
	config  Config
	logger  *slog.Logger
	pool    *Pool
	harness string
}

// New connects to the Docker daemon, makes sure the sandbox image is
// available, and starts warming the container pool.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	logger.Info("ensuring sandbox image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(ctx, cfg.Image, image.PullOptions{})
	if err != nil {
		return nil, fmt.Errorf("docker: pulling image %s: %w", cfg.Image, err)
	}
	defer reader.Close()
	// Drain the pull stream to block until the image is fully present.
	io.Copy(io.Discard, reader)
	logger.Info("sandbox image is ready")

	e := &Executor{
		cli:     cli,
		config:  cfg,
		logger:  logger,
		harness: sandbox.Harness(),
	}

	e.pool = NewPool(cli, cfg, logger)
	e.pool.Start()

	return e, nil
}

// Close shuts down the container pool and the Docker client.
func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

var _ sandbox.Executor = (*Executor)(nil)

// Execute runs one script in a fresh container from the pool.
//
// The deadline clock starts the moment evaluation begins — after a container
// has been acquired — so queueing for a warm container never eats into the
// script's time. On every exit path the container is force-removed; a
// container is never reused across requests.
func (e *Executor) Execute(ctx context.Context, req sandbox.Request) (*sandbox.Outcome, error) {
	containerID, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("docker: acquiring container: %w", err)
	}

	// Tear the container down no matter how this request ends. Removal also
	// kills the exec'd python process, which is what forcibly terminates a
	// timed-out script.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Error("failed to remove sandbox container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	// The harness is the argument to python -c; the student script travels
	// over stdin, so no quoting or escaping of user text is ever involved.
	execResp, err := e.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"python", "-c", e.harness},
	})
	if err != nil {
		return nil, fmt.Errorf("docker: creating exec: %w", err)
	}

	deadlineCtx, cancelDeadline := context.WithTimeout(ctx, e.config.Deadline)
	defer cancelDeadline()

	start := time.Now()

	attachResp, err := e.cli.ContainerExecAttach(deadlineCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("docker: attaching to exec: %w", err)
	}
	defer attachResp.Close()

	// Feed the script to the harness and signal EOF.
	if _, err := attachResp.Conn.Write([]byte(req.Source)); err != nil {
		return nil, fmt.Errorf("docker: writing script to sandbox: %w", err)
	}
	if err := attachResp.CloseWrite(); err != nil {
		return nil, fmt.Errorf("docker: closing sandbox stdin: %w", err)
	}

	stdout := newCapBuffer(MaxOutputBytes)
	stderr := newCapBuffer(MaxOutputBytes)

	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the attached stream into stdout and stderr.
		_, _ = stdcopy.StdCopy(stdout, stderr, attachResp.Reader)
		close(done)
	}()

	select {
	case <-done:
		elapsed := time.Since(start)

		inspectResp, err := e.cli.ContainerExecInspect(context.Background(), execResp.ID)
		if err != nil {
			return nil, fmt.Errorf("docker: inspecting exec: %w", err)
		}

		if inspectResp.ExitCode == 0 {
			out := stdout.String()
			if stdout.Truncated() {
				out += TruncationMarker
			}
			return &sandbox.Outcome{
				Status:    sandbox.StatusOK,
				Output:    out,
				Elapsed:   elapsed,
				Truncated: stdout.Truncated(),
			}, nil
		}

		return &sandbox.Outcome{
			Status:  sandbox.StatusRuntimeError,
			Reason:  runtimeReason(stderr.String()),
			Elapsed: elapsed,
		}, nil

	case <-deadlineCtx.Done():
		// Deadline elapsed (or the caller gave up). The deferred removal
		// kills the container; any output buffered so far may be mid-write,
		// so none of it is trusted or returned.
		return &sandbox.Outcome{
			Status:  sandbox.StatusTimeout,
			Reason:  "your code took too long to finish",
			Elapsed: time.Since(start),
		}, nil
	}
}

// runtimeReason turns the harness's stderr into a short, student-facing
// message. The harness prints a single "ExceptionType: message" line, so
// usually this is just a trim; if something unexpected produced no stderr,
// fall back to a generic description rather than exposing internals.
func runtimeReason(stderr string) string {
	reason := strings.TrimSpace(stderr)
	if reason == "" {
		return "your program stopped with an error"
	}
	// Keep it to the first line — anything longer is interpreter noise.
	if i := strings.IndexByte(reason, '\n'); i >= 0 {
		reason = reason[:i]
	}
	return reason
}

// capBuffer is an io.Writer that keeps at most max bytes and silently
// discards the rest, remembering that it did. It bounds memory on the host
// even when a script prints without end.
type capBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newCapBuffer(max int) *capBuffer {
	return &capBuffer{max: max}
}

// Write never returns an error: the copy loop must keep draining the stream
// even after the cap is reached, otherwise the container would block on a
// full pipe instead of finishing.
func (c *capBuffer) Write(p []byte) (int, error) {
	room := c.max - c.buf.Len()
	switch {
	case room <= 0:
		c.truncated = true
	case len(p) > room:
		c.buf.Write(p[:room])
		c.truncated = true
	default:
		c.buf.Write(p)
	}
	return len(p), nil
}

func (c *capBuffer) String() string { return c.buf.String() }

func (c *capBuffer) Truncated() bool { return c.truncated }
