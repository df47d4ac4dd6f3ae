package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Pool keeps a handful of locked-down containers started ahead of time so an
// execution request doesn't pay container startup latency. Containers leave
// the pool on Acquire and never come back — the executor removes them after
// one use.
type Pool struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	warm   chan string
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPool creates a pool manager for the given Docker client.
func NewPool(cli *client.Client, cfg Config, logger *slog.Logger) *Pool {
	return &Pool{
		cli:    cli,
		config: cfg,
		logger: logger,
		warm:   make(chan string, cfg.PoolSize),
		quit:   make(chan struct{}),
	}
}

// Start launches the background goroutine that keeps the pool topped up.
func (p *Pool) Start() {
	p.once.Do(func() {
		p.logger.Info("starting sandbox container pool", slog.Int("poolSize", p.config.PoolSize))
		p.wg.Add(1)
		go p.refill()
	})
}

// Stop shuts down the refill goroutine and removes every container still
// waiting in the pool.
func (p *Pool) Stop() {
	p.logger.Info("shutting down sandbox container pool")
	close(p.quit)
	p.wg.Wait()

	for {
		select {
		case id := <-p.warm:
			p.remove(id)
		default:
			return
		}
	}
}

// Acquire hands out a ready container ID, blocking until one is warm or the
// context is cancelled. Ownership transfers to the caller, who must remove
// the container when done with it.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	select {
	case id := <-p.warm:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refill keeps the warm channel at capacity until Stop is called.
func (p *Pool) refill() {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		default:
		}

		if len(p.warm) >= cap(p.warm) {
			// Pool is full; check again shortly.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		id, err := p.create()
		if err != nil {
			p.logger.Error("failed to warm sandbox container", slog.String("error", err.Error()))
			time.Sleep(1 * time.Second) // back off before retrying
			continue
		}

		select {
		case p.warm <- id:
		case <-p.quit:
			// Shutting down while holding a fresh container — remove it.
			p.remove(id)
			return
		}
	}
}

// create starts one idle, locked-down container. The container just sleeps;
// actual script runs happen via exec so the executor controls stdio and the
// deadline per request.
func (p *Pool) create() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hostConfig := &container.HostConfig{
		// The script gets no network and no writable filesystem. Together
		// with the restricted builtins this leaves text output as the only
		// channel out of the sandbox.
		NetworkMode:    "none",
		ReadonlyRootfs: true,
		Resources: container.Resources{
			Memory:   p.config.MemoryLimit,
			NanoCPUs: int64(p.config.CPULimit * 1e9),
		},
		AutoRemove: false,
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image: p.config.Image,
		Cmd:   []string{"sleep", "infinity"},
		Tty:   false,
		User:  "nobody",
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.remove(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}

// remove force-removes a container, best effort.
func (p *Pool) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}
