package sandbox

import (
	"context"
	"errors"
	"log/slog"
)

// Engine ties the pipeline together: static validation, then isolated
// execution, producing exactly one Outcome per request.
//
// INVARIANT: the executor never sees source that the validator has not passed.
// A rejected script is reported without any execution being attempted.
//
// The engine holds no per-request state, so a single instance serves all
// requests concurrently; outcomes of concurrent requests are fully independent
// because each execution gets its own isolated context.
type Engine struct {
	exec   Executor
	logger *slog.Logger
}

// NewEngine creates an Engine backed by the given executor.
func NewEngine(exec Executor, logger *slog.Logger) *Engine {
	return &Engine{
		exec:   exec,
		logger: logger,
	}
}

// Run validates and executes one script, always returning a well-formed
// Outcome — never a raw error. Script-level failures (rejection, timeout,
// runtime error) come back as their Outcome variant. A failure of the
// isolation boundary itself is a service-level condition: it is logged at
// Error severity with the details, and the caller receives a safe, generic
// runtime failure that exposes nothing about the host.
func (e *Engine) Run(ctx context.Context, source string) *Outcome {
	if err := Validate(source); err != nil {
		var rej *RejectionError
		if errors.As(err, &rej) {
			return &Outcome{Status: StatusRejected, Reason: rej.Reason}
		}
		// Validate only returns *RejectionError today; treat anything else
		// the same way rather than letting it near the executor.
		return &Outcome{Status: StatusRejected, Reason: err.Error()}
	}

	outcome, err := e.exec.Execute(ctx, Request{Source: source})
	if err != nil {
		e.logger.Error("sandbox isolation failure",
			slog.String("error", err.Error()),
		)
		return &Outcome{
			Status: StatusRuntimeError,
			Reason: "the playground could not run your code right now — please try again",
		}
	}

	return outcome
}
