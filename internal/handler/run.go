package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kidslearn/api/internal/sandbox"
)

// Runner is what the run handler needs from the sandbox: one call, one
// outcome. *sandbox.Engine satisfies it; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, source string) *sandbox.Outcome
}

// RunHandler handles code execution requests.
type RunHandler struct {
	runner Runner
	logger *slog.Logger
}

// NewRunHandler creates a RunHandler. runner may be nil when the sandbox is
// unavailable (no Docker daemon); requests then get a 503.
func NewRunHandler(runner Runner, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		runner: runner,
		logger: logger,
	}
}

// RunEnvelope is the stable response shape for POST /api/run-code. Every
// user-level outcome — success, rejection, timeout, script error — is a 200
// with ok/error filled in; HTTP errors are reserved for problems with the
// request itself or the service.
type RunEnvelope struct {
	OK     bool      `json:"ok"`
	Output string    `json:"output,omitempty"`
	Error  *RunError `json:"error,omitempty"`
}

// RunError names what went wrong with a run.
type RunError struct {
	Kind    string `json:"kind"` // validation_error | timeout | runtime_error
	Message string `json:"message"`
}

// HandleRun executes one script and responds with the envelope.
//
// HTTP: POST /api/run-code
// Body: {"code": "print('Hello')"}
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "code execution is not available right now",
		})
		return
	}

	var req sandbox.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid run request body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "request body must be JSON with a code field",
		})
		return
	}
	if req.Source == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "code cannot be empty",
		})
		return
	}

	outcome := h.runner.Run(r.Context(), req.Source)

	h.logger.Info("script executed",
		slog.String("status", string(outcome.Status)),
		slog.Duration("elapsed", outcome.Elapsed),
	)

	writeJSON(w, http.StatusOK, normalize(outcome))
}

// normalize maps the sandbox's tagged outcome onto the external envelope.
// The Status strings double as the error kinds, so the mapping is mostly
// about which fields appear per variant.
func normalize(outcome *sandbox.Outcome) RunEnvelope {
	if outcome.Status == sandbox.StatusOK {
		return RunEnvelope{
			OK:     true,
			Output: outcome.Output,
		}
	}

	return RunEnvelope{
		OK: false,
		Error: &RunError{
			Kind:    string(outcome.Status),
			Message: outcome.Reason,
		},
	}
}
