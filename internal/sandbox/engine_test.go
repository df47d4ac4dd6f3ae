package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// spyExecutor records whether Execute was ever called and returns a canned
// outcome or error.
type spyExecutor struct {
	called    bool
	lastReq   Request
	returnOut *Outcome
	returnErr error
}

func (s *spyExecutor) Execute(_ context.Context, req Request) (*Outcome, error) {
	s.called = true
	s.lastReq = req
	if s.returnErr != nil {
		return nil, s.returnErr
	}
	return s.returnOut, nil
}

func newTestEngine(t *testing.T, exec Executor) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewEngine(exec, logger)
}

func TestRun_RejectedSourceNeverReachesExecutor(t *testing.T) {
	cases := []string{
		"import os",
		"from sys import exit",
		"x = ().__class__",
	}

	for _, source := range cases {
		spy := &spyExecutor{}
		engine := newTestEngine(t, spy)

		outcome := engine.Run(context.Background(), source)

		if outcome.Status != StatusRejected {
			t.Errorf("Run(%q).Status = %q, want %q", source, outcome.Status, StatusRejected)
		}
		if outcome.Reason == "" {
			t.Errorf("Run(%q) rejected with empty reason", source)
		}
		if spy.called {
			t.Errorf("Run(%q) invoked the executor on rejected source", source)
		}
	}
}

func TestRun_PassesValidatedSourceThrough(t *testing.T) {
	spy := &spyExecutor{
		returnOut: &Outcome{
			Status:  StatusOK,
			Output:  "Hello\n",
			Elapsed: 12 * time.Millisecond,
		},
	}
	engine := newTestEngine(t, spy)

	outcome := engine.Run(context.Background(), "print('Hello')")

	if !spy.called {
		t.Fatal("executor was not invoked for valid source")
	}
	if spy.lastReq.Source != "print('Hello')" {
		t.Errorf("executor received source %q", spy.lastReq.Source)
	}
	if outcome.Status != StatusOK || outcome.Output != "Hello\n" {
		t.Errorf("outcome = %+v, want the executor's result unchanged", outcome)
	}
}

func TestRun_TimeoutOutcomePassesThrough(t *testing.T) {
	spy := &spyExecutor{
		returnOut: &Outcome{Status: StatusTimeout, Reason: "your code took too long to finish", Elapsed: 2 * time.Second},
	}
	engine := newTestEngine(t, spy)

	outcome := engine.Run(context.Background(), "while True: pass")
	if outcome.Status != StatusTimeout {
		t.Errorf("Status = %q, want %q", outcome.Status, StatusTimeout)
	}
}

func TestRun_IsolationFailureBecomesSafeRuntimeError(t *testing.T) {
	spy := &spyExecutor{
		returnErr: errors.New("docker: acquiring container: connection refused to /var/run/docker.sock"),
	}
	engine := newTestEngine(t, spy)

	outcome := engine.Run(context.Background(), "print(1)")

	if outcome.Status != StatusRuntimeError {
		t.Fatalf("Status = %q, want %q", outcome.Status, StatusRuntimeError)
	}
	// The caller must never see internals — no socket paths, no "docker".
	if strings.Contains(outcome.Reason, "docker") || strings.Contains(outcome.Reason, "/var/run") {
		t.Errorf("reason leaks internals: %q", outcome.Reason)
	}
	if outcome.Reason == "" {
		t.Error("reason is empty")
	}
}
