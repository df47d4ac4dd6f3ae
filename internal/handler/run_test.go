package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidslearn/api/internal/sandbox"
)

// stubRunner returns a canned outcome and records what it was asked to run.
type stubRunner struct {
	outcome *sandbox.Outcome
	source  string
	calls   int
}

func (s *stubRunner) Run(_ context.Context, source string) *sandbox.Outcome {
	s.calls++
	s.source = source
	return s.outcome
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func postRun(t *testing.T, h *RunHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/run-code", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) RunEnvelope {
	t.Helper()
	var env RunEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestHandleRun_SuccessEnvelope(t *testing.T) {
	runner := &stubRunner{outcome: &sandbox.Outcome{
		Status:  sandbox.StatusOK,
		Output:  "Hello\n",
		Elapsed: 12 * time.Millisecond,
	}}
	h := NewRunHandler(runner, testLogger())

	rec := postRun(t, h, `{"code": "print('Hello')"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	env := decodeEnvelope(t, rec)
	assert.True(t, env.OK)
	assert.Equal(t, "Hello\n", env.Output)
	assert.Nil(t, env.Error)
	assert.Equal(t, "print('Hello')", runner.source)
}

func TestHandleRun_FailureEnvelopes(t *testing.T) {
	cases := []struct {
		name     string
		outcome  *sandbox.Outcome
		wantKind string
	}{
		{
			name:     "rejected script",
			outcome:  &sandbox.Outcome{Status: sandbox.StatusRejected, Reason: "your code can't use import here"},
			wantKind: "validation_error",
		},
		{
			name:     "timeout",
			outcome:  &sandbox.Outcome{Status: sandbox.StatusTimeout, Reason: "your code took too long to finish"},
			wantKind: "timeout",
		},
		{
			name:     "script crashed",
			outcome:  &sandbox.Outcome{Status: sandbox.StatusRuntimeError, Reason: "ZeroDivisionError: division by zero"},
			wantKind: "runtime_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewRunHandler(&stubRunner{outcome: tc.outcome}, testLogger())

			rec := postRun(t, h, `{"code": "whatever"}`)

			// User-level failures are still 200s; the envelope carries the news.
			assert.Equal(t, http.StatusOK, rec.Code)

			env := decodeEnvelope(t, rec)
			assert.False(t, env.OK)
			assert.Empty(t, env.Output)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.wantKind, env.Error.Kind)
			assert.Equal(t, tc.outcome.Reason, env.Error.Message)
		})
	}
}

func TestHandleRun_MalformedJSON(t *testing.T) {
	runner := &stubRunner{outcome: &sandbox.Outcome{Status: sandbox.StatusOK}}
	h := NewRunHandler(runner, testLogger())

	rec := postRun(t, h, `{"code": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, runner.calls, "runner must not be called for a bad request")
}

func TestHandleRun_EmptyCode(t *testing.T) {
	runner := &stubRunner{outcome: &sandbox.Outcome{Status: sandbox.StatusOK}}
	h := NewRunHandler(runner, testLogger())

	rec := postRun(t, h, `{"code": ""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, runner.calls)
}

func TestHandleRun_SandboxUnavailable(t *testing.T) {
	h := NewRunHandler(nil, testLogger())

	rec := postRun(t, h, `{"code": "print(1)"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "unavailable", resp.Error)
}
