// Package sandbox is the execution core of the KidsLearn API: it takes an
// untrusted, student-authored Python script, statically rejects dangerous
// constructs, and runs what remains in an isolated context with a restricted
// set of builtins and a hard wall-clock deadline.
//
// THE TRUST BOUNDARY:
// Nothing in this package (or anywhere in the host process) ever evaluates
// student code. Evaluation happens behind an Executor — a separate OS-level
// context (a Docker container in production, see the docker subpackage) whose
// crash, hang, or resource exhaustion cannot affect the calling process.
//
// DEFENSE IN DEPTH:
// The static validator catches the common, obvious escapes (import statements,
// dunder names). Obfuscated constructions that slip past it hit the second
// line of defense: inside the isolated context, the script only sees the
// whitelisted builtins (see namespace.go), so there is nothing reachable by
// name that can open files, spawn processes, or import modules. The residual
// risk — clever dynamic construction of blocked constructs — is an accepted
// limitation for a kids' learning tool, not something this package tries to
// solve with a provably-safe interpreter.
package sandbox

import (
	"context"
	"time"
)

// Request carries the source text of one execution. It is immutable once
// accepted and discarded after the response is produced.
type Request struct {
	Source string `json:"code"`
}

// Status tags the single outcome variant produced for a request.
type Status string

const (
	// StatusOK — the script ran to completion; Output holds its stdout.
	StatusOK Status = "ok"
	// StatusRejected — the static validator refused the source; Reason says why.
	StatusRejected Status = "validation_error"
	// StatusTimeout — the deadline elapsed and the isolated context was
	// forcibly terminated. Any buffered output was discarded.
	StatusTimeout Status = "timeout"
	// StatusRuntimeError — the script started but failed during evaluation
	// (division by zero, unbound name outside the whitelist, and so on).
	StatusRuntimeError Status = "runtime_error"
)

// Outcome is the uniform result of one execution request. Exactly one variant
// applies; the fields that don't belong to the variant are zero.
type Outcome struct {
	Status    Status        `json:"status"`
	Output    string        `json:"output,omitempty"`    // captured stdout (StatusOK only)
	Reason    string        `json:"reason,omitempty"`    // human-readable failure description
	Elapsed   time.Duration `json:"elapsed"`             // wall-clock time spent evaluating
	Truncated bool          `json:"truncated,omitempty"` // output hit the capture cap
}

// Executor runs an already-validated script in an isolated context.
//
// Implementations must guarantee that a runaway or malicious script cannot
// affect the host process, that the deadline forcibly terminates evaluation,
// and that the isolated context is torn down on every exit path. A non-nil
// error means the isolation boundary itself failed (could not be established
// or torn down) — it is never used for script-level failures, which are
// reported through the Outcome.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Outcome, error)
}
