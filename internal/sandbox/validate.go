package sandbox

import (
	"fmt"
	"regexp"
)

// MaxSourceBytes caps how much source text a single request may submit.
// Lessons in the app are all well under a kilobyte; 4000 bytes leaves plenty
// of headroom while bounding what we ship to the executor.
const MaxSourceBytes = 4000

// RejectionError is returned by Validate when the source contains a
// disallowed construct. The Reason is safe to show to the student.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// The validator matches structurally, not by bare substring, so that
// `imported = 5` or `print("import")` are not rejected while `import os`,
// `from os import path` and `x = 1; import os` are.
//
// KNOWN LIMITATION:
// Lexical matching cannot catch every obfuscation (a script could try to
// assemble a blocked name out of string pieces at runtime). That is accepted:
// anything that slips through still runs against the restricted namespace,
// where __import__, open, getattr and the rest simply don't exist.
var (
	// `import x` or `from x import y` in statement position — at the start of
	// a line or directly after a `;` or `:` (compound statements).
	importStmt = regexp.MustCompile(`(?m)(?:^|[;:])[ \t]*(?:import[ \t]+\S|from[ \t]+\S+[ \t]+import\b)`)

	// Any double-underscore-delimited identifier: __import__, __class__,
	// __builtins__, ... These are the conventional road to interpreter
	// internals, so none of them have a place in a beginner script.
	dunderName = regexp.MustCompile(`__[A-Za-z0-9_]+__`)
)

// Validate statically inspects source text before any execution is attempted.
// It returns nil if the text is acceptable, or a *RejectionError describing
// the first violation found. It never evaluates anything and has no side
// effects, so it is safe to call concurrently.
func Validate(source string) error {
	if len(source) > MaxSourceBytes {
		return &RejectionError{
			Reason: fmt.Sprintf("your program is too long — the limit is %d characters", MaxSourceBytes),
		}
	}

	if loc := importStmt.FindString(source); loc != "" {
		return &RejectionError{
			Reason: "sorry, import statements aren't allowed here — everything you need is already built in",
		}
	}

	if name := dunderName.FindString(source); name != "" {
		return &RejectionError{
			Reason: fmt.Sprintf("sorry, special names like %s aren't allowed", name),
		}
	}

	return nil
}
