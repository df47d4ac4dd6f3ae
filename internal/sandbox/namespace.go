package sandbox

import (
	"strings"
)

// BuiltinNames is the complete set of callables a student script may reference.
// Everything else — open, eval, getattr, __import__, the io and os modules —
// is simply absent from the script's binding environment and therefore
// unreachable by name.
//
// The set is fixed, read-only, and shared by all executions; nothing in it
// touches mutable process state, performs I/O beyond the captured text
// output, or exposes reflection.
var BuiltinNames = []string{
	"print",
	"range",
	"len",
	"int",
	"float",
	"str",
	"bool",
	"list",
	"dict",
	"set",
	"tuple",
	"enumerate",
	"abs",
	"min",
	"max",
	"sum",
}

// Harness returns the Python program the isolated context runs. It is the
// only code in the container that sees the real interpreter builtins; the
// student script — read verbatim from stdin — is compiled and executed with
// BuiltinNames as its entire builtin namespace and nothing inherited from the
// host: no ambient globals, no environment, no module table.
//
// Script exceptions are reported on stderr as "ExceptionType: message" with a
// non-zero exit status, so the executor can distinguish a failed script from
// a failed container without parsing tracebacks.
func Harness() string {
	var b strings.Builder

	b.WriteString("import sys\n")

	// Build the restricted builtins dict. __builtins__ is a module at the
	// top level of a script but a dict inside exec'd code, so normalize.
	b.WriteString("_bi = __builtins__\n")
	b.WriteString("if not isinstance(_bi, dict):\n")
	b.WriteString("    _bi = vars(_bi)\n")
	b.WriteString("_safe = {}\n")
	b.WriteString("for _name in [")
	for i, name := range BuiltinNames {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"` + name + `"`)
	}
	b.WriteString("]:\n")
	b.WriteString("    _safe[_name] = _bi[_name]\n")

	b.WriteString("_source = sys.stdin.read()\n")
	b.WriteString("try:\n")
	b.WriteString(`    _code = compile(_source, "<script>", "exec")` + "\n")
	b.WriteString(`    exec(_code, {"__builtins__": _safe})` + "\n")
	b.WriteString("except BaseException as _exc:\n")
	b.WriteString("    sys.stdout.flush()\n")
	b.WriteString(`    sys.stderr.write("%s: %s" % (type(_exc).__name__, _exc))` + "\n")
	b.WriteString("    sys.exit(1)\n")

	return b.String()
}
