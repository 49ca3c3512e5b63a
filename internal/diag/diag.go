// Package diag implements ahadu's diagnostic output: the stdout/stderr
// writers every compile and runtime error is reported through, plus the
// process exit-code convention the CLI uses.
//
// Trimmed down from jcorbin-gothird/internal/logio's Logger: that type
// supports wrapping/unwrapping the output stream mid-run (used by
// gothird to pipe output through external filters) and retains an
// internal buffer shared across levels. ahadu never redirects output
// mid-run and never needs more than "print this line, remember whether
// anything failed", so Reporter keeps just the writers and the
// exit-code accumulator.
package diag

import (
	"fmt"
	"io"
)

// Exit codes, following the sysexits.h convention the original CLI used.
const (
	ExitOK           = 0
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 60
	ExitIOError      = 74
)

// Reporter writes diagnostics to Out (normal output, used by PRINT) and
// Err (compile/runtime errors), and tracks the exit code a run should
// terminate with.
type Reporter struct {
	Out      io.Writer
	Err      io.Writer
	exitCode int
}

// New creates a Reporter writing to out/err, with ExitOK as the initial
// exit code.
func New(out, err io.Writer) *Reporter {
	return &Reporter{Out: out, Err: err}
}

// Print writes s followed by a newline to Out, the same writer the
// interpreter hands the VM for PRINT output.
func (r *Reporter) Print(s string) {
	fmt.Fprintln(r.Out, s)
}

// CompileError reports a compile-time error and sets the exit code. The
// caller passes the fully formatted "[line N] Error [at '<lexeme>' | at
// end]: <message>" line; CompileError writes it to Err unchanged and
// records the resulting exit status.
func (r *Reporter) CompileError(line string) {
	fmt.Fprintln(r.Err, line)
	r.exitCode = ExitCompileError
}

// RuntimeError reports a runtime error (message plus stack trace) and
// sets the exit code.
func (r *Reporter) RuntimeError(message string) {
	fmt.Fprintln(r.Err, message)
	r.exitCode = ExitRuntimeError
}

// Logf writes a diagnostic line (e.g. a GC collection summary) to Err
// without affecting the exit code. It satisfies the
// func(format string, args ...any) signature heap.Options.Logf expects.
func (r *Reporter) Logf(format string, args ...any) {
	fmt.Fprintf(r.Err, format+"\n", args...)
}

// ExitCode returns the exit code this reporter has accumulated: 0 unless
// CompileError or RuntimeError was called, or SetExitCode overrode it.
func (r *Reporter) ExitCode() int { return r.exitCode }

// SetExitCode forcibly sets the exit code, used by the CLI for the
// usage (64) and I/O (74) cases that never go through CompileError or
// RuntimeError.
func (r *Reporter) SetExitCode(code int) { r.exitCode = code }
