// Package interp ties the compiler, heap, and VM together behind one
// entry point, mirroring how original_source/main.c's interpret()
// function hides compile() and the VM's run loop behind a single call.
// It also owns the native-function registration surface, which belongs
// to neither the heap (no notion of "a function implemented in Go") nor
// the VM (whose call protocol is generic over any callee kind).
package interp

import (
	"fmt"
	"time"

	"github.com/kristofer/ahadu/internal/compiler"
	"github.com/kristofer/ahadu/internal/diag"
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/vm"
)

// Result mirrors original_source/vm.h's InterpretResult enum, used by
// callers that need to distinguish compile failure from runtime failure
// rather than just "it failed".
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

// Options bundles every knob the pipeline's stages expose, so a caller
// configures one struct instead of threading heap.Options,
// compiler.Options, and vm.Options through separately.
type Options struct {
	Heap     heap.Options
	Compiler compiler.Options
	VM       vm.Options
}

// Interpreter is one long-lived instance of the pipeline: a heap, the
// VM running against it, and the reporter errors are written through.
// A single Interpreter persists across REPL lines so globals and
// function definitions accumulate across them.
type Interpreter struct {
	heap     *heap.Heap
	vm       *vm.VM
	reporter *diag.Reporter
	opts     Options
}

// New creates an Interpreter writing diagnostics through reporter.
func New(reporter *diag.Reporter, opts Options) *Interpreter {
	if opts.Heap.LogCollections && opts.Heap.Logf == nil {
		opts.Heap.Logf = reporter.Logf
	}
	if opts.VM.Out == nil {
		opts.VM.Out = reporter.Out
	}
	if opts.Compiler.Debug == nil {
		opts.Compiler.Debug = reporter.Err
	}
	if opts.VM.Debug == nil {
		opts.VM.Debug = reporter.Err
	}

	h := heap.NewHeap(opts.Heap)
	machine := vm.New(h, opts.VM)
	it := &Interpreter{heap: h, vm: machine, reporter: reporter, opts: opts}
	it.defineNative("ሰዓት", 0, it.clock)
	return it
}

// NativeFn is the signature every registered native function
// implements.
type NativeFn func(args []heap.Value) (heap.Value, error)

// DefineNative registers fn as a global callable under name, with the
// given fixed arity, checked against argc the same way a closure's
// arity is.
func (it *Interpreter) DefineNative(name string, arity int, fn NativeFn) {
	it.defineNative(name, arity, fn)
}

func (it *Interpreter) defineNative(name string, arity int, fn NativeFn) {
	native := it.heap.NewNative(name, arity, func(args []heap.Value) (heap.Value, error) {
		return fn(args)
	})
	nameStr := it.heap.InternString(name)
	it.vm.Globals().Set(nameStr, heap.Obj(native))
}

// clock implements the built-in ሰዓት() native: seconds elapsed since
// this Interpreter was created.
func (it *Interpreter) clock(args []heap.Value) (heap.Value, error) {
	return heap.Number(time.Since(it.vm.StartTime()).Seconds()), nil
}

// Run compiles and executes source, reporting any compile or runtime
// error through the Interpreter's Reporter and returning the tri-state
// result: ok, compile error, or runtime error.
func (it *Interpreter) Run(source string) Result {
	fn, ok := compiler.Compile(source, it.heap, it.reportCompileError, it.opts.Compiler)
	if !ok {
		return ResultCompileError
	}

	if err := it.vm.Interpret(fn); err != nil {
		it.reporter.RuntimeError(err.Error())
		return ResultRuntimeError
	}
	return ResultOK
}

func (it *Interpreter) reportCompileError(line int, where, message string) {
	if where != "" {
		it.reporter.CompileError(formatCompileError(line, where, message))
		return
	}
	it.reporter.CompileError(formatCompileErrorNoWhere(line, message))
}

// formatCompileError/formatCompileErrorNoWhere produce the
// "[line N] Error [at '<lexeme>' | at end]: <message>" format; kept as
// two tiny helpers rather than one with a branch so the common case
// (a located token) reads as a single format string.
func formatCompileError(line int, where, message string) string {
	return fmt.Sprintf("[line %d] Error %s: %s", line, where, message)
}

func formatCompileErrorNoWhere(line int, message string) string {
	return fmt.Sprintf("[line %d] Error: %s", line, message)
}
