// Package vm implements ahadu's bytecode virtual machine.
//
// The VM is a stack-based interpreter that executes the Chunks the
// compiler package emits. It is the final stage in the pipeline:
//
//	Source -> Scanner -> Compiler -> Chunk -> VM -> Execution
//
// Execution model:
//
// A CallFrame addresses a slice of the shared value stack as its
// locals, with an instruction pointer into its closure's function's
// chunk. Calling pushes a frame; returning closes upvalues down to the
// frame's base, pops it, and resumes the caller at the frame below.
// There is no separate frame-local stack; everything lives on one
// contiguous value stack, matching the original_source/vm.h layout this
// package ports (CallFrame.slots points directly into VM.stack).
//
// Grounded in shape on kristofer-smog/pkg/vm.VM (a struct holding a
// value stack, stack pointer, globals map, and a Run-style dispatch
// loop with a big opcode switch), generalized from its flat single-
// frame model to a frame-stack-of-closures model supporting nested and
// recursive calls, and from its interface{} values to heap.Value.
package vm

import (
	"io"
	"time"

	"github.com/kristofer/ahadu/internal/heap"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// Options configures optional VM behavior, grouped on a struct rather
// than compile-time switches.
type Options struct {
	// Out receives OP_PRINT output: the printed representation of
	// whatever value is on top of the stack. Required; the interpreter
	// package wires this to its diag.Reporter.
	Out io.Writer
	// TraceExecution prints each instruction before it executes, via
	// internal/debug, when Debug is non-nil.
	TraceExecution bool
	Debug          io.Writer
}

// CallFrame is one active call's bookkeeping: its closure, the
// instruction pointer into that closure's function's chunk, and the
// base index into VM.stack where its local slot 0 lives.
type CallFrame struct {
	closure *heap.Closure
	ip      int
	base    int
}

// VM is the stack machine that executes compiled chunks. One VM
// persists across REPL lines so that global variable and function
// definitions accumulate across them.
type VM struct {
	heap *heap.Heap

	stack    [stackMax]heap.Value
	stackTop int

	frames     [framesMax]CallFrame
	frameCount int

	globals heap.Table

	openUpvalues *heap.Upvalue // head of the open list, ordered by descending slot

	startTime time.Time
	lastError string

	// initializerStr is the interned "ማስጀመሪያ" string, kept as its own
	// root since it is looked up on every instantiation regardless of
	// whether any in-flight value still references it.
	initializerStr *heap.String

	opts Options
}

// initializerLiteral is the method name ahadu reserves for initializers,
// mirrored here (rather than imported from internal/compiler) because
// the VM must not depend on the compiler package: it only ever sees
// already-compiled chunks.
const initializerLiteral = "ማስጀመሪያ"

// initializerName returns the canonical interned initializer-name
// string, interning it on first use.
func (vm *VM) initializerName() *heap.String {
	if vm.initializerStr == nil {
		vm.initializerStr = vm.heap.InternString(initializerLiteral)
	}
	return vm.initializerStr
}

// New creates a VM backed by h, registering the VM as h's root marker
// so a collection can trace this VM's stack, frames, globals, and open
// upvalues.
func New(h *heap.Heap, opts Options) *VM {
	vm := &VM{heap: h, opts: opts, startTime: time.Now()}
	h.SetRoots(vm)
	return vm
}

// Globals exposes the global variable table so callers (the
// interpreter package's native registration) can install entries
// before running any source.
func (vm *VM) Globals() *heap.Table { return &vm.globals }

// StartTime reports when this VM was created, used by the built-in
// clock() native to report elapsed seconds.
func (vm *VM) StartTime() time.Time { return vm.startTime }

func (vm *VM) push(v heap.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() heap.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) heap.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// RuntimeError is returned by Interpret when execution fails; Message is the
// formatted error plus a frame-by-frame trace, walking the frame stack
// top-down and printing each function's name and source line.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// Interpret runs fn (the compiler's top-level script Function) to
// completion. fn is wrapped in a closure with no upvalues and called
// with zero arguments, matching how the original source bootstraps
// execution by running the whole script through the same call protocol
// as any other function.
func (vm *VM) Interpret(fn *heap.Function) error {
	vm.push(heap.Obj(fn))
	closure := vm.heap.NewClosure(fn, nil)
	vm.pop()
	vm.push(heap.Obj(closure))
	if !vm.call(closure, 0) {
		return &RuntimeError{Message: vm.lastError}
	}
	return vm.run()
}
