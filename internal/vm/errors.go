package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/ahadu/internal/heap"
)

// runtimeError formats message, appends a frame-by-frame stack trace
// walking the frame stack top-down and printing each function's name
// and source line, resets the stack, and records the result so the
// dispatch loop can unwind and report failure.
//
// Grounded on kristofer-smog/pkg/vm.RuntimeError's Error() method,
// which walks a []StackFrame from the top down appending one "at ..."
// line per frame; ahadu's frames are walked directly instead of first
// copied into a StackFrame slice, since the VM's own frame stack
// already holds everything the trace needs.
func (vm *VM) runtimeError(format string, args ...any) {
	var b strings.Builder
	fmt.Fprintf(&b, format, args...)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := fn.Chunk.LineAt(frame.ip - 1)
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		fmt.Fprintf(&b, "\n[line %d] in %s", line, name)
	}

	vm.lastError = b.String()
	vm.resetStack()
}

func typeErrorOperands(op string, a, b heap.Value) string {
	return fmt.Sprintf("Operands to '%s' must both be numbers, got %s and %s.",
		op, heap.TypeName(a), heap.TypeName(b))
}
