// Package debug implements the optional bytecode disassembler. Grounded
// on original_source/debug.c's disassembleChunk/disassembleInstruction
// pair, ported line-for-line in shape: a banner, then one line per
// instruction with offset, source line (or "|" when unchanged from the
// previous instruction), opcode name, and an opcode-specific operand
// rendering.
package debug

import (
	"fmt"
	"io"

	"github.com/kristofer/ahadu/internal/heap"
)

// DisassembleChunk writes a banner followed by every instruction in
// chunk, in order, to w.
func DisassembleChunk(w io.Writer, chunk *heap.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction writes the single instruction at offset and
// returns the offset of the next instruction.
func DisassembleInstruction(w io.Writer, chunk *heap.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.LineAt(offset) == chunk.LineAt(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.LineAt(offset))
	}

	op := heap.OpCode(chunk.Code[offset])
	switch op {
	case heap.OpConstant, heap.OpGetGlobal, heap.OpDefineGlobal, heap.OpSetGlobal,
		heap.OpGetProperty, heap.OpSetProperty, heap.OpGetSuper, heap.OpClass, heap.OpMethod:
		return constantInstruction(w, op, chunk, offset)
	case heap.OpGetLocal, heap.OpSetLocal, heap.OpGetUpvalue, heap.OpSetUpvalue, heap.OpCall:
		return byteInstruction(w, op, chunk, offset)
	case heap.OpJump, heap.OpJumpIfFalse:
		return jumpInstruction(w, op, 1, chunk, offset)
	case heap.OpLoop:
		return jumpInstruction(w, op, -1, chunk, offset)
	case heap.OpInvoke, heap.OpSuperInvoke:
		return invokeInstruction(w, op, chunk, offset)
	case heap.OpClosure:
		return closureInstruction(w, chunk, offset)
	default:
		return simpleInstruction(w, op, offset)
	}
}

func simpleInstruction(w io.Writer, op heap.OpCode, offset int) int {
	fmt.Fprintf(w, "%s\n", op)
	return offset + 1
}

func byteInstruction(w io.Writer, op heap.OpCode, chunk *heap.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func constantInstruction(w io.Writer, op heap.OpCode, chunk *heap.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, heap.Print(chunk.Constants[idx]))
	return offset + 2
}

func jumpInstruction(w io.Writer, op heap.OpCode, sign int, chunk *heap.Chunk, offset int) int {
	hi := int(chunk.Code[offset+1])
	lo := int(chunk.Code[offset+2])
	jump := hi<<8 | lo
	target := offset + 3 + sign*jump
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func invokeInstruction(w io.Writer, op heap.OpCode, chunk *heap.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, heap.Print(chunk.Constants[idx]))
	return offset + 3
}

func closureInstruction(w io.Writer, chunk *heap.Chunk, offset int) int {
	offset++
	constant := chunk.Code[offset]
	offset++
	fmt.Fprintf(w, "%-16s %4d '%s'\n", heap.OpClosure, constant, heap.Print(chunk.Constants[constant]))

	fn, ok := chunk.Constants[constant].AsObject().(*heap.Function)
	if !ok {
		return offset
	}
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := chunk.Code[offset]
		offset++
		index := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
