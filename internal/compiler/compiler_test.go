package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ahadu/internal/heap"
)

func compile(t *testing.T, source string) *heap.Function {
	t.Helper()
	h := heap.NewHeap(heap.Options{})
	var errs []string
	fn, ok := Compile(source, h, func(line int, where, message string) {
		errs = append(errs, message)
	}, Options{})
	require.True(t, ok, "compile errors: %v", errs)
	require.NotNil(t, fn)
	return fn
}

func compileExpectError(t *testing.T, source string) []string {
	t.Helper()
	h := heap.NewHeap(heap.Options{})
	var errs []string
	_, ok := Compile(source, h, func(line int, where, message string) {
		errs = append(errs, message)
	}, Options{})
	require.False(t, ok)
	return errs
}

func TestCompileArithmeticExpressionStatement(t *testing.T) {
	fn := compile(t, "1 + 2 * 3;")
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpConstant)
	require.Contains(t, ops, heap.OpMultiply)
	require.Contains(t, ops, heap.OpAdd)
	require.Contains(t, ops, heap.OpPop)
	require.Equal(t, heap.OpReturn, last(ops))
}

func TestCompileVarDeclarationAndGlobalAccess(t *testing.T) {
	fn := compile(t, "መለያ x = 1; አውጣ x;")
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpDefineGlobal)
	require.Contains(t, ops, heap.OpGetGlobal)
	require.Contains(t, ops, heap.OpPrint)
}

func TestCompileLocalsUseSlotOpcodesNotGlobals(t *testing.T) {
	fn := compile(t, "{ መለያ x = 1; አውጣ x; }")
	ops := opcodesOf(fn.Chunk.Code)
	require.NotContains(t, ops, heap.OpDefineGlobal)
	require.Contains(t, ops, heap.OpGetLocal)
}

func TestCompileIfElseEmitsJumps(t *testing.T) {
	fn := compile(t, `ከሆነ (እውነት) { አውጣ 1; } ካልሆነ { አውጣ 2; }`)
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpJumpIfFalse)
	require.Contains(t, ops, heap.OpJump)
}

func TestCompileWhileEmitsLoop(t *testing.T) {
	fn := compile(t, `እስከ (ሀሰት) { አውጣ 1; }`)
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpLoop)
}

func TestCompileFunctionDeclarationEmitsClosure(t *testing.T) {
	fn := compile(t, `ተግባር f() { መልስ 1; } f();`)
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpClosure)
	require.Contains(t, ops, heap.OpCall)
}

func TestCompileClassEmitsClassAndMethod(t *testing.T) {
	fn := compile(t, `ክፍል Foo { bar() { መልስ 1; } }`)
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpClass)
	require.Contains(t, ops, heap.OpMethod)
}

func TestCompileMethodCallEmitsInvoke(t *testing.T) {
	fn := compile(t, `ክፍል Foo { bar() { መልስ 1; } } መለያ f = Foo(); f.bar();`)
	ops := opcodesOf(fn.Chunk.Code)
	require.Contains(t, ops, heap.OpInvoke)
}

func TestCompileReturnOutsideFunctionIsError(t *testing.T) {
	errs := compileExpectError(t, "መልስ 1;")
	require.NotEmpty(t, errs)
}

func TestCompileThisOutsideClassIsError(t *testing.T) {
	errs := compileExpectError(t, "አውጣ ይህ;")
	require.NotEmpty(t, errs)
}

func TestCompileSuperWithoutSuperclassIsError(t *testing.T) {
	errs := compileExpectError(t, `ክፍል Foo { bar() { ታላቅ.bar(); } }`)
	require.NotEmpty(t, errs)
}

func opcodesOf(code []byte) []heap.OpCode {
	var ops []heap.OpCode
	for i := 0; i < len(code); {
		op := heap.OpCode(code[i])
		ops = append(ops, op)
		i += operandWidth(op) + 1
	}
	return ops
}

// operandWidth returns how many immediate bytes follow op, enough to
// walk the code stream without misinterpreting an operand byte as the
// next opcode.
func operandWidth(op heap.OpCode) int {
	switch op {
	case heap.OpConstant, heap.OpGetLocal, heap.OpSetLocal, heap.OpGetGlobal,
		heap.OpDefineGlobal, heap.OpSetGlobal, heap.OpGetUpvalue, heap.OpSetUpvalue,
		heap.OpGetProperty, heap.OpSetProperty, heap.OpGetSuper, heap.OpCall,
		heap.OpClass, heap.OpMethod:
		return 1
	case heap.OpJump, heap.OpJumpIfFalse, heap.OpLoop, heap.OpInvoke, heap.OpSuperInvoke:
		return 2
	case heap.OpClosure:
		return 1 // plus per-upvalue bytes, not needed for these tests' assertions
	default:
		return 0
	}
}

func last(ops []heap.OpCode) heap.OpCode {
	if len(ops) == 0 {
		return heap.OpReturn
	}
	return ops[len(ops)-1]
}
