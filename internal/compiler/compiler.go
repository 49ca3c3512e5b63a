// Package compiler implements ahadu's single-pass Pratt parser and
// bytecode emitter. It is the most substantial piece of the pipeline:
// parsing and code generation happen in the same pass, driven by a
// table keyed by token kind that associates an optional prefix rule, an
// optional infix rule, and a binding precedence with each token.
//
// Grounded in shape on kristofer-smog/pkg/compiler (a Compiler struct
// holding parse state and emitting into an instruction list) and
// kristofer-smog/pkg/parser (token-stream-driven recursive descent with
// panic-mode error recovery), but merged into one pass and one package:
// the teacher's compiler consumes an already-built pkg/ast tree from a
// separate parser stage, which a single-pass design like this one has
// no use for. The emitted instruction format (raw bytes + 16-bit jump
// immediates into a Chunk) follows original_source/compiler.c instead of
// the teacher's Instruction{Op,Operand} slice.
package compiler

import (
	"fmt"
	"io"

	"github.com/kristofer/ahadu/internal/debug"
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/scanner"
)

// Options configures optional compiler behavior. PrintCode gates
// at-compile-time disassembly, grouped on a struct rather than a
// global #define the way original_source/common.h toggled it.
type Options struct {
	PrintCode bool
	Debug     io.Writer
}

// initializerName is the reserved method name that marks a method as a
// class's initializer. See isInitializerName in class.go for why the
// original C implementation's length-comparison bug has nothing to
// reproduce here.
const initializerName = "ማስጀመሪያ"

// Precedence levels, low to high.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . () invoke
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// local tracks one declared-but-maybe-not-yet-initialized local
// variable slot.
type local struct {
	name       scanner.Token
	depth      int // -1 means declared but not initialized
	isCaptured bool
}

// upvalueRef records one upvalue a function compiler must capture,
// either from its enclosing function's locals (isLocal) or from the
// enclosing function's own upvalues.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcCompiler is the per-compiled-function state: one is pushed per
// nested function/method, the innermost being "current".
type funcCompiler struct {
	enclosing *funcCompiler
	function  *heap.Function
	kind      heap.FunctionKind

	locals     [256]local
	localCount int
	upvalues   [256]upvalueRef
	scopeDepth int
}

// classCompiler tracks nested class contexts, carrying whether the class
// currently being compiled has a superclass (needed so `super` can be
// rejected where there is none).
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is the single-pass parser/emitter. One Compiler instance
// compiles exactly one top-level script; nested functions and methods
// are represented by pushing/popping funcCompiler frames on current,
// not by separate Compiler instances, so the whole program shares one
// scanner and one error-recovery state.
type Compiler struct {
	scanner *scanner.Scanner
	heap    *heap.Heap

	previous scanner.Token
	current  scanner.Token

	hadError  bool
	panicMode bool
	errf      func(line int, where, message string)
	opts      Options

	current_ *funcCompiler
	class    *classCompiler

	rules [ruleTableSize]parseRule
}

// ruleTableSize must exceed the highest scanner.TokenKind value.
const ruleTableSize = int(scanner.TokenWhile) + 1

// ErrorReporter receives one formatted diagnostic per compile error, in
// the "[line N] Error [at '<lexeme>' | at end]: <message>" shape (the
// caller is responsible for exact formatting; Compile passes the parts).
type ErrorReporter func(line int, where, message string)

// Compile compiles source into a top-level script Function, or reports
// that compilation failed. On failure the returned Function is nil.
//
// The Compiler registers itself as a heap root for the duration of the
// call and deregisters on return, so any collection triggered by
// compile-time allocation (a nested function's Function object, an
// interned identifier, ...) can see every not-yet-linked-anywhere
// Function still under construction; without this, a function built
// mid-compile would be invisible to a collection until the whole
// program finished compiling and the function got linked into its
// enclosing chunk's constant pool.
func Compile(source string, h *heap.Heap, onError ErrorReporter, opts Options) (*heap.Function, bool) {
	c := &Compiler{
		scanner: scanner.New(source),
		heap:    h,
		errf:    onError,
		opts:    opts,
	}
	h.AddRoot(c)
	defer h.RemoveRoot(c)
	c.installRules()

	fn := h.NewFunction(nil, heap.FuncScript)
	c.current_ = &funcCompiler{function: fn, kind: heap.FuncScript}
	c.current_.locals[0] = local{depth: 0}
	c.current_.localCount = 1

	c.advance()
	for !c.match(scanner.TokenEOF) {
		c.declaration()
	}
	fn = c.endCompiler()
	if c.hadError {
		return nil, false
	}
	return fn, true
}

// MarkRoots marks every function object reachable from the in-flight
// compiler chain: one funcCompiler per nested function or method
// currently being compiled, linked from innermost (current_) outward
// through enclosing.
func (c *Compiler) MarkRoots(h *heap.Heap) {
	for fc := c.current_; fc != nil; fc = fc.enclosing {
		h.MarkObject(fc.function)
	}
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Kind != scanner.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind scanner.TokenKind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind scanner.TokenKind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind scanner.TokenKind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- error reporting and recovery --------------------------------------

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

func (c *Compiler) errorAt(tok scanner.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := fmt.Sprintf("at '%s'", tok.Lexeme)
	if tok.Kind == scanner.TokenEOF {
		where = "at end"
	} else if tok.Kind == scanner.TokenError {
		where = ""
	}
	if c.errf != nil {
		c.errf(tok.Line, where, message)
	}
}

// synchronize advances past the current statement after an error:
// stop after a semicolon or before a statement-starting keyword.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != scanner.TokenEOF {
		if c.previous.Kind == scanner.TokenSemicolon {
			return
		}
		switch c.current.Kind {
		case scanner.TokenClass, scanner.TokenFun, scanner.TokenVar, scanner.TokenFor,
			scanner.TokenIf, scanner.TokenWhile, scanner.TokenPrint, scanner.TokenReturn:
			return
		}
		c.advance()
	}
}

// --- emission -----------------------------------------------------------

func (c *Compiler) chunk() *heap.Chunk { return &c.current_.function.Chunk }

func (c *Compiler) emitByte(b byte) {
	c.chunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op heap.OpCode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op heap.OpCode, operand byte) {
	c.emitOp(op)
	c.emitByte(operand)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(heap.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xFFFF {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset & 0xFF))
}

// emitJump writes op followed by a two-byte placeholder and returns the
// offset of the placeholder's first byte, for patchJump to fill in
// later once the jump target is known.
func (c *Compiler) emitJump(op heap.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xFF)
	c.emitByte(0xFF)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xFFFF {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump & 0xFF)
}

func (c *Compiler) emitReturn() {
	if c.current_.kind == heap.FuncInitializer {
		// Initializers implicitly return the receiver (slot 0).
		c.emitOpByte(heap.OpGetLocal, 0)
	} else {
		c.emitOp(heap.OpNil)
	}
	c.emitOp(heap.OpReturn)
}

// emitConstant pushes value onto the VM stack via OP_CONSTANT.
//
// The Value is already fully constructed by the time this runs (it is
// either a scanned literal or an already-interned string), so there is
// no intermediate allocation here for a collection to observe mid-
// construction; AddConstant itself never allocates.
func (c *Compiler) emitConstant(value heap.Value) {
	idx, err := c.chunk().AddConstant(value)
	if err != nil {
		c.error("Too many constants in one chunk.")
		return
	}
	c.emitOpByte(heap.OpConstant, byte(idx))
}

// identifierConstant interns name and adds it to the constant pool,
// returning its index, for use by GET_GLOBAL/SET_GLOBAL/GET_PROPERTY/
// etc., which all address names through the constant pool rather than
// embedding the text inline.
func (c *Compiler) identifierConstant(tok scanner.Token) byte {
	s := c.heap.InternString(tok.Lexeme)
	idx, err := c.chunk().AddConstant(heap.Obj(s))
	if err != nil {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

// endCompiler finishes the current function, emitting an implicit return
// and popping back to the enclosing compiler.
func (c *Compiler) endCompiler() *heap.Function {
	c.emitReturn()
	fn := c.current_.function
	if c.opts.PrintCode && !c.hadError && c.opts.Debug != nil {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		debug.DisassembleChunk(c.opts.Debug, &fn.Chunk, name)
	}
	c.current_ = c.current_.enclosing
	return fn
}
