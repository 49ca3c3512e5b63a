package compiler

import (
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/scanner"
)

// declaration compiles a top-level declaration form, synchronizing after
// an error so one mistake does not cascade into spurious follow-on
// errors.
func (c *Compiler) declaration() {
	switch {
	case c.match(scanner.TokenClass):
		c.classDeclaration()
	case c.match(scanner.TokenFun):
		c.funDeclaration()
	case c.match(scanner.TokenVar):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(scanner.TokenPrint):
		c.printStatement()
	case c.match(scanner.TokenFor):
		c.forStatement()
	case c.match(scanner.TokenIf):
		c.ifStatement()
	case c.match(scanner.TokenReturn):
		c.returnStatement()
	case c.match(scanner.TokenWhile):
		c.whileStatement()
	case c.match(scanner.TokenLeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(scanner.TokenRightBrace) && !c.check(scanner.TokenEOF) {
		c.declaration()
	}
	c.consume(scanner.TokenRightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(scanner.TokenSemicolon, "Expect ';' after value.")
	c.emitOp(heap.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(scanner.TokenSemicolon, "Expect ';' after expression.")
	c.emitOp(heap.OpPop)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(scanner.TokenEqual) {
		c.expression()
	} else {
		c.emitOp(heap.OpNil)
	}
	c.consume(scanner.TokenSemicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) ifStatement() {
	c.consume(scanner.TokenLeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOp(heap.OpPop)
	c.statement()

	elseJump := c.emitJump(heap.OpJump)
	c.patchJump(thenJump)
	c.emitOp(heap.OpPop)

	if c.match(scanner.TokenElse) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(scanner.TokenLeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOp(heap.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(heap.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(scanner.TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(scanner.TokenSemicolon):
		// No initializer.
	case c.match(scanner.TokenVar):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(scanner.TokenSemicolon) {
		c.expression()
		c.consume(scanner.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(heap.OpJumpIfFalse)
		c.emitOp(heap.OpPop)
	}

	if !c.match(scanner.TokenRightParen) {
		bodyJump := c.emitJump(heap.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(heap.OpPop)
		c.consume(scanner.TokenRightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(heap.OpPop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.current_.kind == heap.FuncScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(scanner.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.current_.kind == heap.FuncInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(scanner.TokenSemicolon, "Expect ';' after return value.")
	c.emitOp(heap.OpReturn)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(heap.FuncFunction)
	c.defineVariable(global)
}

// function compiles one function body (top-level `fun` or a method),
// pushing a fresh funcCompiler, parsing parameters as local declarations,
// compiling the body as a block, and emitting a CLOSURE back in the
// enclosing compiler with one (isLocal, index) byte pair per captured
// upvalue.
func (c *Compiler) function(kind heap.FunctionKind) {
	name := c.heap.InternString(c.previous.Lexeme)
	fn := c.heap.NewFunction(name, kind)

	fc := &funcCompiler{enclosing: c.current_, function: fn, kind: kind}
	if kind != heap.FuncScript {
		// Slot 0 holds `this` for methods/initializers, or is an
		// anonymous, unusable sentinel for plain functions.
		receiverName := ""
		if kind == heap.FuncMethod || kind == heap.FuncInitializer {
			receiverName = "this"
		}
		fc.locals[0] = local{name: scanner.Token{Lexeme: receiverName}, depth: 0}
	} else {
		fc.locals[0] = local{depth: 0}
	}
	fc.localCount = 1
	c.current_ = fc

	c.beginScope()
	c.consume(scanner.TokenLeftParen, "Expect '(' after function name.")
	if !c.check(scanner.TokenRightParen) {
		for {
			fc.function.Arity++
			if fc.function.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(scanner.TokenComma) {
				break
			}
		}
	}
	c.consume(scanner.TokenRightParen, "Expect ')' after parameters.")
	c.consume(scanner.TokenLeftBrace, "Expect '{' before function body.")
	c.block()

	compiled := c.endCompiler()

	idx, err := c.chunk().AddConstant(heap.Obj(compiled))
	if err != nil {
		c.error("Too many constants in one chunk.")
		return
	}
	c.emitOpByte(heap.OpClosure, byte(idx))
	for i := 0; i < compiled.UpvalueCount; i++ {
		u := fc.upvalues[i]
		if u.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(u.index)
	}
}
