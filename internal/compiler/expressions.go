package compiler

import (
	"strconv"

	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/scanner"
)

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

// parsePrecedence is the precedence-climbing core: advance once, look
// up a prefix rule for the token just consumed (absent is an
// "expression expected" error), invoke it, then keep consuming infix
// operators whose precedence is >= p.
func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	prefix := c.rules[c.previous.Kind].prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := p <= precAssignment
	prefix(c, canAssign)

	for p <= c.rules[c.current.Kind].precedence {
		c.advance()
		infix := c.rules[c.previous.Kind].infix
		infix(c, canAssign)
	}

	if canAssign && c.match(scanner.TokenEqual) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) installRules() {
	set := func(kind scanner.TokenKind, prefix, infix parseFn, prec precedence) {
		c.rules[kind] = parseRule{prefix: prefix, infix: infix, precedence: prec}
	}

	set(scanner.TokenLeftParen, (*Compiler).grouping, (*Compiler).call, precCall)
	set(scanner.TokenDot, nil, (*Compiler).dot, precCall)
	set(scanner.TokenMinus, (*Compiler).unary, (*Compiler).binary, precTerm)
	set(scanner.TokenPlus, nil, (*Compiler).binary, precTerm)
	set(scanner.TokenSlash, nil, (*Compiler).binary, precFactor)
	set(scanner.TokenStar, nil, (*Compiler).binary, precFactor)
	set(scanner.TokenBang, (*Compiler).unary, nil, precNone)
	set(scanner.TokenBangEqual, nil, (*Compiler).binary, precEquality)
	set(scanner.TokenEqualEqual, nil, (*Compiler).binary, precEquality)
	set(scanner.TokenGreater, nil, (*Compiler).binary, precComparison)
	set(scanner.TokenGreaterEqual, nil, (*Compiler).binary, precComparison)
	set(scanner.TokenLess, nil, (*Compiler).binary, precComparison)
	set(scanner.TokenLessEqual, nil, (*Compiler).binary, precComparison)
	set(scanner.TokenIdentifier, (*Compiler).variableExpr, nil, precNone)
	set(scanner.TokenString, (*Compiler).stringExpr, nil, precNone)
	set(scanner.TokenNumber, (*Compiler).number, nil, precNone)
	set(scanner.TokenAnd, nil, (*Compiler).and, precAnd)
	set(scanner.TokenOr, nil, (*Compiler).or, precOr)
	set(scanner.TokenFalse, (*Compiler).literal, nil, precNone)
	set(scanner.TokenTrue, (*Compiler).literal, nil, precNone)
	set(scanner.TokenNil, (*Compiler).literal, nil, precNone)
	set(scanner.TokenThis, (*Compiler).this, nil, precNone)
	set(scanner.TokenSuper, (*Compiler).super, nil, precNone)
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(scanner.TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) number(canAssign bool) {
	f, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(heap.Number(f))
}

func (c *Compiler) stringExpr(canAssign bool) {
	// Lexeme includes the surrounding quotes, since tokens carry the raw
	// source text rather than a decoded value; strip them here. No escape
	// processing.
	raw := c.previous.Lexeme
	content := raw[1 : len(raw)-1]
	c.emitConstant(heap.Obj(c.heap.InternString(content)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case scanner.TokenFalse:
		c.emitOp(heap.OpFalse)
	case scanner.TokenTrue:
		c.emitOp(heap.OpTrue)
	case scanner.TokenNil:
		c.emitOp(heap.OpNil)
	}
}

func (c *Compiler) unary(canAssign bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case scanner.TokenBang:
		c.emitOp(heap.OpNot)
	case scanner.TokenMinus:
		c.emitOp(heap.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opKind := c.previous.Kind
	rule := c.rules[opKind]
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case scanner.TokenBangEqual:
		c.emitOp(heap.OpEqual)
		c.emitOp(heap.OpNot)
	case scanner.TokenEqualEqual:
		c.emitOp(heap.OpEqual)
	case scanner.TokenGreater:
		c.emitOp(heap.OpGreater)
	case scanner.TokenGreaterEqual:
		c.emitOp(heap.OpLess)
		c.emitOp(heap.OpNot)
	case scanner.TokenLess:
		c.emitOp(heap.OpLess)
	case scanner.TokenLessEqual:
		c.emitOp(heap.OpGreater)
		c.emitOp(heap.OpNot)
	case scanner.TokenPlus:
		c.emitOp(heap.OpAdd)
	case scanner.TokenMinus:
		c.emitOp(heap.OpSubtract)
	case scanner.TokenStar:
		c.emitOp(heap.OpMultiply)
	case scanner.TokenSlash:
		c.emitOp(heap.OpDivide)
	}
}

func (c *Compiler) and(canAssign bool) {
	endJump := c.emitJump(heap.OpJumpIfFalse)
	c.emitOp(heap.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(canAssign bool) {
	elseJump := c.emitJump(heap.OpJumpIfFalse)
	endJump := c.emitJump(heap.OpJump)

	c.patchJump(elseJump)
	c.emitOp(heap.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argCount := c.argumentList()
	c.emitOpByte(heap.OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(scanner.TokenRightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(scanner.TokenComma) {
				break
			}
		}
	}
	c.consume(scanner.TokenRightParen, "Expect ')' after arguments.")
	return byte(count)
}

// dot compiles `.prop`, `.prop = value`, and the fused `.prop(args)`
// call form, which compiles directly to OP_INVOKE instead of a
// GET_PROPERTY followed by a CALL.
func (c *Compiler) dot(canAssign bool) {
	c.consume(scanner.TokenIdentifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous)

	switch {
	case canAssign && c.match(scanner.TokenEqual):
		c.expression()
		c.emitOpByte(heap.OpSetProperty, name)
	case c.match(scanner.TokenLeftParen):
		argCount := c.argumentList()
		c.emitOpByte(heap.OpInvoke, name)
		c.emitByte(argCount)
	default:
		c.emitOpByte(heap.OpGetProperty, name)
	}
}

func (c *Compiler) this(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	// The receiver lives in slot 0 under the name "this" (see function),
	// whatever keyword spelled it in the source.
	c.namedVariable(scanner.Token{Kind: scanner.TokenThis, Lexeme: "this", Line: c.previous.Line}, false)
}

// super compiles `super.m` (GET_SUPER) and the fused `super.m(args)`
// form (SUPER_INVOKE), both of which implicitly push `this` and the
// captured `super` local before resolving the method.
func (c *Compiler) super(canAssign bool) {
	if c.class == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.class.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(scanner.TokenDot, "Expect '.' after 'super'.")
	c.consume(scanner.TokenIdentifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous)

	c.namedVariable(scanner.Token{Kind: scanner.TokenThis, Lexeme: "this"}, false)
	if c.match(scanner.TokenLeftParen) {
		argCount := c.argumentList()
		c.namedVariable(scanner.Token{Kind: scanner.TokenSuper, Lexeme: "super"}, false)
		c.emitOpByte(heap.OpSuperInvoke, name)
		c.emitByte(argCount)
	} else {
		c.namedVariable(scanner.Token{Kind: scanner.TokenSuper, Lexeme: "super"}, false)
		c.emitOpByte(heap.OpGetSuper, name)
	}
}

func (c *Compiler) variableExpr(canAssign bool) { c.variable(canAssign) }

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

// namedVariable resolves name -> local -> upvalue -> global and emits
// the matching GET/SET pair, accepting an assignment only when
// canAssign and a following `=` is present.
func (c *Compiler) namedVariable(name scanner.Token, canAssign bool) {
	var getOp, setOp heap.OpCode
	var arg int

	onError := func(msg string) { c.error(msg) }

	if local := resolveLocal(c.current_, name, onError); local != -1 {
		getOp, setOp = heap.OpGetLocal, heap.OpSetLocal
		arg = local
	} else if up := resolveUpvalue(c.current_, name, onError); up != -1 {
		getOp, setOp = heap.OpGetUpvalue, heap.OpSetUpvalue
		arg = up
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = heap.OpGetGlobal, heap.OpSetGlobal
	}

	if canAssign && c.match(scanner.TokenEqual) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}
