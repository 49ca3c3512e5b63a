package compiler

import (
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/scanner"
)

// classDeclaration compiles `class Name [< Super] { methods }` per spec
// §4.2: emit CLASS, define the variable, optionally bind a synthetic
// `super` local and emit INHERIT, then compile each method as a function
// followed by METHOD, matching the original's method-table-at-class-
// creation-time design (no runtime superclass pointer is kept; see
// heap.Class's doc comment).
func (c *Compiler) classDeclaration() {
	c.consume(scanner.TokenIdentifier, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok)
	c.declareVariable()

	c.emitOpByte(heap.OpClass, nameConstant)
	c.defineVariable(nameConstant)

	cc := &classCompiler{enclosing: c.class}
	c.class = cc

	if c.match(scanner.TokenLess) {
		c.consume(scanner.TokenIdentifier, "Expect superclass name.")
		c.variable(false) // pushes the superclass value
		if identifiersEqual(nameTok, c.previous) {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal(scanner.Token{Lexeme: "super"})
		c.defineVariable(0)

		c.namedVariable(nameTok, false) // push the class being defined
		c.emitOp(heap.OpInherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(nameTok, false) // push the class so methods can attach
	c.consume(scanner.TokenLeftBrace, "Expect '{' before class body.")
	for !c.check(scanner.TokenRightBrace) && !c.check(scanner.TokenEOF) {
		c.method()
	}
	c.consume(scanner.TokenRightBrace, "Expect '}' after class body.")
	c.emitOp(heap.OpPop) // the class pushed above

	if cc.hasSuperclass {
		c.endScope()
	}
	c.class = cc.enclosing
}

func (c *Compiler) method() {
	c.consume(scanner.TokenIdentifier, "Expect method name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok)

	kind := heap.FuncMethod
	if isInitializerName(nameTok.Lexeme) {
		kind = heap.FuncInitializer
	}
	c.function(kind)
	c.emitOpByte(heap.OpMethod, nameConstant)
}

// isInitializerName compares the full lexeme against initializerName.
// The original C source's bug (§9: a length check comparing codepoint
// count to byte count in one place) came from checking a prefix length
// separately from content; a whole-string Go comparison has no such
// split and so has nothing to standardize.
func isInitializerName(s string) bool {
	return s == initializerName
}
