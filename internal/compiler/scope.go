package compiler

import (
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/scanner"
)

func (c *Compiler) beginScope() { c.current_.scopeDepth++ }

// endScope pops the current scope, emitting a POP (or CLOSE_UPVALUE, if
// the local was captured by a closure) for every local declared in it.
func (c *Compiler) endScope() {
	c.current_.scopeDepth--
	fc := c.current_
	for fc.localCount > 0 && fc.locals[fc.localCount-1].depth > fc.scopeDepth {
		if fc.locals[fc.localCount-1].isCaptured {
			c.emitOp(heap.OpCloseUpvalue)
		} else {
			c.emitOp(heap.OpPop)
		}
		fc.localCount--
	}
}

// declareVariable registers the identifier in c.previous as a new local
// in the current scope (no-op at global scope, where names are resolved
// dynamically by the constant-pool name instead).
func (c *Compiler) declareVariable() {
	if c.current_.scopeDepth == 0 {
		return
	}
	name := c.previous
	fc := c.current_
	for i := fc.localCount - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if identifiersEqual(name, l.name) {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name scanner.Token) {
	fc := c.current_
	if fc.localCount == len(fc.locals) {
		c.error("Too many local variables in one function.")
		return
	}
	fc.locals[fc.localCount] = local{name: name, depth: -1}
	fc.localCount++
}

func identifiersEqual(a, b scanner.Token) bool { return a.Lexeme == b.Lexeme }

// parseVariable consumes an identifier, declares it if local, and
// returns the constant-pool index to use for DEFINE_GLOBAL if it turns
// out to be global (the index is unused, but harmless, for locals).
func (c *Compiler) parseVariable(errorMessage string) byte {
	c.consume(scanner.TokenIdentifier, errorMessage)
	c.declareVariable()
	if c.current_.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

// markInitialized records that the most recently declared local is now
// safe to read: depth == -1 means declared but not yet initialized. At
// global scope there is no local slot to mark.
func (c *Compiler) markInitialized() {
	if c.current_.scopeDepth == 0 {
		return
	}
	c.current_.locals[c.current_.localCount-1].depth = c.current_.scopeDepth
}

// defineVariable emits the bytecode that makes a just-parsed variable
// visible: DEFINE_GLOBAL at global scope, or simply marking the local
// initialized (its value is already sitting in the right stack slot).
func (c *Compiler) defineVariable(global byte) {
	if c.current_.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(heap.OpDefineGlobal, global)
}

// resolveLocal scans locals top-down by name; a match whose depth is -1
// (referenced in its own initializer) is an error.
func resolveLocal(fc *funcCompiler, name scanner.Token, onError func(string)) int {
	for i := fc.localCount - 1; i >= 0; i-- {
		l := fc.locals[i]
		if identifiersEqual(name, l.name) {
			if l.depth == -1 {
				onError("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recurses into enclosing compilers, capturing a local
// or an already-captured upvalue and coalescing duplicates by (index,
// isLocal).
func resolveUpvalue(fc *funcCompiler, name scanner.Token, onError func(string)) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := resolveLocal(fc.enclosing, name, onError); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return addUpvalue(fc, byte(local), true, onError)
	}
	if up := resolveUpvalue(fc.enclosing, name, onError); up != -1 {
		return addUpvalue(fc, byte(up), false, onError)
	}
	return -1
}

func addUpvalue(fc *funcCompiler, index byte, isLocal bool, onError func(string)) int {
	count := fc.function.UpvalueCount
	for i := 0; i < count; i++ {
		u := fc.upvalues[i]
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if count == len(fc.upvalues) {
		onError("Too many closure variables in function.")
		return 0
	}
	fc.upvalues[count] = upvalueRef{index: index, isLocal: isLocal}
	fc.function.UpvalueCount++
	return count
}
