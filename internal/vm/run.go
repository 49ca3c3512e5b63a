package vm

import (
	"fmt"

	"github.com/kristofer/ahadu/internal/debug"
	"github.com/kristofer/ahadu/internal/heap"
)

// run is the dispatch loop: one case per opcode, executed against the
// topmost call frame until a RETURN unwinds the last frame.
//
// Grounded in shape on kristofer-smog/pkg/vm.VM.Run's switch-per-
// opcode loop, but the switch itself follows original_source/vm.c's
// opcode semantics (the teacher's instruction set is a different,
// message-send-based design this spec replaces wholesale).
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi := int(readByte())
		lo := int(readByte())
		return hi<<8 | lo
	}
	readConstant := func() heap.Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *heap.String {
		return readConstant().AsObject().(*heap.String)
	}

	for {
		if vm.opts.TraceExecution && vm.opts.Debug != nil {
			debug.DisassembleInstruction(vm.opts.Debug, &frame.closure.Function.Chunk, frame.ip)
		}

		op := heap.OpCode(readByte())
		switch op {
		case heap.OpConstant:
			vm.push(readConstant())

		case heap.OpNil:
			vm.push(heap.Nil)
		case heap.OpTrue:
			vm.push(heap.Bool(true))
		case heap.OpFalse:
			vm.push(heap.Bool(false))
		case heap.OpPop:
			vm.pop()

		case heap.OpGetLocal:
			slot := readByte()
			vm.push(vm.stack[frame.base+int(slot)])
		case heap.OpSetLocal:
			slot := readByte()
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case heap.OpGetGlobal:
			name := readString()
			value, ok := vm.globals.Get(name)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return vm.unwind()
			}
			vm.push(value)
		case heap.OpDefineGlobal:
			name := readString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()
		case heap.OpSetGlobal:
			name := readString()
			if vm.globals.Set(name, vm.peek(0)) {
				// Set reports a brand new key, meaning this name was never
				// defined; undo the insert and report the error.
				vm.globals.Delete(name)
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return vm.unwind()
			}

		case heap.OpGetUpvalue:
			slot := readByte()
			vm.push(frame.closure.Upvalues[slot].Get())
		case heap.OpSetUpvalue:
			slot := readByte()
			frame.closure.Upvalues[slot].Set(vm.peek(0))

		case heap.OpGetProperty:
			if !vm.getProperty(readString()) {
				return vm.unwind()
			}
		case heap.OpSetProperty:
			name := readString()
			instance, ok := vm.peek(1).AsObject().(*heap.Instance)
			if !ok {
				vm.runtimeError("Only instances have fields.")
				return vm.unwind()
			}
			instance.Fields.Set(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)
		case heap.OpGetSuper:
			name := readString()
			superclass := vm.pop().AsObject().(*heap.Class)
			if !vm.bindMethod(superclass, name) {
				return vm.unwind()
			}

		case heap.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(heap.Bool(heap.Equal(a, b)))
		case heap.OpGreater:
			if !vm.numericBinary(op) {
				return vm.unwind()
			}
		case heap.OpLess:
			if !vm.numericBinary(op) {
				return vm.unwind()
			}

		case heap.OpAdd:
			if !vm.add() {
				return vm.unwind()
			}
		case heap.OpSubtract, heap.OpMultiply, heap.OpDivide:
			if !vm.numericBinary(op) {
				return vm.unwind()
			}

		case heap.OpNot:
			vm.push(heap.Bool(!vm.pop().Truthy()))
		case heap.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return vm.unwind()
			}
			vm.push(heap.Number(-vm.pop().AsNumber()))

		case heap.OpPrint:
			fmt.Fprintln(vm.opts.Out, heap.Print(vm.pop()))

		case heap.OpJump:
			offset := readShort()
			frame.ip += offset
		case heap.OpJumpIfFalse:
			offset := readShort()
			if !vm.peek(0).Truthy() {
				frame.ip += offset
			}
		case heap.OpLoop:
			offset := readShort()
			frame.ip -= offset

		case heap.OpCall:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return vm.unwind()
			}
			frame = &vm.frames[vm.frameCount-1]

		case heap.OpInvoke:
			name := readString()
			argCount := int(readByte())
			if !vm.invoke(name, argCount) {
				return vm.unwind()
			}
			frame = &vm.frames[vm.frameCount-1]
		case heap.OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			superclass := vm.pop().AsObject().(*heap.Class)
			if !vm.invokeFromClass(superclass, name, argCount) {
				return vm.unwind()
			}
			frame = &vm.frames[vm.frameCount-1]

		case heap.OpClosure:
			fn := readConstant().AsObject().(*heap.Function)
			upvalues := make([]*heap.Upvalue, fn.UpvalueCount)
			for i := range upvalues {
				isLocal := readByte()
				index := readByte()
				if isLocal != 0 {
					upvalues[i] = vm.captureUpvalue(&vm.stack[frame.base+int(index)])
				} else {
					upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			closure := vm.heap.NewClosure(fn, upvalues)
			vm.push(heap.Obj(closure))
		case heap.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case heap.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.base])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case heap.OpClass:
			vm.push(heap.Obj(vm.heap.NewClass(readString())))
		case heap.OpInherit:
			superVal := vm.peek(1)
			superclass, ok := superVal.AsObject().(*heap.Class)
			if !ok {
				vm.runtimeError("Superclass must be a class.")
				return vm.unwind()
			}
			subclass := vm.peek(0).AsObject().(*heap.Class)
			superclass.Methods.Range(func(key *heap.String, value heap.Value) {
				subclass.Methods.Set(key, value)
			})
			vm.pop() // the subclass
		case heap.OpMethod:
			vm.defineMethod(readString())

		default:
			vm.runtimeError("Unknown opcode %d.", byte(op))
			return vm.unwind()
		}
	}
}

// unwind converts an already-recorded runtime error into the error
// Interpret returns.
func (vm *VM) unwind() error {
	return &RuntimeError{Message: vm.lastError}
}

func (vm *VM) getProperty(name *heap.String) bool {
	instance, ok := vm.peek(0).AsObject().(*heap.Instance)
	if !ok {
		vm.runtimeError("Only instances have properties.")
		return false
	}
	if value, ok := instance.Fields.Get(name); ok {
		vm.pop()
		vm.push(value)
		return true
	}
	return vm.bindMethod(instance.Class, name)
}

func (vm *VM) defineMethod(name *heap.String) {
	method := vm.peek(0)
	class := vm.peek(1).AsObject().(*heap.Class)
	class.SetMethod(name, method)
	vm.pop()
}

// add implements the overloaded ADD opcode: numeric addition for two
// numbers, concatenation for two strings, a type error otherwise.
func (vm *VM) add() bool {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(heap.Number(a.AsNumber() + b.AsNumber()))
		return true
	case a.IsString() && b.IsString():
		// Intern the concatenated string while both operands are still on
		// the stack, so a collection triggered by InternString's
		// allocation still sees them as roots; the operands are popped
		// and the result pushed only afterwards, with no allocation in
		// between.
		result := a.AsString().Chars + b.AsString().Chars
		s := vm.heap.InternString(result)
		vm.pop()
		vm.pop()
		vm.push(heap.Obj(s))
		return true
	default:
		vm.runtimeError("Operands must be two numbers or two strings.")
		return false
	}
}

func (vm *VM) numericBinary(op heap.OpCode) bool {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		vm.runtimeError("%s", typeErrorOperands(opSymbol(op), a, b))
		return false
	}
	vm.pop()
	vm.pop()
	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case heap.OpGreater:
		vm.push(heap.Bool(x > y))
	case heap.OpLess:
		vm.push(heap.Bool(x < y))
	case heap.OpSubtract:
		vm.push(heap.Number(x - y))
	case heap.OpMultiply:
		vm.push(heap.Number(x * y))
	case heap.OpDivide:
		vm.push(heap.Number(x / y))
	}
	return true
}

func opSymbol(op heap.OpCode) string {
	switch op {
	case heap.OpGreater:
		return ">"
	case heap.OpLess:
		return "<"
	case heap.OpSubtract:
		return "-"
	case heap.OpMultiply:
		return "*"
	case heap.OpDivide:
		return "/"
	default:
		return op.String()
	}
}

