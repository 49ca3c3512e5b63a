package vm

import "github.com/kristofer/ahadu/internal/heap"

// callValue implements the call protocol: inspect the callee sitting
// beneath argCount arguments on the stack and dispatch by its kind.
// Returns false (having already called runtimeError) on any failure,
// matching the rest of the dispatch loop's error convention.
func (vm *VM) callValue(callee heap.Value, argCount int) bool {
	if !callee.IsObject() {
		vm.runtimeError("Can only call functions and classes.")
		return false
	}

	switch obj := callee.AsObject().(type) {
	case *heap.Closure:
		return vm.call(obj, argCount)
	case *heap.Native:
		return vm.callNative(obj, argCount)
	case *heap.BoundMethod:
		vm.stack[vm.stackTop-argCount-1] = obj.Receiver
		return vm.call(obj.Method, argCount)
	case *heap.Class:
		return vm.instantiate(obj, argCount)
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

// call pushes a new frame for closure, verifying arity and the
// frame-stack depth limit: the new frame's ip starts at the closure's
// function's first instruction, with its base slot at
// stackTop - argCount - 1 so local 0 lands on the callee itself (or
// the receiver, for a method).
func (vm *VM) call(closure *heap.Closure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.base = vm.stackTop - argCount - 1
	return true
}

// callNative invokes a native function synchronously in place,
// replacing the callee and its arguments with the return value.
func (vm *VM) callNative(native *heap.Native, argCount int) bool {
	if argCount != native.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
		return false
	}
	args := vm.stack[vm.stackTop-argCount : vm.stackTop]
	result, err := native.Fn(args)
	if err != nil {
		vm.runtimeError("%s", err.Error())
		return false
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return true
}

// instantiate allocates a new Instance of class into the callee slot,
// then invokes its initializer (if any) with the supplied arguments,
// or rejects a non-empty argument list when there is none.
func (vm *VM) instantiate(class *heap.Class, argCount int) bool {
	instance := vm.heap.NewInstance(class)
	vm.stack[vm.stackTop-argCount-1] = heap.Obj(instance)

	if initializer, ok := class.Method(vm.initializerName()); ok {
		return vm.call(initializer.AsObject().(*heap.Closure), argCount)
	}
	if argCount != 0 {
		vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		return false
	}
	return true
}

// invoke handles the common `obj.method(args)` shape directly via the
// fused INVOKE opcode, avoiding a separate GET_PROPERTY + CALL round
// trip.
func (vm *VM) invoke(name *heap.String, argCount int) bool {
	receiver := vm.peek(argCount)
	instance, ok := receiver.AsObject().(*heap.Instance)
	if !ok {
		vm.runtimeError("Only instances have methods.")
		return false
	}

	if field, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	method, ok := instance.Class.Method(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method.AsObject().(*heap.Closure), argCount)
}

// invokeFromClass resolves name directly against class's method table,
// bypassing instance field lookup entirely; used by SUPER_INVOKE, which
// always means the superclass's version of the method.
func (vm *VM) invokeFromClass(class *heap.Class, name *heap.String, argCount int) bool {
	method, ok := class.Method(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method.AsObject().(*heap.Closure), argCount)
}

// bindMethod resolves name on class, wraps it with receiver into a
// BoundMethod, and pushes it in place of the receiver (used by plain
// GET_PROPERTY when no field of that name exists, and by GET_SUPER).
func (vm *VM) bindMethod(class *heap.Class, name *heap.String) bool {
	method, ok := class.Method(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), method.AsObject().(*heap.Closure))
	vm.pop()
	vm.push(heap.Obj(bound))
	return true
}
