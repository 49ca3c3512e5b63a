package vm

import "github.com/kristofer/ahadu/internal/heap"

// MarkRoots implements heap.RootMarker: every value currently on the
// stack, every active frame's closure, every globals entry, every open
// upvalue, and the interned initializer-name string.
func (vm *VM) MarkRoots(h *heap.Heap) {
	for i := 0; i < vm.stackTop; i++ {
		h.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		h.MarkObject(vm.frames[i].closure)
	}
	h.MarkTable(&vm.globals)
	for u := vm.openUpvalues; u != nil; u = u.OpenNext {
		h.MarkObject(u)
	}
	if vm.initializerStr != nil {
		h.MarkObject(vm.initializerStr)
	}
}
