package vm

import (
	"unsafe"

	"github.com/kristofer/ahadu/internal/heap"
)

// slotAddr returns a pointer usable for ordering comparisons against
// other pointers into the same vm.stack array. Open upvalues are kept
// in descending-slot order, which requires comparing two *Value
// addresses within one backing array; there is no portable "index of
// this pointer" operation in Go, so this uses ordinary
// pointer-to-uintptr conversion, valid because both pointers always
// point within the same non-moving array for the lifetime of the
// comparison.
func slotAddr(v *heap.Value) uintptr { return uintptr(unsafe.Pointer(v)) }

// captureUpvalue walks the open list (ordered by descending slot)
// looking for an existing upvalue over this exact slot; reuse it if
// found, otherwise allocate a new one and splice it into the list at
// the right position.
func (vm *VM) captureUpvalue(slot *heap.Value) *heap.Upvalue {
	var prev *heap.Upvalue
	cur := vm.openUpvalues
	for cur != nil && slotAddr(cur.Location) > slotAddr(slot) {
		prev = cur
		cur = cur.OpenNext
	}
	if cur != nil && cur.Location == slot {
		return cur
	}

	created := vm.heap.NewUpvalue(slot)
	created.OpenNext = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.OpenNext = created
	}
	return created
}

// closeUpvalues walks the open list from the head while it references
// a slot at or above minSlot, moves the stack value into the upvalue's
// own storage, and drops it from the list.
func (vm *VM) closeUpvalues(minSlot *heap.Value) {
	min := slotAddr(minSlot)
	for vm.openUpvalues != nil && slotAddr(vm.openUpvalues.Location) >= min {
		u := vm.openUpvalues
		u.Close()
		vm.openUpvalues = u.OpenNext
	}
}
