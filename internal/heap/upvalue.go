package heap

// Upvalue is a relocatable reference to a variable that may outlive the
// stack frame that declared it. While open it points at a live stack
// slot (Location); once closed it owns the value itself (Closed) and
// Location is nil.
//
// Open upvalues are threaded into a singly-linked list by the VM,
// ordered by strictly descending stack slot; OpenNext is that list's
// intrusive link, owned and maintained by the VM, not by Upvalue itself.
type Upvalue struct {
	header
	Location *Value // non-nil while open; indexes into the VM's value stack
	Closed   Value  // valid once Location is nil
	OpenNext *Upvalue
}

func (u *Upvalue) Kind() ObjKind  { return ObjUpvalue }
func (u *Upvalue) String() string { return "<upvalue>" }

// IsOpen reports whether this upvalue still points at a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.Location != nil }

// Get returns the current value, whether open or closed.
func (u *Upvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set stores a new value through the upvalue, whether open or closed.
func (u *Upvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close transitions the upvalue from open to closed, copying the
// current stack value into its own storage. An upvalue transitions
// open -> closed exactly once, when the owning stack slot is about to
// leave the stack.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = nil
}
