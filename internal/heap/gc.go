package heap

// RootMarker is implemented by whatever owns a set of live roots a
// collection must trace from. The VM is one (its value stack, call
// frames, globals, and open upvalues); a Compiler is another, for as
// long as it is mid-compile (its chain of not-yet-linked-anywhere
// Function objects). A Heap traces every currently registered
// RootMarker on each collection, so neither the VM nor the compiler
// needs a package-level global to find "the" heap, or vice versa; both
// just register themselves for the span during which they hold live
// references a sweep must not reclaim.
type RootMarker interface {
	MarkRoots(h *Heap)
}

// Options configures collection behavior, grouped on a struct rather
// than compile-time switches so a test or CLI flag can flip them per
// run instead of per build.
type Options struct {
	// Stress forces a collection before every allocation, to flush out
	// rooting bugs.
	Stress bool
	// LogCollections writes a one-line summary of each collection
	// through Logf. Nil Logf disables logging even if this is true.
	LogCollections bool
	Logf           func(format string, args ...any)
	// HeapGrowFactor scales next_gc after each collection. Defaults to
	// 2 when zero.
	HeapGrowFactor float64
	// InitialThreshold is next_gc's starting value. Defaults to 1<<20
	// when zero.
	InitialThreshold int64
}

// Heap owns every allocation the interpreter performs: the singly-linked
// object list (the collector's sweep list), the string-interning table,
// and the mark-sweep collector itself. Grounded on original_source/
// memory.c and vm.h's `Obj *objects` / `Table strings` fields, combined
// into one struct because both are owned and freed together.
type Heap struct {
	head  Object // head of the intrusive object list
	count int

	strings Table // interned strings; weakly held (see RemoveWeak)

	bytesAllocated int64
	nextGC         int64

	roots []RootMarker
	gray  []Object

	opts Options
}

// NewHeap creates an empty heap ready to allocate.
func NewHeap(opts Options) *Heap {
	if opts.HeapGrowFactor == 0 {
		opts.HeapGrowFactor = 2
	}
	if opts.InitialThreshold == 0 {
		opts.InitialThreshold = 1 << 20
	}
	return &Heap{opts: opts, nextGC: opts.InitialThreshold}
}

// SetRoots installs r as the heap's sole root marker, replacing any
// previously registered markers. Used once per interpreter, at VM
// construction, so every collection traces at least the VM's own
// state.
func (h *Heap) SetRoots(r RootMarker) { h.roots = []RootMarker{r} }

// AddRoot registers an additional root marker, traced by every
// collection alongside whatever is already registered, until removed
// with RemoveRoot. Used by the compiler to keep its in-flight Function
// chain alive for the duration of one Compile call, since a function
// under construction isn't reachable from anywhere else yet.
func (h *Heap) AddRoot(r RootMarker) { h.roots = append(h.roots, r) }

// RemoveRoot undoes a prior AddRoot, shrinking the root set back once
// the marker's roots are no longer live (or have become reachable some
// other way, as a just-finished function does once it's linked into
// its enclosing chunk's constants).
func (h *Heap) RemoveRoot(r RootMarker) {
	for i, existing := range h.roots {
		if existing == r {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// BytesAllocated reports the collector's running estimate of live heap
// size, for diagnostics and tests.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }

// ObjectCount reports how many objects are currently linked into the
// sweep list.
func (h *Heap) ObjectCount() int { return h.count }

// estimateSize approximates the byte cost of an object kind. Go gives no
// portable sizeof, and the collector's heuristic only needs a stable
// relative cost to decide when to collect, not an exact figure, so this
// mirrors clox's sizeof(ObjWhatever) with constants for the fixed-size
// kinds and a length-scaled estimate for strings.
func estimateSize(o Object) int64 {
	switch v := o.(type) {
	case *String:
		return int64(32 + len(v.Chars))
	case *Function:
		return 64
	case *Native:
		return 48
	case *Closure:
		return int64(32 + 8*len(v.Upvalues))
	case *Upvalue:
		return 40
	case *Class:
		return 48
	case *Instance:
		return 48
	case *BoundMethod:
		return 40
	default:
		return 32
	}
}

// link threads o onto the front of the object list and accounts for its
// size. Every New* constructor in this package must route through link
// (or allocate) so every live heap object stays reachable from this
// list until it is swept.
func (h *Heap) link(o Object) {
	o.setNext(h.head)
	h.head = o
	h.count++
	h.bytesAllocated += estimateSize(o)
}

// MaybeCollect runs a collection if the heap has grown past its
// threshold or stress mode is enabled. Every New* constructor calls
// this before constructing its object.
func (h *Heap) MaybeCollect() {
	if h.opts.Stress || h.bytesAllocated > h.nextGC {
		h.Collect()
	}
}

// Collect runs one full mark-sweep pass: mark roots, trace the grey
// worklist to a fixed point, sweep unmarked objects (removing unmarked
// strings from the intern table first, since it holds them weakly), then
// grow the next threshold.
func (h *Heap) Collect() {
	before := h.bytesAllocated

	for _, r := range h.roots {
		r.MarkRoots(h)
	}
	h.traceReferences()
	h.removeWeakStrings()
	h.sweep()

	h.nextGC = int64(float64(h.bytesAllocated) * h.opts.HeapGrowFactor)
	if h.nextGC < h.opts.InitialThreshold {
		h.nextGC = h.opts.InitialThreshold
	}

	if h.opts.LogCollections && h.opts.Logf != nil {
		h.opts.Logf("gc: collected %d bytes (%d -> %d), next at %d",
			before-h.bytesAllocated, before, h.bytesAllocated, h.nextGC)
	}
}

// MarkValue marks v if it holds a heap-object reference; no-op otherwise.
func (h *Heap) MarkValue(v Value) {
	if v.IsObject() {
		h.MarkObject(v.AsObject())
	}
}

// MarkObject sets o's mark bit and pushes it to the grey worklist, unless
// it is already marked (tri-color invariant: mark once, blacken once).
func (h *Heap) MarkObject(o Object) {
	if o == nil || o.marked() {
		return
	}
	o.setMarked(true)
	h.gray = append(h.gray, o)
}

// MarkTable marks every live key and value in t, used for globals,
// method tables, and field tables.
func (h *Heap) MarkTable(t *Table) {
	t.Range(func(key *String, value Value) {
		h.MarkObject(key)
		h.MarkValue(value)
	})
}

// traceReferences drains the grey worklist, blackening each object by
// marking everything it refers to.
func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		o := h.gray[n]
		h.gray = h.gray[:n]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o Object) {
	switch v := o.(type) {
	case *String:
		// No outgoing references.
	case *Native:
		// No outgoing references.
	case *Function:
		if v.Name != nil {
			h.MarkObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			h.MarkValue(c)
		}
	case *Closure:
		h.MarkObject(v.Function)
		for _, uv := range v.Upvalues {
			h.MarkObject(uv)
		}
	case *Upvalue:
		if !v.IsOpen() {
			h.MarkValue(v.Closed)
		}
	case *Class:
		h.MarkObject(v.Name)
		h.MarkTable(&v.Methods)
	case *Instance:
		h.MarkObject(v.Class)
		h.MarkTable(&v.Fields)
	case *BoundMethod:
		h.MarkValue(v.Receiver)
		h.MarkObject(v.Method)
	}
}

func (h *Heap) removeWeakStrings() {
	h.strings.RemoveWeak(func(key *String) bool { return key.marked() })
}

// sweep walks the object list, freeing (unlinking) every unmarked object
// and clearing the mark bit on every survivor. "Free" here means
// unlinking: once an object is no longer reachable from the object
// list or any live root, Go's own garbage collector reclaims its
// memory; there is no manual free() to call.
func (h *Heap) sweep() {
	var prev Object
	cur := h.head
	for cur != nil {
		if cur.marked() {
			cur.setMarked(false)
			prev = cur
			cur = cur.next()
			continue
		}
		unreached := cur
		cur = cur.next()
		if prev == nil {
			h.head = cur
		} else {
			prev.setNext(cur)
		}
		h.count--
		h.bytesAllocated -= estimateSize(unreached)
	}
}

// InternString returns the canonical *String for chars, allocating and
// interning a new one if this content has never been seen. This is
// the sole path by which a String should be
// constructed: every call site that builds string content (literals,
// identifiers, concatenation) must go through it.
func (h *Heap) InternString(chars string) *String {
	hash := hashString(chars)
	if existing := h.strings.FindString(chars, hash); existing != nil {
		return existing
	}

	h.MaybeCollect()
	s := &String{Chars: chars, Hash: hash}
	h.link(s)
	h.strings.Set(s, Nil)
	return s
}

// NewFunction allocates a fresh, empty Function under construction by
// the compiler. Its Chunk is filled in as compilation proceeds.
func (h *Heap) NewFunction(name *String, kind FunctionKind) *Function {
	h.MaybeCollect()
	f := &Function{Name: name, FuncKind: kind}
	h.link(f)
	return f
}

// NewNative allocates a native function wrapper.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *Native {
	h.MaybeCollect()
	n := &Native{Name: name, Arity: arity, Fn: fn}
	h.link(n)
	return n
}

// NewClosure allocates a closure over fn with the given upvalue vector.
// Callers must ensure len(upvalues) == fn.UpvalueCount; the VM's
// CLOSURE handler is the only caller and maintains this by
// construction.
func (h *Heap) NewClosure(fn *Function, upvalues []*Upvalue) *Closure {
	h.MaybeCollect()
	c := &Closure{Function: fn, Upvalues: upvalues}
	h.link(c)
	return c
}

// NewUpvalue allocates a fresh open upvalue pointing at slot.
func (h *Heap) NewUpvalue(slot *Value) *Upvalue {
	h.MaybeCollect()
	u := &Upvalue{Location: slot}
	h.link(u)
	return u
}

// NewClass allocates an empty class named name.
func (h *Heap) NewClass(name *String) *Class {
	h.MaybeCollect()
	c := &Class{Name: name}
	h.link(c)
	return c
}

// NewInstance allocates an instance of class.
func (h *Heap) NewInstance(class *Class) *Instance {
	h.MaybeCollect()
	i := &Instance{Class: class}
	h.link(i)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	h.MaybeCollect()
	b := &BoundMethod{Receiver: receiver, Method: method}
	h.link(b)
	return b
}
