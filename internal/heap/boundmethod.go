package heap

// BoundMethod pairs a receiver with a closure, letting `obj.method` be
// passed around and later called without losing track of `this`.
// Calling a bound method rewrites slot 0 of the call's argument window
// to Receiver before dispatching Method.
type BoundMethod struct {
	header
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) Kind() ObjKind { return ObjBoundMethod }

// String prints as the underlying function.
func (b *BoundMethod) String() string { return b.Method.String() }
