package heap

// NativeFn is a host-implemented routine registered through the native
// function hook. It receives already-evaluated argument values and
// returns a result or an error that the VM turns into a runtime error.
type NativeFn func(args []Value) (Value, error)

// Native wraps a host function pointer and its fixed arity so it can be
// called through the same CALL opcode path as a Closure, invoked
// synchronously in place rather than scheduled or queued.
type Native struct {
	header
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *Native) Kind() ObjKind  { return ObjNative }
func (n *Native) String() string { return "<native fn " + n.Name + ">" }
