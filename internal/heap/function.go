package heap

// FunctionKind distinguishes the compilation context a Function body was
// compiled under: script, plain function, method, or initializer. It
// only matters to the compiler (it governs implicit-return emission and
// `this`/`return` validity); it is also recorded on the Function object,
// though nothing at runtime reads it (stack traces go by Name).
type FunctionKind uint8

const (
	FuncScript FunctionKind = iota
	FuncFunction
	FuncMethod
	FuncInitializer
)

// Function is a compiled function body: its arity, how many upvalues its
// closures must capture, its code, and (for named functions/methods) the
// interned name used in stack traces and Print.
type Function struct {
	header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *String // nil for the top-level script
	FuncKind     FunctionKind
}

func (f *Function) Kind() ObjKind { return ObjFunction }

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}
